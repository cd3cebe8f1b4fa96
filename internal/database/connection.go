package database

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/thereayou/room-chat/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func (d *Database) Connect(dsn string) error {
	if dsn == "" {
		return errors.New("DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}

	if err := db.AutoMigrate(&models.Message{}); err != nil {
		return fmt.Errorf("migrate messages: %w", err)
	}

	d.db = db
	if d.log == nil {
		d.log = slog.Default()
	}
	d.log.Info("Connected to postgres")

	return nil
}

func (d *Database) Close() error {
	if d.db == nil {
		return nil
	}
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
