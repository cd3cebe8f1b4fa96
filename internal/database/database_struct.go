package database

import (
	"log/slog"

	"gorm.io/gorm"
)

// Database is the Postgres-backed message store.
type Database struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewDatabase(db *gorm.DB, log *slog.Logger) *Database {
	return &Database{db: db, log: log}
}
