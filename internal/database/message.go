package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/room-chat/internal/models"
	"github.com/thereayou/room-chat/internal/services"
	"gorm.io/gorm"
)

var _ services.MessageStore = (*Database)(nil)

// Postgres keeps microseconds; truncating up front keeps the returned record
// identical to what a later read yields.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func validateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: text is required", services.ErrValidation)
	}
	return nil
}

func newMessage(author, text, room string) (*models.Message, error) {
	if strings.TrimSpace(author) == "" {
		return nil, fmt.Errorf("%w: author is required", services.ErrValidation)
	}
	if err := validateText(text); err != nil {
		return nil, err
	}
	if room == "" {
		room = models.DefaultRoom
	}

	return &models.Message{
		ID:        uuid.New(),
		Author:    author,
		Text:      text,
		Room:      room,
		CreatedAt: now(),
	}, nil
}

func (d *Database) Append(ctx context.Context, author, text, room string) (*models.Message, error) {
	message, err := newMessage(author, text, room)
	if err != nil {
		return nil, err
	}
	if err := d.db.WithContext(ctx).Create(message).Error; err != nil {
		return nil, err
	}
	return message, nil
}

func (d *Database) ListByRoom(ctx context.Context, room string) ([]models.Message, error) {
	messages := make([]models.Message, 0)
	err := d.db.WithContext(ctx).
		Where("room = ?", room).
		Order("created_at ASC").
		Order("seq ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (d *Database) FindByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	var message models.Message
	if err := d.db.WithContext(ctx).First(&message, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.ErrMessageNotFound
		}
		return nil, err
	}
	return &message, nil
}

func (d *Database) DeleteByID(ctx context.Context, id uuid.UUID) (bool, error) {
	res := d.db.WithContext(ctx).Delete(&models.Message{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (d *Database) EditText(ctx context.Context, id uuid.UUID, text string) (*models.Message, error) {
	if err := validateText(text); err != nil {
		return nil, err
	}

	res := d.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("id = ?", id).
		Updates(map[string]any{"text": text, "edited_at": now()})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, services.ErrMessageNotFound
	}

	return d.FindByID(ctx, id)
}
