//go:generate go run go.uber.org/mock/mockgen -source=database.go -destination=mocks/mock_message_store.go -package=mocks
package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/thereayou/room-chat/internal/models"
)

// MessageStore is the system of record for chat messages.
type MessageStore interface {
	// Append validates and persists a new message with a fresh id and the
	// current time. Empty author or text fails with ErrValidation.
	Append(ctx context.Context, author, text, room string) (*models.Message, error)
	// ListByRoom returns the room history ordered by CreatedAt, ties broken
	// by insertion order. Every call re-reads the backing store.
	ListByRoom(ctx context.Context, room string) ([]models.Message, error)
	// FindByID fails with ErrMessageNotFound when the id is unknown.
	FindByID(ctx context.Context, id uuid.UUID) (*models.Message, error)
	// DeleteByID reports whether a record was removed. Missing ids are not an error.
	DeleteByID(ctx context.Context, id uuid.UUID) (bool, error)
	// EditText replaces the text and stamps EditedAt.
	EditText(ctx context.Context, id uuid.UUID, text string) (*models.Message, error)
	Close() error
}
