package models

import (
	"time"

	"github.com/google/uuid"
)

const DefaultRoom = "general"

// Message is a chat line persisted per room. ID, Author, Room and CreatedAt
// never change after creation; Text changes only through an explicit edit.
type Message struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Seq       int64      `gorm:"autoIncrement;index"`
	Author    string     `gorm:"not null"`
	Text      string     `gorm:"type:text;not null"`
	Room      string     `gorm:"not null;default:'general';index:idx_messages_room_created,priority:1"`
	CreatedAt time.Time  `gorm:"index:idx_messages_room_created,priority:2"`
	EditedAt  *time.Time
}

// Edited reports whether the text was changed after creation.
func (m Message) Edited() bool {
	return m.EditedAt != nil
}
