package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/thereayou/room-chat/internal/models"
)

// MessageResponse is the wire shape of a stored message.
type MessageResponse struct {
	ID        uuid.UUID  `json:"id"`
	Author    string     `json:"author"`
	Text      string     `json:"text"`
	Room      string     `json:"room"`
	CreatedAt time.Time  `json:"createdAt"`
	Edited    bool       `json:"edited"`
	EditedAt  *time.Time `json:"editedAt,omitempty"`
}

type RoomResponse struct {
	Name        string `json:"name"`
	OnlineCount int    `json:"online_count"`
}

func FromMessage(m *models.Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		Author:    m.Author,
		Text:      m.Text,
		Room:      m.Room,
		CreatedAt: m.CreatedAt,
		Edited:    m.Edited(),
		EditedAt:  m.EditedAt,
	}
}

func FromMessages(messages []models.Message) []MessageResponse {
	return lo.Map(messages, func(m models.Message, _ int) MessageResponse {
		return FromMessage(&m)
	})
}
