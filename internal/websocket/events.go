package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// EventType names a frame on the wire.
type EventType string

const (
	// Inbound
	TypeJoin   EventType = "join"
	TypeSend   EventType = "send"
	TypeDelete EventType = "delete"
	TypeEdit   EventType = "edit"
	TypePing   EventType = "ping"

	// Outbound
	TypePreviousMessages EventType = "previousMessages"
	TypeNewMessage       EventType = "newMessage"
	TypeMessageDeleted   EventType = "messageDeleted"
	TypeMessageEdited    EventType = "messageEdited"
	TypeError            EventType = "error"
	TypePong             EventType = "pong"
)

type Envelope struct {
	Type      EventType       `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

type JoinPayload struct {
	DisplayName string `json:"displayName" validate:"required,max=64"`
	Room        string `json:"room" validate:"max=128"`
}

type SendPayload struct {
	Text string `json:"text" validate:"required"`
}

type DeletePayload struct {
	MessageID string `json:"messageId" validate:"required,uuid"`
}

type EditPayload struct {
	MessageID string `json:"messageId" validate:"required,uuid"`
	Text      string `json:"text" validate:"required"`
}

type ErrorPayload struct {
	Code    ErrorCode `json:"code"`
	Event   EventType `json:"event"`
	Message string    `json:"message"`
}

var validate = validator.New()

// NewEnvelope encodes one outbound frame.
func NewEnvelope(kind EventType, payload any) ([]byte, error) {
	env := Envelope{
		Type:      kind,
		Timestamp: time.Now().UTC(),
	}

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		env.Data = data
	}

	return json.Marshal(env)
}

// Decode unmarshals the payload into dst and validates its struct tags.
func (e *Envelope) Decode(dst any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("%w: %s has no data", ErrInvalidMessage, e.Type)
	}
	if err := json.Unmarshal(e.Data, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return nil
}
