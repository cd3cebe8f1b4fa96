package websocket

import "errors"

var (
	ErrClientQueueFull = errors.New("client message queue is full")
	ErrClientClosed    = errors.New("client is closed")
	ErrInvalidMessage  = errors.New("invalid message format")
)

type ErrorCode string

const (
	CodeInvalid     ErrorCode = "invalid"
	CodeForbidden   ErrorCode = "forbidden"
	CodeUnavailable ErrorCode = "unavailable"
)

// EventError is a dispatcher outcome reported back to the originating
// session as an error event. Message is what the client sees; Err stays in
// the logs.
type EventError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func NewEventError(code ErrorCode, message string, err error) *EventError {
	return &EventError{Code: code, Message: message, Err: err}
}

func (e *EventError) Error() string {
	if e.Err == nil {
		return string(e.Code) + ": " + e.Message
	}
	return string(e.Code) + ": " + e.Message + ": " + e.Err.Error()
}

func (e *EventError) Unwrap() error {
	return e.Err
}
