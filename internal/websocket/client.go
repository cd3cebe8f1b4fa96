package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a frame
	writeWait = 10 * time.Second

	// Time allowed to read the next pong
	pongWait = 60 * time.Second

	// Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	defaultMaxMessageSize = 512 * 1024
	defaultSendBuffer     = 256

	inboundBuffer = 16
)

// EventHandler processes the inbound events of one session. Calls for the
// same session never overlap.
type EventHandler interface {
	HandleEvent(ctx context.Context, client *Client, env *Envelope) error
}

type SessionState int

const (
	StateUnjoined SessionState = iota
	StateJoined
)

func (s SessionState) String() string {
	switch s {
	case StateJoined:
		return "joined"
	default:
		return "unjoined"
	}
}

// Client is one live connection. It starts Unjoined and becomes Joined,
// with a display name and a room, on its first successful join.
type Client struct {
	ID   uuid.UUID
	Conn *websocket.Conn
	Send chan []byte
	Hub  *Hub

	log *slog.Logger

	mu          sync.RWMutex
	state       SessionState
	displayName string
	room        string

	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.New()

	sendBuffer := defaultSendBuffer
	log := slog.Default()
	if hub != nil {
		sendBuffer = hub.sendBuffer
		log = hub.log
	}

	return &Client{
		ID:     id,
		Conn:   conn,
		Send:   make(chan []byte, sendBuffer),
		Hub:    hub,
		log:    log.With("client_id", id),
		state:  StateUnjoined,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

func (c *Client) State() SessionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Client) IsJoined() bool {
	return c.State() == StateJoined
}

func (c *Client) DisplayName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.displayName
}

func (c *Client) Room() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.room
}

func (c *Client) setJoined(displayName, room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateJoined
	c.displayName = displayName
	c.room = room
}

// Context is canceled when the session closes.
func (c *Client) Context() context.Context {
	return c.ctx
}

func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close cancels in-flight work and stops the write pump, which closes the
// connection. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.done)
	})
}

func (c *Client) deliver(data []byte) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.Send <- data:
		return nil
	default:
		return ErrClientQueueFull
	}
}

// SendEvent queues one event for this session only.
func (c *Client) SendEvent(kind EventType, payload any) error {
	data, err := NewEnvelope(kind, payload)
	if err != nil {
		return err
	}
	return c.deliver(data)
}

func (c *Client) SendError(event EventType, evErr *EventError) {
	payload := ErrorPayload{
		Code:    evErr.Code,
		Event:   event,
		Message: evErr.Message,
	}
	if err := c.SendEvent(TypeError, payload); err != nil {
		c.log.Warn("Failed to send error event", "event", event, "error", err)
	}
}

// ReadPump reads frames until the connection fails, handing them in order
// to a single dispatch goroutine. On exit the session is closed and
// unregistered only after the dispatcher has stopped, so a join still in
// flight can not re-register it.
func (c *Client) ReadPump(handler EventHandler) {
	inbound := make(chan *Envelope, inboundBuffer)
	dispatched := make(chan struct{})
	go func() {
		defer close(dispatched)
		c.dispatch(handler, inbound)
	}()

	defer func() {
		c.Close()
		close(inbound)
		<-dispatched
		if c.Hub != nil {
			c.Hub.Unregister(c)
		}
	}()

	maxMessageSize := int64(defaultMaxMessageSize)
	if c.Hub != nil {
		maxMessageSize = c.Hub.maxMessageSize
	}
	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Warn("WebSocket read error", "error", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Type == "" {
			c.SendError("", NewEventError(CodeInvalid, ErrInvalidMessage.Error(), err))
			continue
		}

		select {
		case inbound <- &env:
		case <-c.done:
			return
		}
	}
}

func (c *Client) dispatch(handler EventHandler, inbound <-chan *Envelope) {
	for env := range inbound {
		// Events queued behind a disconnect are abandoned.
		if c.ctx.Err() != nil {
			continue
		}
		c.handle(handler, env)
	}
}

func (c *Client) handle(handler EventHandler, env *Envelope) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("Recovered from panic while handling event", "event", env.Type, "panic", r)
		}
	}()

	if env.Type == TypePing {
		if err := c.SendEvent(TypePong, nil); err != nil {
			c.log.Debug("Failed to send pong", "error", err)
		}
		return
	}
	if handler == nil {
		return
	}

	err := handler.HandleEvent(c.ctx, c, env)
	if err == nil || c.ctx.Err() != nil {
		return
	}

	var evErr *EventError
	if !errors.As(err, &evErr) {
		c.log.Error("Error handling event", "event", env.Type, "error", err)
		evErr = NewEventError(CodeUnavailable, "internal error", err)
	}
	c.SendError(env.Type, evErr)
}

// WritePump writes queued frames and keep-alive pings until the session
// closes or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
		c.Conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case message := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.log.Debug("WebSocket write failed", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
