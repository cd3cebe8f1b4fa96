package websocket

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

var ErrRelayClosed = errors.New("relay subscription closed")

// Hub owns the live sessions and fans room events out to them.
type Hub struct {
	registry *Registry
	relay    Relay
	log      *slog.Logger

	sendBuffer     int
	maxMessageSize int64

	mu      sync.RWMutex
	clients map[uuid.UUID]*Client
}

type Option func(*Hub)

// WithRelay routes broadcasts through relay so that sessions connected to
// other instances receive them too.
func WithRelay(relay Relay) Option {
	return func(h *Hub) {
		h.relay = relay
	}
}

func WithSendBuffer(size int) Option {
	return func(h *Hub) {
		if size > 0 {
			h.sendBuffer = size
		}
	}
}

func WithMaxMessageSize(size int64) Option {
	return func(h *Hub) {
		if size > 0 {
			h.maxMessageSize = size
		}
	}
}

func NewHub(registry *Registry, log *slog.Logger, opts ...Option) *Hub {
	h := &Hub{
		registry:       registry,
		log:            log,
		sendBuffer:     defaultSendBuffer,
		maxMessageSize: defaultMaxMessageSize,
		clients:        make(map[uuid.UUID]*Client),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) Registry() *Registry {
	return h.registry
}

// Run pumps relayed broadcasts into local sessions until ctx is done, then
// closes every session. Without a relay it only waits for ctx.
func (h *Hub) Run(ctx context.Context) error {
	defer h.Shutdown()

	if h.relay == nil {
		<-ctx.Done()
		return nil
	}

	messages, err := h.relay.Subscribe(ctx)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return ErrRelayClosed
			}
			h.deliver(msg.Room, msg.Data)
		}
	}
}

// Shutdown closes every registered session.
func (h *Hub) Shutdown() {
	h.mu.RLock()
	clients := lo.Values(h.clients)
	h.mu.RUnlock()

	for _, client := range clients {
		client.Close()
	}
	h.log.Info("Hub stopped", "closed_clients", len(clients))
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	total := len(h.clients)
	h.mu.Unlock()

	h.log.Info("Client registered", "client_id", client.ID, "total_clients", total)
}

// Unregister removes client from its room and from the hub and closes it.
func (h *Hub) Unregister(client *Client) {
	room, wasMember := h.registry.Leave(client)

	h.mu.Lock()
	delete(h.clients, client.ID)
	total := len(h.clients)
	h.mu.Unlock()

	client.Close()

	attrs := []any{"client_id", client.ID, "total_clients", total}
	if wasMember {
		attrs = append(attrs, "room", room)
	}
	h.log.Info("Client unregistered", attrs...)
}

// JoinRoom tags client with displayName and moves it into room.
func (h *Hub) JoinRoom(client *Client, displayName, room string) error {
	if client.ctx.Err() != nil {
		return ErrClientClosed
	}

	client.setJoined(displayName, room)
	previous, moved := h.registry.Join(client, room)

	attrs := []any{"client_id", client.ID, "display_name", displayName, "room", room}
	if moved {
		attrs = append(attrs, "previous_room", previous)
	}
	h.log.Info("Client joined room", attrs...)
	return nil
}

// Broadcast sends one event to every session in room. Sessions are taken as
// a snapshot when delivery starts and a failed delivery only skips that
// session.
func (h *Hub) Broadcast(ctx context.Context, room string, kind EventType, payload any) error {
	data, err := NewEnvelope(kind, payload)
	if err != nil {
		return err
	}

	if h.relay != nil {
		return h.relay.Publish(ctx, room, data)
	}

	h.deliver(room, data)
	return nil
}

func (h *Hub) deliver(room string, data []byte) int {
	delivered := 0
	for _, client := range h.registry.MembersOf(room) {
		if err := client.deliver(data); err != nil {
			h.log.Warn("Skipping client during broadcast", "client_id", client.ID, "room", room, "error", err)
			continue
		}
		delivered++
	}
	return delivered
}

// RoomMembers returns the sorted display names of the sessions in room.
func (h *Hub) RoomMembers(room string) []string {
	names := lo.Map(h.registry.MembersOf(room), func(c *Client, _ int) string {
		return c.DisplayName()
	})
	sort.Strings(names)
	return names
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}
