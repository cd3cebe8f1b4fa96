package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/thereayou/room-chat/internal/handlers/dto"
	"github.com/thereayou/room-chat/internal/models"
	"github.com/thereayou/room-chat/internal/services"
	"github.com/thereayou/room-chat/internal/websocket"
)

var _ websocket.EventHandler = (*MessageHandler)(nil)

// MessageHandler turns the events of one session into store calls and room
// broadcasts.
type MessageHandler struct {
	store       services.MessageStore
	hub         *websocket.Hub
	log         *slog.Logger
	defaultRoom string
}

func NewMessageHandler(store services.MessageStore, hub *websocket.Hub, log *slog.Logger, defaultRoom string) *MessageHandler {
	if defaultRoom == "" {
		defaultRoom = models.DefaultRoom
	}
	return &MessageHandler{
		store:       store,
		hub:         hub,
		log:         log,
		defaultRoom: defaultRoom,
	}
}

func (h *MessageHandler) HandleEvent(ctx context.Context, client *websocket.Client, env *websocket.Envelope) error {
	switch env.Type {
	case websocket.TypeJoin:
		return h.handleJoin(ctx, client, env)

	case websocket.TypeSend:
		return h.handleSend(ctx, client, env)

	case websocket.TypeDelete:
		return h.handleDelete(ctx, client, env)

	case websocket.TypeEdit:
		return h.handleEdit(ctx, client, env)

	default:
		h.log.Debug("Unknown event type", "client_id", client.ID, "event", env.Type)
		return websocket.NewEventError(websocket.CodeInvalid, "unknown event type", nil)
	}
}

func invalid(err error) error {
	return websocket.NewEventError(websocket.CodeInvalid, err.Error(), err)
}

func unavailable(err error) error {
	return websocket.NewEventError(websocket.CodeUnavailable, "message store unavailable", err)
}

// Events other than join carry no reliable reply channel before a room is
// established, so they are dropped.
func (h *MessageHandler) ignoredBeforeJoin(client *websocket.Client, env *websocket.Envelope) bool {
	if client.IsJoined() {
		return false
	}
	h.log.Debug("Ignoring event before join", "client_id", client.ID, "event", env.Type)
	return true
}

func (h *MessageHandler) handleJoin(ctx context.Context, client *websocket.Client, env *websocket.Envelope) error {
	var payload websocket.JoinPayload
	if err := env.Decode(&payload); err != nil {
		return invalid(err)
	}

	displayName := strings.TrimSpace(payload.DisplayName)
	if displayName == "" {
		return invalid(errors.New("displayName is required"))
	}
	room := strings.TrimSpace(payload.Room)
	if room == "" {
		room = h.defaultRoom
	}

	if err := h.hub.JoinRoom(client, displayName, room); err != nil {
		return err
	}

	messages, err := h.store.ListByRoom(ctx, room)
	if err != nil {
		h.log.Error("Failed to load room history", "client_id", client.ID, "room", room, "error", err)
		return unavailable(err)
	}

	return client.SendEvent(websocket.TypePreviousMessages, dto.FromMessages(messages))
}

func (h *MessageHandler) handleSend(ctx context.Context, client *websocket.Client, env *websocket.Envelope) error {
	if h.ignoredBeforeJoin(client, env) {
		return nil
	}

	var payload websocket.SendPayload
	if err := env.Decode(&payload); err != nil {
		return invalid(err)
	}

	message, err := h.store.Append(ctx, client.DisplayName(), payload.Text, client.Room())
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			return invalid(err)
		}
		h.log.Error("Failed to save message", "client_id", client.ID, "room", client.Room(), "error", err)
		return unavailable(err)
	}

	return h.broadcast(ctx, message.Room, websocket.TypeNewMessage, dto.FromMessage(message))
}

func (h *MessageHandler) handleDelete(ctx context.Context, client *websocket.Client, env *websocket.Envelope) error {
	if h.ignoredBeforeJoin(client, env) {
		return nil
	}

	var payload websocket.DeletePayload
	if err := env.Decode(&payload); err != nil {
		return invalid(err)
	}
	id, err := uuid.Parse(payload.MessageID)
	if err != nil {
		return invalid(err)
	}

	message, err := h.ownedMessage(ctx, client, id, "delete")
	if err != nil || message == nil {
		return err
	}

	removed, err := h.store.DeleteByID(ctx, id)
	if err != nil {
		h.log.Error("Failed to delete message", "client_id", client.ID, "message_id", id, "error", err)
		return unavailable(err)
	}
	if !removed {
		return nil
	}

	// The message's own room, not the session's: the author may have moved.
	return h.broadcast(ctx, message.Room, websocket.TypeMessageDeleted, message.ID.String())
}

func (h *MessageHandler) handleEdit(ctx context.Context, client *websocket.Client, env *websocket.Envelope) error {
	if h.ignoredBeforeJoin(client, env) {
		return nil
	}

	var payload websocket.EditPayload
	if err := env.Decode(&payload); err != nil {
		return invalid(err)
	}
	id, err := uuid.Parse(payload.MessageID)
	if err != nil {
		return invalid(err)
	}

	message, err := h.ownedMessage(ctx, client, id, "edit")
	if err != nil || message == nil {
		return err
	}

	edited, err := h.store.EditText(ctx, id, payload.Text)
	switch {
	case errors.Is(err, services.ErrMessageNotFound):
		return nil
	case errors.Is(err, services.ErrValidation):
		return invalid(err)
	case err != nil:
		h.log.Error("Failed to edit message", "client_id", client.ID, "message_id", id, "error", err)
		return unavailable(err)
	}

	return h.broadcast(ctx, edited.Room, websocket.TypeMessageEdited, dto.FromMessage(edited))
}

// ownedMessage loads id and checks that the session's display name wrote it.
// A missing message yields (nil, nil).
func (h *MessageHandler) ownedMessage(ctx context.Context, client *websocket.Client, id uuid.UUID, action string) (*models.Message, error) {
	message, err := h.store.FindByID(ctx, id)
	if errors.Is(err, services.ErrMessageNotFound) {
		h.log.Debug("Message not found", "client_id", client.ID, "message_id", id, "action", action)
		return nil, nil
	}
	if err != nil {
		h.log.Error("Failed to load message", "client_id", client.ID, "message_id", id, "error", err)
		return nil, unavailable(err)
	}

	// Ownership is display-name equality; there is no identity system.
	if message.Author != client.DisplayName() {
		h.log.Warn("Refusing to change another author's message",
			"client_id", client.ID, "display_name", client.DisplayName(), "message_id", id, "action", action)
		return nil, websocket.NewEventError(websocket.CodeForbidden, "you can only "+action+" your own messages", nil)
	}

	return message, nil
}

// broadcast fans out a write that is already durable, so it is not tied to
// the sender's connection staying open.
func (h *MessageHandler) broadcast(ctx context.Context, room string, kind websocket.EventType, payload any) error {
	if err := h.hub.Broadcast(context.WithoutCancel(ctx), room, kind, payload); err != nil {
		h.log.Error("Failed to broadcast", "room", room, "event", kind, "error", err)
		return websocket.NewEventError(websocket.CodeUnavailable, "broadcast failed", err)
	}
	return nil
}
