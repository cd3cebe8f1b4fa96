package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/room-chat/internal/handlers/dto"
	"github.com/thereayou/room-chat/internal/services"
)

type HTTPMessageHandler struct {
	store services.MessageStore
	log   *slog.Logger
}

func NewHTTPMessageHandler(store services.MessageStore, log *slog.Logger) *HTTPMessageHandler {
	return &HTTPMessageHandler{store: store, log: log}
}

// GetRoomMessages returns the full history of a room, oldest first. A room
// nobody has written to yields an empty list.
func (h *HTTPMessageHandler) GetRoomMessages(c *gin.Context) {
	room := strings.TrimSpace(c.Param("room"))
	if room == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room is required"})
		return
	}

	messages, err := h.store.ListByRoom(c.Request.Context(), room)
	if err != nil {
		h.log.Error("Failed to load room history", "room", room, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"room":     room,
		"messages": dto.FromMessages(messages),
	})
}
