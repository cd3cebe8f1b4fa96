package handlers

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/room-chat/internal/handlers/dto"
	"github.com/thereayou/room-chat/internal/websocket"
)

type RoomHandler struct {
	hub *websocket.Hub
}

func NewRoomHandler(hub *websocket.Hub) *RoomHandler {
	return &RoomHandler{hub: hub}
}

// GetRooms lists the rooms that currently have sessions on this instance.
func (h *RoomHandler) GetRooms(c *gin.Context) {
	counts := h.hub.Registry().Rooms()

	rooms := make([]dto.RoomResponse, 0, len(counts))
	for name, online := range counts {
		rooms = append(rooms, dto.RoomResponse{Name: name, OnlineCount: online})
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Name < rooms[j].Name })

	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// GetRoomMembers returns the display names of the sessions in a room.
func (h *RoomHandler) GetRoomMembers(c *gin.Context) {
	room := strings.TrimSpace(c.Param("room"))
	if room == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room is required"})
		return
	}

	members := h.hub.RoomMembers(room)
	c.JSON(http.StatusOK, gin.H{
		"room":         room,
		"members":      members,
		"online_count": len(members),
	})
}
