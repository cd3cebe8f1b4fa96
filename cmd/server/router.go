package main

import (
	"github.com/gin-gonic/gin"
	"github.com/thereayou/room-chat/internal/handlers"
)

func APIEndpoints(r *gin.Engine, wsH *handlers.WebSocketHandler, messageH *handlers.HTTPMessageHandler, roomH *handlers.RoomHandler) {
	r.GET("/health", handlers.Health)
	r.GET("/ws", wsH.HandleWebSocket)

	api := r.Group("/api")
	{
		api.GET("/rooms", roomH.GetRooms)
		api.GET("/rooms/:room/messages", messageH.GetRoomMessages)
		api.GET("/rooms/:room/members", roomH.GetRoomMembers)
	}
}
