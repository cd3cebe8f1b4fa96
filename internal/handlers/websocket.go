package handlers

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/thereayou/room-chat/internal/middleware"
	ws "github.com/thereayou/room-chat/internal/websocket"
)

// WebSocketHandler upgrades connections and starts their pumps.
type WebSocketHandler struct {
	hub            *ws.Hub
	messageHandler ws.EventHandler
	upgrader       websocket.Upgrader
	log            *slog.Logger
}

func NewWebSocketHandler(hub *ws.Hub, messageHandler ws.EventHandler, origins *middleware.OriginPolicy, log *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:            hub,
		messageHandler: messageHandler,
		log:            log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.CheckOrigin,
		},
	}
}

// HandleWebSocket starts an unjoined session. The peer must send a join
// event before anything else takes effect.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", "remote_addr", c.Request.RemoteAddr, "error", err)
		return
	}

	client := ws.NewClient(h.hub, conn)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.messageHandler)
}
