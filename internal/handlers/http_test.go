package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/room-chat/internal/database"
	"github.com/thereayou/room-chat/internal/handlers/dto"
	"github.com/thereayou/room-chat/internal/services/mocks"
	ws "github.com/thereayou/room-chat/internal/websocket"
	"go.uber.org/mock/gomock"
)

func newRESTRouter(t *testing.T) (*gin.Engine, *database.BadgerStore, *ws.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logs.GetLoggerFromLevel(slog.LevelError)

	store, err := database.OpenBadgerInMemory(log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	hub := ws.NewHub(ws.NewRegistry(), log)
	messageH := NewHTTPMessageHandler(store, log)
	roomH := NewRoomHandler(hub)

	router := gin.New()
	router.GET("/health", Health)
	router.GET("/api/rooms", roomH.GetRooms)
	router.GET("/api/rooms/:room/messages", messageH.GetRoomMessages)
	router.GET("/api/rooms/:room/members", roomH.GetRoomMembers)
	return router, store, hub
}

func get(t *testing.T, router http.Handler, path string, dst any) int {
	t.Helper()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	if dst != nil {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
	}
	return w.Code
}

func TestHealth(t *testing.T) {
	router, _, _ := newRESTRouter(t)

	var body map[string]any
	require.Equal(t, http.StatusOK, get(t, router, "/health", &body))
	assert.Equal(t, "OK", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestGetRoomMessages(t *testing.T) {
	req := require.New(t)
	router, store, _ := newRESTRouter(t)
	ctx := context.Background()

	_, err := store.Append(ctx, "alice", "first", "general")
	req.NoError(err)
	_, err = store.Append(ctx, "bob", "second", "general")
	req.NoError(err)
	_, err = store.Append(ctx, "carol", "elsewhere", "random")
	req.NoError(err)

	var body struct {
		Room     string                `json:"room"`
		Messages []dto.MessageResponse `json:"messages"`
	}
	req.Equal(http.StatusOK, get(t, router, "/api/rooms/general/messages", &body))
	req.Equal("general", body.Room)
	req.Len(body.Messages, 2)
	req.Equal("first", body.Messages[0].Text)
	req.Equal("second", body.Messages[1].Text)

	req.Equal(http.StatusOK, get(t, router, "/api/rooms/empty/messages", &body))
	req.NotNil(body.Messages)
	req.Empty(body.Messages)
}

func TestGetRoomMessages_StoreFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := mocks.NewMockMessageStore(gomock.NewController(t))
	store.EXPECT().ListByRoom(gomock.Any(), "general").Return(nil, errStoreDown)

	router := gin.New()
	router.GET("/api/rooms/:room/messages", NewHTTPMessageHandler(store, logs.GetLoggerFromLevel(slog.LevelError)).GetRoomMessages)

	require.Equal(t, http.StatusInternalServerError, get(t, router, "/api/rooms/general/messages", nil))
}

func TestGetRoomsAndMembers(t *testing.T) {
	req := require.New(t)
	router, _, hub := newRESTRouter(t)

	joined(t, hub, "bob", "general")
	joined(t, hub, "alice", "general")
	joined(t, hub, "carol", "random")
	hub.Register(ws.NewClient(hub, nil))

	var rooms struct {
		Rooms []dto.RoomResponse `json:"rooms"`
	}
	req.Equal(http.StatusOK, get(t, router, "/api/rooms", &rooms))
	req.Equal([]dto.RoomResponse{
		{Name: "general", OnlineCount: 2},
		{Name: "random", OnlineCount: 1},
	}, rooms.Rooms)

	var members struct {
		Room        string   `json:"room"`
		Members     []string `json:"members"`
		OnlineCount int      `json:"online_count"`
	}
	req.Equal(http.StatusOK, get(t, router, "/api/rooms/general/members", &members))
	req.Equal([]string{"alice", "bob"}, members.Members)
	req.Equal(2, members.OnlineCount)

	req.Equal(http.StatusOK, get(t, router, "/api/rooms/nobody/members", &members))
	req.Empty(members.Members)
}
