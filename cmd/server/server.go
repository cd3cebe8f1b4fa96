package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/thereayou/room-chat/internal/config"
	"github.com/thereayou/room-chat/internal/database"
	"github.com/thereayou/room-chat/internal/handlers"
	"github.com/thereayou/room-chat/internal/middleware"
	"github.com/thereayou/room-chat/internal/services"
	"github.com/thereayou/room-chat/internal/websocket"
)

type Server struct {
	Router *gin.Engine
	Store  services.MessageStore
	Redis  *redis.Client
	Hub    *websocket.Hub

	cfg *config.Config
	log *slog.Logger
}

func NewServer(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Server, error) {
	store, err := openStore(cfg, log)
	if err != nil {
		return nil, err
	}

	s := &Server{Store: store, cfg: cfg, log: log}

	hubOpts := []websocket.Option{
		websocket.WithSendBuffer(cfg.ClientSendBuffer),
		websocket.WithMaxMessageSize(cfg.MaxMessageSize),
	}
	if cfg.RelayEnabled() {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		s.Redis = redis.NewClient(redisOpts)
		if err := s.Redis.Ping(ctx).Err(); err != nil {
			s.Close()
			return nil, fmt.Errorf("redis connect failed: %w", err)
		}
		hubOpts = append(hubOpts, websocket.WithRelay(websocket.NewRedisRelay(s.Redis, cfg.RedisChannelPrefix, log)))
		log.Info("Cross-instance relay enabled", "prefix", cfg.RedisChannelPrefix)
	}

	s.Hub = websocket.NewHub(websocket.NewRegistry(), log, hubOpts...)

	origins := middleware.NewOriginPolicy(cfg.Origins(), log)
	messageH := handlers.NewMessageHandler(store, s.Hub, log, cfg.DefaultRoom)
	wsH := handlers.NewWebSocketHandler(s.Hub, messageH, origins, log)
	httpMessageH := handlers.NewHTTPMessageHandler(store, log)
	roomH := handlers.NewRoomHandler(s.Hub)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log), origins.CORS())
	APIEndpoints(router, wsH, httpMessageH, roomH)
	s.Router = router

	return s, nil
}

func openStore(cfg *config.Config, log *slog.Logger) (services.MessageStore, error) {
	switch cfg.StoreDriver {
	case config.DriverBadger:
		store, err := database.OpenBadger(cfg.BadgerPath, log)
		if err != nil {
			return nil, err
		}
		log.Info("Using badger message store", "path", cfg.BadgerPath)
		return store, nil
	default:
		db := database.NewDatabase(nil, log)
		if err := db.Connect(cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("postgres connect failed: %w", err)
		}
		return db, nil
	}
}

// Run serves until ctx is done or the server or the hub fails, then shuts
// down within SHUTDOWN_TIMEOUT.
func (s *Server) Run(ctx context.Context) error {
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()

	errChan := make(chan error, 2)

	go func() {
		if err := s.Hub.Run(hubCtx); err != nil {
			errChan <- fmt.Errorf("hub error: %w", err)
		}
	}()

	httpServer := &http.Server{
		Addr:    s.cfg.Addr(),
		Handler: s.Router,
	}
	go func() {
		s.log.Info("Server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		s.log.Info("Shutdown signal received")
	case runErr = <-errChan:
		s.log.Error("Server failed", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()

	// Hijacked websocket connections are not tracked by http.Server, so the
	// hub closes them.
	stopHub()
	s.Hub.Shutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Warn("HTTP server shutdown incomplete", "error", err)
	}

	s.log.Info("Server stopped")
	return runErr
}

func (s *Server) Close() {
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			s.log.Warn("Failed to close redis client", "error", err)
		}
	}
	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			s.log.Warn("Failed to close message store", "error", err)
		}
	}
}
