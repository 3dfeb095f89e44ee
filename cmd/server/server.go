package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"github.com/thereayou/dma-chat/internal/config"
	"github.com/thereayou/dma-chat/internal/database"
	"github.com/thereayou/dma-chat/internal/handlers"
	"github.com/thereayou/dma-chat/internal/middleware"
	"github.com/thereayou/dma-chat/internal/redisstore"
	"github.com/thereayou/dma-chat/internal/services"
	"github.com/thereayou/dma-chat/internal/websocket"
	"github.com/thereayou/dma-chat/pkg/auth"
	"golang.org/x/time/rate"
)

type Server struct {
	cfg        config.Config
	Router     *gin.Engine
	DB         *database.Database
	Redis      *redis.Client
	Hub        *websocket.Hub
	JWTManager *auth.JWTManager

	relay   *redisstore.Relay
	limiter *middleware.RateLimiter
}

func NewServer(ctx context.Context, cfg config.Config) (*Server, error) {
	dbConn, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := dbConn.Migrate(); err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	s := &Server{
		cfg:        cfg,
		DB:         dbConn,
		Hub:        websocket.NewHub(),
		JWTManager: auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL),
		limiter:    middleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst, 2*time.Minute),
	}

	var (
		publisher websocket.Publisher = websocket.NewLocalPublisher(s.Hub)
		blacklist services.TokenBlacklist
	)
	if cfg.RedisURL != "" {
		rdb, err := redisstore.Connect(ctx, cfg.RedisURL)
		if err != nil {
			_ = dbConn.Close()
			return nil, err
		}
		s.Redis = rdb
		s.relay = redisstore.NewRelay(rdb, s.Hub)
		publisher = s.relay
		blacklist = redisstore.NewBlacklist(rdb)
	} else {
		log.Warn().Msg("REDIS_URL is empty: single node mode, logout disabled")
	}

	dispatcher := websocket.NewDispatcher(dbConn, publisher)
	h := Handlers{
		Auth:      handlers.NewAuthHandler(s.JWTManager, blacklist),
		Users:     handlers.NewUserHandler(dbConn),
		Rooms:     handlers.NewRoomHandler(dbConn),
		Messages:  handlers.NewHTTPMessageHandler(dbConn, dispatcher, cfg.HistoryPageSize),
		WebSocket: handlers.NewWebSocketHandler(s.Hub, dbConn, dispatcher, cfg.WSSendBuffer),
	}

	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	s.Router = APIEndpoints(h, RouterDeps{
		JWT:       s.JWTManager,
		Blacklist: blacklist,
		Gateway:   middleware.NewGateway(s.JWTManager, dbConn, blacklist),
		Limiter:   s.limiter,
	})

	return s, nil
}

// Run обслуживает запросы до отмены ctx, затем останавливается в течение SHUTDOWN_TIMEOUT
func (s *Server) Run(ctx context.Context) error {
	defer s.close()

	if s.relay != nil {
		sub, err := s.relay.Subscribe(ctx)
		if err != nil {
			return err
		}
		go func() {
			if err := sub.Run(ctx); err != nil {
				log.Error().Err(err).Msg("relay stopped")
			}
		}()
	}
	go s.limiter.RunGC(30 * time.Second)

	httpServer := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("port", s.cfg.Port).Msg("server starting")
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	// Shutdown не ждёт hijacked-соединения, их закрывает hub
	s.Hub.Close()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
		return err
	}
	return nil
}

func (s *Server) close() {
	s.limiter.Stop()
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Warn().Err(err).Msg("redis close")
		}
	}
	if err := s.DB.Close(); err != nil {
		log.Warn().Err(err).Msg("postgres close")
	}
}
