package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/thereayou/dma-chat/internal/handlers"
	"github.com/thereayou/dma-chat/internal/metrics"
	"github.com/thereayou/dma-chat/internal/middleware"
	"github.com/thereayou/dma-chat/internal/services"
	"github.com/thereayou/dma-chat/pkg/auth"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	Users     *handlers.UserHandler
	Rooms     *handlers.RoomHandler
	Messages  *handlers.HTTPMessageHandler
	WebSocket *handlers.WebSocketHandler
}

type RouterDeps struct {
	JWT       *auth.JWTManager
	Blacklist services.TokenBlacklist
	Gateway   *middleware.Gateway
	Limiter   *middleware.RateLimiter
}

// APIEndpoints собирает gin: служебные маршруты, WebSocket и REST API
func APIEndpoints(h Handlers, deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.GinMiddleware())
	if deps.Limiter != nil {
		r.Use(middleware.RateLimit(deps.Limiter))
	}

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// WebSocket endpoint, токен в query
	wsAuth := middleware.WSAuthMiddleware(deps.Gateway)
	r.GET("/ws/chat/:room_id", wsAuth, h.WebSocket.ServeChat)
	r.GET("/ws/chat/:room_id/", wsAuth, h.WebSocket.ServeChat)

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(deps.JWT, deps.Blacklist))
	{
		api.POST("/auth/logout", h.Auth.Logout)

		api.GET("/users/me", h.Users.GetMe)
		api.GET("/users/:id", h.Users.GetUser)

		chats := api.Group("/chats")
		{
			chats.GET("/", h.Rooms.ListRooms)
			chats.POST("/create/:user2_id", h.Rooms.CreateDirectRoom)
			chats.GET("/:room_id/messages", h.Messages.GetRoomMessages)
			chats.POST("/:room_id/send-message", h.Messages.SendMessage)
			chats.POST("/:room_id/read", h.Messages.MarkRead)
		}
	}

	return r
}
