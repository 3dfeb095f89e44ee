package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/dma-chat/internal/handlers"
	"github.com/thereayou/dma-chat/internal/middleware"
	"github.com/thereayou/dma-chat/internal/models"
	"github.com/thereayou/dma-chat/internal/services/mocks"
	"github.com/thereayou/dma-chat/internal/websocket"
	"github.com/thereayou/dma-chat/pkg/auth"
	"golang.org/x/time/rate"
)

func newTestEngine(t *testing.T, store *mocks.Store, limiter *middleware.RateLimiter) (*gin.Engine, *auth.JWTManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtManager := auth.NewJWTManager("router-secret", time.Hour)
	hub := websocket.NewHub()
	dispatcher := websocket.NewDispatcher(store, websocket.NewLocalPublisher(hub))
	h := Handlers{
		Auth:      handlers.NewAuthHandler(jwtManager, nil),
		Users:     handlers.NewUserHandler(store),
		Rooms:     handlers.NewRoomHandler(store),
		Messages:  handlers.NewHTTPMessageHandler(store, dispatcher, 50),
		WebSocket: handlers.NewWebSocketHandler(hub, store, dispatcher, 16),
	}
	engine := APIEndpoints(h, RouterDeps{
		JWT:     jwtManager,
		Gateway: middleware.NewGateway(jwtManager, store, nil),
		Limiter: limiter,
	})
	return engine, jwtManager
}

func TestServiceRoutes(t *testing.T) {
	engine, _ := newTestEngine(t, &mocks.Store{}, nil)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestAPIRequiresToken(t *testing.T) {
	store := &mocks.Store{}
	engine, jwtManager := newTestEngine(t, store, nil)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	alice := &models.User{ID: uuid.New(), Username: "alice"}
	store.On("GetUser", mock.Anything, alice.ID.String()).Return(alice, nil)
	token, err := jwtManager.Generate(alice.ID.String())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// без Redis выход недоступен
	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestWebSocketRouteRejectsAnonymous(t *testing.T) {
	engine, _ := newTestEngine(t, &mocks.Store{}, nil)

	for _, path := range []string{"/ws/chat/" + uuid.NewString() + "/", "/ws/chat/" + uuid.NewString()} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestRateLimitApplied(t *testing.T) {
	limiter := middleware.NewRateLimiter(rate.Limit(0.001), 1, time.Minute)
	defer limiter.Stop()
	engine, _ := newTestEngine(t, &mocks.Store{}, limiter)

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}
