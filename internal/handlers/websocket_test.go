package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/dma-chat/internal/middleware"
	"github.com/thereayou/dma-chat/internal/models"
	"github.com/thereayou/dma-chat/internal/services"
	"github.com/thereayou/dma-chat/internal/services/mocks"
	ws "github.com/thereayou/dma-chat/internal/websocket"
	"github.com/thereayou/dma-chat/pkg/auth"
)

type chatServer struct {
	t     *testing.T
	srv   *httptest.Server
	hub   *ws.Hub
	store *mocks.Store
	jwt   *auth.JWTManager
	room  *models.ChatRoom
	alice *models.User
	bob   *models.User

	// существующий пользователь, не участник комнаты
	outsider *models.User
}

func newChatServer(t *testing.T) *chatServer {
	t.Helper()
	alice := &models.User{ID: uuid.New(), Username: "alice"}
	bob := &models.User{ID: uuid.New(), Username: "bob"}
	outsider := &models.User{ID: uuid.New(), Username: "mallory"}
	u1, u2 := models.CanonicalPair(alice.ID, bob.ID)
	room := &models.ChatRoom{ID: uuid.New(), User1ID: u1, User2ID: u2}

	store := &mocks.Store{}
	store.On("GetUser", mock.Anything, alice.ID.String()).Return(alice, nil)
	store.On("GetUser", mock.Anything, bob.ID.String()).Return(bob, nil)
	store.On("GetUser", mock.Anything, outsider.ID.String()).Return(outsider, nil)
	store.On("GetUser", mock.Anything, mock.Anything).Return(nil, services.ErrNotFound)
	store.On("GetChatRoom", mock.Anything, room.ID.String()).Return(room, nil)
	store.On("TouchLastSeen", mock.Anything, mock.Anything).Return(nil).Maybe()

	jwtManager := auth.NewJWTManager("ws-secret", time.Hour)
	hub := ws.NewHub()
	dispatcher := ws.NewDispatcher(store, ws.NewLocalPublisher(hub))
	h := NewWebSocketHandler(hub, store, dispatcher, 16)

	r := gin.New()
	r.GET("/ws/chat/:room_id/", middleware.WSAuthMiddleware(middleware.NewGateway(jwtManager, store, nil)), h.ServeChat)

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})

	return &chatServer{t: t, srv: srv, hub: hub, store: store, jwt: jwtManager, room: room, alice: alice, bob: bob, outsider: outsider}
}

func (s *chatServer) url(roomID, token string) string {
	u := "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/ws/chat/" + roomID + "/"
	if token != "" {
		u += "?token=" + token
	}
	return u
}

func (s *chatServer) token(user *models.User) string {
	s.t.Helper()
	tok, err := s.jwt.Generate(user.ID.String())
	require.NoError(s.t, err)
	return tok
}

func (s *chatServer) dial(user *models.User) *websocket.Conn {
	s.t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(s.url(s.room.ID.String(), s.token(user)), nil)
	require.NoError(s.t, err)
	s.t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func (s *chatServer) waitMembers(n int) {
	s.t.Helper()
	group := ws.GroupKey(s.room.ID.String())
	require.Eventually(s.t, func() bool { return s.hub.Members(group) == n }, 2*time.Second, 10*time.Millisecond)
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestChatBroadcastIncludesSender(t *testing.T) {
	s := newChatServer(t)
	s.store.On("SaveMessage", mock.Anything, mock.Anything).Return(nil)

	a := s.dial(s.alice)
	b := s.dial(s.bob)
	s.waitMembers(2)

	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte(`{"message":"hello"}`)))

	gotA := readJSON(t, a)
	gotB := readJSON(t, b)
	assert.Equal(t, gotA, gotB)
	assert.Equal(t, "alice", gotA["sender"])
	assert.Equal(t, "hello", gotA["content"])
	assert.NotEmpty(t, gotA["message_id"])
	assert.NotEmpty(t, gotA["created_at"])
}

func TestChatFrameErrorOnlyToSender(t *testing.T) {
	s := newChatServer(t)
	s.store.On("SaveMessage", mock.Anything, mock.Anything).Return(nil)

	a := s.dial(s.alice)
	b := s.dial(s.bob)
	s.waitMembers(2)

	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte("")))
	assert.Equal(t, map[string]any{"error": "Empty message received"}, readJSON(t, a))

	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Equal(t, map[string]any{"error": "Invalid JSON format"}, readJSON(t, a))

	// Первым B получает следующее настоящее сообщение, ошибок он не видел
	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte(`{"message":"after errors"}`)))
	assert.Equal(t, "after errors", readJSON(t, b)["content"])
	assert.Equal(t, "after errors", readJSON(t, a)["content"])
}

func TestChatPreservesPerConnectionOrder(t *testing.T) {
	s := newChatServer(t)
	s.store.On("SaveMessage", mock.Anything, mock.Anything).Return(nil)

	a := s.dial(s.alice)
	b := s.dial(s.bob)
	s.waitMembers(2)

	want := []string{"one", "two", "three", "four"}
	for _, text := range want {
		require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte(`{"message":"`+text+`"}`)))
	}
	for _, text := range want {
		assert.Equal(t, text, readJSON(t, b)["content"])
	}
}

func TestChatRejectsAnonymous(t *testing.T) {
	s := newChatServer(t)

	tests := []struct {
		name  string
		token string
	}{
		{name: "no token", token: ""},
		{name: "garbage token", token: "garbage"},
		{name: "unknown user", token: s.token(&models.User{ID: uuid.New()})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp, err := websocket.DefaultDialer.Dial(s.url(s.room.ID.String(), tt.token), nil)
			require.ErrorIs(t, err, websocket.ErrBadHandshake)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
	assert.Equal(t, 0, s.hub.Groups())
}

func TestChatRejectsNonParticipant(t *testing.T) {
	s := newChatServer(t)
	s.store.On("SaveMessage", mock.Anything, mock.Anything).Return(nil)

	_, resp, err := websocket.DefaultDialer.Dial(s.url(s.room.ID.String(), s.token(s.outsider)), nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, s.hub.Groups())

	// участники по-прежнему общаются, посторонний в группу не попал
	a := s.dial(s.alice)
	b := s.dial(s.bob)
	s.waitMembers(2)
	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte(`{"message":"secret"}`)))
	assert.Equal(t, "secret", readJSON(t, b)["content"])
	assert.Equal(t, 2, s.hub.Members(ws.GroupKey(s.room.ID.String())))
}

func TestChatMissingRoomStillJoins(t *testing.T) {
	s := newChatServer(t)
	missing := uuid.New()
	s.store.On("GetChatRoom", mock.Anything, missing.String()).Return(nil, services.ErrNotFound)

	conn, _, err := websocket.DefaultDialer.Dial(s.url(missing.String(), s.token(s.alice)), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"message":"hi"}`)))
	assert.Equal(t, map[string]any{"error": "Chat room not found"}, readJSON(t, conn))
}

func TestChatRejectsBadRoomID(t *testing.T) {
	s := newChatServer(t)

	for _, roomID := range []string{"NOT-HEX", "abc"} {
		_, resp, err := websocket.DefaultDialer.Dial(s.url(roomID, s.token(s.alice)), nil)
		require.ErrorIs(t, err, websocket.ErrBadHandshake)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}
}

func TestChatDisconnectLeavesGroup(t *testing.T) {
	s := newChatServer(t)
	s.store.On("SaveMessage", mock.Anything, mock.Anything).Return(nil)

	a := s.dial(s.alice)
	b := s.dial(s.bob)
	s.waitMembers(2)

	require.NoError(t, a.Close())
	s.waitMembers(1)

	// Оставшийся участник продолжает получать сообщения
	require.NoError(t, b.WriteMessage(websocket.TextMessage, []byte(`{"message":"still here"}`)))
	got := readJSON(t, b)
	assert.Equal(t, "bob", got["sender"])
	assert.Equal(t, "still here", got["content"])
}
