package handlers

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/thereayou/dma-chat/internal/middleware"
	"github.com/thereayou/dma-chat/internal/services"
	ws "github.com/thereayou/dma-chat/internal/websocket"
)

var roomIDPattern = regexp.MustCompile(`^[a-f0-9-]+$`)

// WebSocketHandler управляет WebSocket соединениями
type WebSocketHandler struct {
	hub        *ws.Hub
	store      services.DatabaseService
	dispatcher *ws.Dispatcher
	sendBuffer int
	upgrader   websocket.Upgrader
}

// NewWebSocketHandler создает новый WebSocket handler
func NewWebSocketHandler(hub *ws.Hub, store services.DatabaseService, dispatcher *ws.Dispatcher, sendBuffer int) *WebSocketHandler {
	return &WebSocketHandler{
		hub:        hub,
		store:      store,
		dispatcher: dispatcher,
		sendBuffer: sendBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// TODO: ограничить origin списком фронтендов, когда он появится в конфиге
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeChat - GET /ws/chat/:room_id/?token=...
// Анонимное соединение и чужая комната отклоняются до upgrade.
func (h *WebSocketHandler) ServeChat(c *gin.Context) {
	raw := c.Param("room_id")
	if !roomIDPattern.MatchString(raw) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}
	roomID, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	user := middleware.CurrentIdentity(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	// Чужую комнату не слушаем. Несуществующая комната допускается:
	// каждый фрейм получит "Chat room not found".
	room, err := h.store.GetChatRoom(c.Request.Context(), roomID.String())
	switch {
	case errors.Is(err, services.ErrNotFound):
	case err != nil:
		log.Error().Err(err).Str("room_id", roomID.String()).Msg("load chat room")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chat room"})
		return
	case !room.HasParticipant(user.ID):
		c.JSON(http.StatusForbidden, gin.H{"error": "you are not a participant of this chat room"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade сам ответил клиенту
		log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := ws.NewClient(conn, user.ID, h.sendBuffer)
	session := ws.NewSession(h.hub, h.store, h.dispatcher, roomID.String())
	if err := session.Open(user, client); err != nil {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, err.Error()))
		_ = conn.Close()
		return
	}

	go client.WritePump()
	session.Serve(c.Request.Context())

	if err := h.store.TouchLastSeen(c.Request.Context(), user.ID); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("update last seen failed")
	}
}
