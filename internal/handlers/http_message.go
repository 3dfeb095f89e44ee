package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/thereayou/dma-chat/internal/handlers/dto"
	"github.com/thereayou/dma-chat/internal/middleware"
	"github.com/thereayou/dma-chat/internal/services"
	ws "github.com/thereayou/dma-chat/internal/websocket"
)

const maxHistoryPage = 100

type HTTPMessageHandler struct {
	*RoomHandler
	dispatcher *ws.Dispatcher
	pageSize   int
}

func NewHTTPMessageHandler(db services.DatabaseService, dispatcher *ws.Dispatcher, pageSize int) *HTTPMessageHandler {
	if pageSize <= 0 || pageSize > maxHistoryPage {
		pageSize = maxHistoryPage
	}
	return &HTTPMessageHandler{RoomHandler: NewRoomHandler(db), dispatcher: dispatcher, pageSize: pageSize}
}

// GetRoomMessages получает историю сообщений комнаты
func (h *HTTPMessageHandler) GetRoomMessages(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	room := h.loadRoomForMember(c, userID)
	if room == nil {
		return
	}

	// Параметры пагинации
	limit := h.pageSize
	if l := c.Query("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = min(parsed, maxHistoryPage)
	}

	var beforeID *uuid.UUID
	if before := c.Query("before"); before != "" {
		id, err := uuid.Parse(before)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid before id"})
			return
		}
		beforeID = &id
	}

	messages, err := h.db.ListMessages(c.Request.Context(), room.ID.String(), limit, beforeID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid before id"})
			return
		}
		log.Error().Err(err).Msg("list messages")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get messages"})
		return
	}

	result := make([]dto.MessageResponse, len(messages))
	for i := range messages {
		result[i] = dto.NewMessageResponse(&messages[i], ws.FormatTimestamp(messages[i].CreatedAt))
	}

	c.JSON(http.StatusOK, dto.HistoryResponse{
		Messages: result,
		HasMore:  len(messages) == limit,
	})
}

// SendMessage отправляет сообщение через HTTP. Путь тот же, что у WebSocket:
// сохранение и рассылка всем сессиям комнаты.
func (h *HTTPMessageHandler) SendMessage(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	room := h.loadRoomForMember(c, userID)
	if room == nil {
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read body"})
		return
	}
	frame, err := ws.DecodeFrame(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	sender, err := h.db.GetUser(ctx, userID.String())
	if err != nil {
		respondUserError(c, err)
		return
	}

	out, err := h.dispatcher.Deliver(ctx, room, sender, frame.Message.String())
	if err != nil {
		log.Error().Err(err).Str("room_id", room.ID.String()).Msg("deliver message")
		if errors.Is(err, ws.ErrDeliveryFailed) && out != nil {
			// Сообщение сохранено, до подписчиков не дошло
			c.JSON(http.StatusAccepted, out)
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save message"})
		return
	}

	c.JSON(http.StatusCreated, out)
}

// MarkRead отмечает прочитанными сообщения собеседника
func (h *HTTPMessageHandler) MarkRead(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	room := h.loadRoomForMember(c, userID)
	if room == nil {
		return
	}

	updated, err := h.db.MarkRoomRead(c.Request.Context(), room.ID.String(), userID)
	if err != nil {
		log.Error().Err(err).Msg("mark room read")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark messages read"})
		return
	}

	c.JSON(http.StatusOK, dto.ReadResponse{Updated: updated})
}
