package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/thereayou/dma-chat/internal/handlers/dto"
	"github.com/thereayou/dma-chat/internal/middleware"
	"github.com/thereayou/dma-chat/internal/models"
	"github.com/thereayou/dma-chat/internal/services"
)

type RoomHandler struct {
	db services.DatabaseService
}

func NewRoomHandler(db services.DatabaseService) *RoomHandler {
	return &RoomHandler{db: db}
}

// ListRooms - диалоги текущего пользователя, новые первыми
func (h *RoomHandler) ListRooms(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	rooms, err := h.db.ListChatRooms(c.Request.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("list chat rooms")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get chats"})
		return
	}

	result := make([]dto.ChatRoomResponse, len(rooms))
	for i := range rooms {
		result[i] = dto.NewChatRoomResponse(&rooms[i], userID)
	}

	c.JSON(http.StatusOK, gin.H{"chats": result})
}

// CreateDirectRoom создает или получает комнату между двумя пользователями
func (h *RoomHandler) CreateDirectRoom(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	targetUserID, err := uuid.Parse(c.Param("user2_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	if targetUserID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot create chat with yourself"})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.db.GetUser(ctx, targetUserID.String()); err != nil {
		respondUserError(c, err)
		return
	}

	room, created, err := h.db.GetOrCreateChatRoom(ctx, userID, targetUserID)
	if err != nil {
		if errors.Is(err, services.ErrSameParticipant) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot create chat with yourself"})
			return
		}
		log.Error().Err(err).Msg("get or create chat room")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create chat"})
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		log.Info().Str("room_id", room.ID.String()).Msg("chat room created")
	}
	c.JSON(status, gin.H{"id": room.ID, "created": created})
}

// loadRoomForMember возвращает комнату, если текущий пользователь её участник.
// Иначе отвечает клиенту сам и возвращает nil.
func (h *RoomHandler) loadRoomForMember(c *gin.Context, userID uuid.UUID) *models.ChatRoom {
	roomID, err := uuid.Parse(c.Param("room_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return nil
	}

	room, err := h.db.GetChatRoom(c.Request.Context(), roomID.String())
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "chat room not found"})
			return nil
		}
		log.Error().Err(err).Msg("load chat room")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chat room"})
		return nil
	}

	if !room.HasParticipant(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "you are not a participant of this chat room"})
		return nil
	}
	return room
}
