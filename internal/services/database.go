package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/thereayou/dma-chat/internal/models"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrSameParticipant = errors.New("chat room needs two distinct users")
)

// UserStore - источник личности пользователя.
type UserStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	TouchLastSeen(ctx context.Context, id uuid.UUID) error
}

// ChatStore - хранилище комнат и сообщений.
type ChatStore interface {
	GetChatRoom(ctx context.Context, id string) (*models.ChatRoom, error)
	FindChatRoom(ctx context.Context, userA, userB uuid.UUID) (*models.ChatRoom, error)
	GetOrCreateChatRoom(ctx context.Context, userA, userB uuid.UUID) (*models.ChatRoom, bool, error)
	ListChatRooms(ctx context.Context, userID uuid.UUID) ([]models.ChatRoom, error)

	SaveMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context, roomID string, limit int, beforeID *uuid.UUID) ([]models.Message, error)
	MarkRoomRead(ctx context.Context, roomID string, readerID uuid.UUID) (int64, error)
}

type DatabaseService interface {
	UserStore
	ChatStore
}
