// Package mocks содержит testify-моки интерфейсов services для тестов.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/thereayou/dma-chat/internal/models"
)

type Store struct {
	mock.Mock
}

func (m *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *Store) TouchLastSeen(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *Store) GetChatRoom(ctx context.Context, id string) (*models.ChatRoom, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatRoom), args.Error(1)
}

func (m *Store) FindChatRoom(ctx context.Context, userA, userB uuid.UUID) (*models.ChatRoom, error) {
	args := m.Called(ctx, userA, userB)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatRoom), args.Error(1)
}

func (m *Store) GetOrCreateChatRoom(ctx context.Context, userA, userB uuid.UUID) (*models.ChatRoom, bool, error) {
	args := m.Called(ctx, userA, userB)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.ChatRoom), args.Bool(1), args.Error(2)
}

func (m *Store) ListChatRooms(ctx context.Context, userID uuid.UUID) ([]models.ChatRoom, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChatRoom), args.Error(1)
}

// SaveMessage эмулирует заполнение ID и CreatedAt базой, если их не выставил Run.
func (m *Store) SaveMessage(ctx context.Context, msg *models.Message) error {
	args := m.Called(ctx, msg)
	if err := args.Error(0); err != nil {
		return err
	}
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	return nil
}

func (m *Store) ListMessages(ctx context.Context, roomID string, limit int, beforeID *uuid.UUID) ([]models.Message, error) {
	args := m.Called(ctx, roomID, limit, beforeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *Store) MarkRoomRead(ctx context.Context, roomID string, readerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, roomID, readerID)
	return args.Get(0).(int64), args.Error(1)
}

type Blacklist struct {
	mock.Mock
}

func (m *Blacklist) IsRevoked(ctx context.Context, token string) (bool, error) {
	args := m.Called(ctx, token)
	return args.Bool(0), args.Error(1)
}

func (m *Blacklist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	args := m.Called(ctx, token, ttl)
	return args.Error(0)
}
