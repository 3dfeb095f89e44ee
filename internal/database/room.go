package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/thereayou/dma-chat/internal/models"
	"github.com/thereayou/dma-chat/internal/services"
	"gorm.io/gorm/clause"
)

func (d *Database) GetChatRoom(ctx context.Context, id string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := d.db.WithContext(ctx).First(&room, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &room, nil
}

// FindChatRoom ищет комнату пары в обоих порядках: старые записи могли
// сохраниться не в каноническом виде
func (d *Database) FindChatRoom(ctx context.Context, userA, userB uuid.UUID) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := d.db.WithContext(ctx).
		Where("(user1_id = ? AND user2_id = ?) OR (user1_id = ? AND user2_id = ?)", userA, userB, userB, userA).
		First(&room).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &room, nil
}

// GetOrCreateChatRoom возвращает комнату пары, создавая её при первом обращении.
// Второе значение true, если комната создана этим вызовом.
func (d *Database) GetOrCreateChatRoom(ctx context.Context, userA, userB uuid.UUID) (*models.ChatRoom, bool, error) {
	if userA == userB {
		return nil, false, services.ErrSameParticipant
	}

	room, err := d.FindChatRoom(ctx, userA, userB)
	if err == nil {
		return room, false, nil
	}
	if !errors.Is(err, services.ErrNotFound) {
		return nil, false, err
	}

	first, second := models.CanonicalPair(userA, userB)
	created := models.ChatRoom{User1ID: first, User2ID: second}

	// Параллельный запрос мог создать ту же пару: уникальный индекс + DO NOTHING
	res := d.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user1_id"}, {Name: "user2_id"}},
			DoNothing: true,
		}).
		Omit(clause.Associations).
		Create(&created)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 1 {
		return &created, true, nil
	}

	room, err = d.FindChatRoom(ctx, userA, userB)
	if err != nil {
		return nil, false, err
	}
	return room, false, nil
}

// ListChatRooms возвращает комнаты пользователя, новые первыми
func (d *Database) ListChatRooms(ctx context.Context, userID uuid.UUID) ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom
	err := d.db.WithContext(ctx).
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Order("created_at DESC").
		Preload("User1").
		Preload("User2").
		Find(&rooms).Error
	if err != nil {
		return nil, err
	}
	return rooms, nil
}
