package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/thereayou/dma-chat/internal/models"
)

// SaveMessage всегда добавляет новую строку, без дедупликации
func (d *Database) SaveMessage(ctx context.Context, message *models.Message) error {
	return d.db.WithContext(ctx).Omit("Sender", "ChatRoom").Create(message).Error
}

// ListMessages получает сообщения комнаты с пагинацией
func (d *Database) ListMessages(ctx context.Context, roomID string, limit int, beforeID *uuid.UUID) ([]models.Message, error) {
	var messages []models.Message

	query := d.db.WithContext(ctx).Where("chat_room_id = ?", roomID)

	// Если указан beforeID, получаем сообщения до него.
	// Курсор должен быть сообщением этой же комнаты.
	if beforeID != nil {
		var beforeMsg models.Message
		err := d.db.WithContext(ctx).
			Where("id = ? AND chat_room_id = ?", beforeID, roomID).
			First(&beforeMsg).Error
		if err != nil {
			return nil, notFound(err)
		}
		query = query.Where("created_at < ?", beforeMsg.CreatedAt)
	}

	err := query.
		Order("created_at DESC").
		Limit(limit).
		Preload("Sender").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// Разворачиваем порядок, чтобы старые сообщения были первыми
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// MarkRoomRead помечает прочитанными сообщения собеседника
func (d *Database) MarkRoomRead(ctx context.Context, roomID string, readerID uuid.UUID) (int64, error) {
	res := d.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("chat_room_id = ? AND sender_id <> ? AND is_read = ?", roomID, readerID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}
