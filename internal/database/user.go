package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/dma-chat/internal/models"
)

func (d *Database) GetUser(ctx context.Context, id string) (*models.User, error) {
	user := models.User{}
	if err := d.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (d *Database) TouchLastSeen(ctx context.Context, id uuid.UUID) error {
	return d.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("last_seen_at", time.Now()).Error
}
