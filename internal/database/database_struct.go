package database

import (
	"errors"

	"github.com/thereayou/dma-chat/internal/services"
	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

var _ services.DatabaseService = (*Database)(nil)

// notFound переводит ошибку gorm в services.ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return services.ErrNotFound
	}
	return err
}
