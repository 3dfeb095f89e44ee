package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/thereayou/dma-chat/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const connectAttempts = 10

// Connect подключается к Postgres с ретраями, пока контейнер поднимается
func Connect(dsn string) (*Database, error) {
	if dsn == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	var lastErr error
	for i := 0; i < connectAttempts; i++ {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
		if err == nil {
			sqlDB, err := db.DB()
			if err == nil {
				sqlDB.SetMaxIdleConns(5)
				sqlDB.SetMaxOpenConns(20)
				sqlDB.SetConnMaxLifetime(time.Hour)
				return &Database{db: db}, nil
			}
			lastErr = err
		} else {
			lastErr = err
		}
		log.Warn().Err(lastErr).Int("attempt", i+1).Msg("postgres not ready")
		time.Sleep(time.Duration(500+i*200) * time.Millisecond)
	}
	return nil, fmt.Errorf("connect postgres: %w", lastErr)
}

func (d *Database) Migrate() error {
	return d.db.AutoMigrate(&models.User{}, &models.ChatRoom{}, &models.Message{})
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
