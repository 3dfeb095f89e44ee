package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Message struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ChatRoomID uuid.UUID `gorm:"type:uuid;not null;index:idx_message_room_created,priority:1"`
	SenderID   uuid.UUID `gorm:"type:uuid;not null"`
	Content    string    `gorm:"type:text;not null"`
	IsRead     bool      `gorm:"not null;default:false"`
	CreatedAt  time.Time `gorm:"index:idx_message_room_created,priority:2"`

	// Связи
	Sender   User     `gorm:"foreignKey:SenderID"`
	ChatRoom ChatRoom `gorm:"foreignKey:ChatRoomID"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
