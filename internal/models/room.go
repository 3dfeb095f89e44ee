package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatRoom - личный диалог ровно двух пользователей.
// Пара хранится в каноническом порядке, см. CanonicalPair.
type ChatRoom struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	User1ID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_chat_room_pair,priority:1"`
	User2ID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_chat_room_pair,priority:2;index"`
	CreatedAt time.Time `gorm:"index"`

	// Связи
	User1 User `gorm:"foreignKey:User1ID"`
	User2 User `gorm:"foreignKey:User2ID"`
}

func (r *ChatRoom) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// CanonicalPair упорядочивает пару так, чтобы одни и те же два пользователя
// всегда попадали в одну строку (User1ID, User2ID)
func CanonicalPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() > b.String() {
		return b, a
	}
	return a, b
}

func (r *ChatRoom) HasParticipant(userID uuid.UUID) bool {
	return r.User1ID == userID || r.User2ID == userID
}

// Peer возвращает собеседника или uuid.Nil, если userID не участник комнаты
func (r *ChatRoom) Peer(userID uuid.UUID) uuid.UUID {
	switch userID {
	case r.User1ID:
		return r.User2ID
	case r.User2ID:
		return r.User1ID
	}
	return uuid.Nil
}
