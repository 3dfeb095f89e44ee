package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/dma-chat/internal/models"
)

// UserInfo - публичные данные пользователя
type UserInfo struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	UserType    string    `json:"user_type"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

// UserProfile - данные текущего пользователя
type UserProfile struct {
	UserInfo
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
}

func NewUserInfo(u *models.User) UserInfo {
	return UserInfo{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName(),
		UserType:    u.UserType,
		LastSeenAt:  u.LastSeenAt,
	}
}

func NewUserProfile(u *models.User) UserProfile {
	return UserProfile{
		UserInfo:  NewUserInfo(u),
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt,
	}
}
