package services

import (
	"context"
	"time"
)

// TokenBlacklist хранит отозванные токены до истечения их срока
type TokenBlacklist interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
	Revoke(ctx context.Context, token string, ttl time.Duration) error
}
