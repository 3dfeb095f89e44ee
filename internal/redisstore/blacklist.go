package redisstore

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/thereayou/dma-chat/internal/services"
)

const blacklistPrefix = "blacklist:"

// Blacklist хранит отозванные токены ключами blacklist:<token> до истечения срока
type Blacklist struct {
	rdb *redis.Client
}

var _ services.TokenBlacklist = (*Blacklist)(nil)

func NewBlacklist(rdb *redis.Client) *Blacklist {
	return &Blacklist{rdb: rdb}
}

func (b *Blacklist) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := b.rdb.Exists(ctx, blacklistPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Revoke ничего не делает для уже истёкшего токена
func (b *Blacklist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return b.rdb.Set(ctx, blacklistPrefix+token, 1, ttl).Err()
}
