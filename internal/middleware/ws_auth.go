package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/thereayou/dma-chat/internal/models"
	"github.com/thereayou/dma-chat/internal/services"
	"github.com/thereayou/dma-chat/pkg/auth"
)

const IdentityKey = "identity"

// Gateway определяет пользователя realtime-соединения по токену
type Gateway struct {
	jwt       *auth.JWTManager
	users     services.UserStore
	blacklist services.TokenBlacklist
}

func NewGateway(jwtManager *auth.JWTManager, users services.UserStore, blacklist services.TokenBlacklist) *Gateway {
	return &Gateway{jwt: jwtManager, users: users, blacklist: blacklist}
}

// Resolve возвращает пользователя или nil. Ошибок наружу не отдаёт:
// отсутствующий, отозванный, просроченный или битый токен - это аноним.
func (g *Gateway) Resolve(ctx context.Context, token string) *models.User {
	if token == "" {
		return nil
	}

	if g.blacklist != nil {
		revoked, err := g.blacklist.IsRevoked(ctx, token)
		if err != nil {
			log.Warn().Err(err).Msg("blacklist lookup failed, treating connection as anonymous")
			return nil
		}
		if revoked {
			return nil
		}
	}

	claims, err := g.jwt.Verify(token)
	if err != nil {
		log.Debug().Err(err).Msg("websocket token rejected")
		return nil
	}
	userID, err := claims.Identity()
	if err != nil {
		return nil
	}

	user, err := g.users.GetUser(ctx, userID.String())
	if err != nil {
		log.Debug().Err(err).Str("user_id", userID.String()).Msg("websocket user not resolved")
		return nil
	}
	return user
}

// WSAuthMiddleware специальный middleware для WebSocket: только определяет
// личность, решение об отказе принимает обработчик
func WSAuthMiddleware(gw *Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := gw.Resolve(c.Request.Context(), c.Query("token")); user != nil {
			c.Set(IdentityKey, user)
		}
		c.Next()
	}
}

// CurrentIdentity возвращает пользователя, выставленного WSAuthMiddleware, или nil
func CurrentIdentity(c *gin.Context) *models.User {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
