package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/thereayou/dma-chat/internal/middleware"
	"github.com/thereayou/dma-chat/internal/services"
	"github.com/thereayou/dma-chat/pkg/auth"
)

// AuthHandler - выход из системы. Токены выдаёт сервис аккаунтов.
type AuthHandler struct {
	jwtManager *auth.JWTManager
	blacklist  services.TokenBlacklist
}

// NewAuthHandler: blacklist может быть nil, если Redis не настроен
func NewAuthHandler(jwtMgr *auth.JWTManager, blacklist services.TokenBlacklist) *AuthHandler {
	return &AuthHandler{jwtManager: jwtMgr, blacklist: blacklist}
}

// Logout ставит токен в черный список в Redis до истечения
func (h *AuthHandler) Logout(c *gin.Context) {
	if h.blacklist == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "logout is not available"})
		return
	}

	rawToken := c.GetString(middleware.TokenKey)
	if rawToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
		return
	}

	exp, err := h.jwtManager.Expiry(rawToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	if err := h.blacklist.Revoke(c.Request.Context(), rawToken, time.Until(exp)); err != nil {
		log.Error().Err(err).Msg("revoke token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not revoke token"})
		return
	}

	c.Status(http.StatusOK)
}
