package v1

import (
	"net/http"
	"strings"

	"github.com/bonmwang/Ajali-Incident-App/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Ключи контекста gin, устанавливаемые middleware аутентификации.
const (
	ctxUserIDKey   = "auth_user_id"
	ctxUsernameKey = "auth_username"
	ctxTokenKey    = "auth_token"
)

// AuthMiddleware - middleware для аутентификации по сессионному токену
func AuthMiddleware(tokens service.TokenManager, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if token == "" {
			log.Warn("Session token missing from request")
			c.AbortWithStatusJSON(http.StatusUnauthorized, MessageResponse{Message: "Token is missing!"})
			return
		}

		claims, err := tokens.Verify(c.Request.Context(), token)
		if err != nil {
			log.WithError(err).Warn("Rejected request with invalid session token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, MessageResponse{Message: "Token is invalid or expired!"})
			return
		}

		c.Set(ctxUserIDKey, claims.UserID)
		c.Set(ctxUsernameKey, claims.Username)
		c.Set(ctxTokenKey, token)
		c.Next()
	}
}

// userIDFromContext возвращает ID пользователя, установленный middleware
func userIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ctxUserIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// tokenFromContext возвращает исходный токен текущего запроса
func tokenFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxTokenKey)
	if !ok {
		return "", false
	}
	token, ok := v.(string)
	return token, ok
}
