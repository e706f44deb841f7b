// auth_middleware.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shipment-orchestrator/internal/logger"
	"shipment-orchestrator/internal/service"
)

// UserKey clave del *service.AuthUser en el gin.Context.
const UserKey = "user"

type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*service.AuthUser, error)
}

// Middleware que valida el token y guarda la info del usuario en el contexto
func AuthMiddleware(auth TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		user, err := auth.ValidateToken(c.Request.Context(), token)
		if err != nil {
			logger.FromContext(c.Request.Context()).Info("Token rechazado", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		// El token se reenvía al servicio de órdenes
		c.Set("token", token)
		c.Set(UserKey, user)
		c.Request = c.Request.WithContext(logger.WithUser(c.Request.Context(), user.ID))
		c.Next()
	}
}

// CurrentUser devuelve el usuario que dejó AuthMiddleware, o nil.
func CurrentUser(c *gin.Context) *service.AuthUser {
	user, _ := c.Get(UserKey)
	u, _ := user.(*service.AuthUser)
	return u
}
