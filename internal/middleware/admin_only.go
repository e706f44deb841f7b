// admin_only.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shipment-orchestrator/internal/logger"
)

// AdminOnly va después de AuthMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.IsAdmin() {
			l := logger.FromContext(c.Request.Context())
			if user != nil {
				l = l.With(zap.Strings("permissions", user.Permissions))
			}
			l.Warn("Acceso admin denegado")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin privileges required"})
			return
		}
		c.Next()
	}
}
