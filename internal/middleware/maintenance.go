package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lovableswim/swim-api/internal/models"
	appErrors "github.com/lovableswim/swim-api/pkg/errors"
	"github.com/lovableswim/swim-api/pkg/response"
)

// MaintenanceChecker reports whether the system is in maintenance mode.
type MaintenanceChecker interface {
	MaintenanceMode(ctx context.Context) bool
}

// Maintenance rejects writes from non-admins while maintenance mode is on.
// Reads stay available. It must run after JWT or OptionalJWT so admins can
// be recognised.
func Maintenance(checker MaintenanceChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		if claims := Claims(c); claims != nil && claims.Role == models.RoleAdmin {
			c.Next()
			return
		}
		if checker.MaintenanceMode(c.Request.Context()) {
			response.Error(c, appErrors.ErrMaintenanceMode)
			c.Abort()
			return
		}
		c.Next()
	}
}
