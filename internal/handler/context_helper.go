package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lovableswim/swim-api/internal/middleware"
	"github.com/lovableswim/swim-api/internal/models"
	appErrors "github.com/lovableswim/swim-api/pkg/errors"
	"github.com/lovableswim/swim-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}

// requireClaims writes 401 and returns nil when the caller is anonymous.
func requireClaims(c *gin.Context) *models.JWTClaims {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
	}
	return claims
}

// actingFor resolves whose account a request operates on. Clients may only
// act for themselves; staff may name any user and default to themselves.
func actingFor(c *gin.Context, claims *models.JWTClaims, requested string) (string, bool) {
	if requested == "" || requested == claims.UserID {
		return claims.UserID, true
	}
	if !middleware.IsStaff(claims.Role) {
		response.Error(c, appErrors.ErrForbidden)
		return "", false
	}
	return requested, true
}

func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

// parseTimeQuery accepts RFC3339 timestamps or plain dates.
func parseTimeQuery(c *gin.Context, key string) (*time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, true
		}
	}
	response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid "+key+" parameter"))
	return nil, false
}
