package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lovableswim/swim-api/internal/middleware"
	"github.com/lovableswim/swim-api/internal/models"
	appErrors "github.com/lovableswim/swim-api/pkg/errors"
	"github.com/lovableswim/swim-api/pkg/response"
)

type dashboardService interface {
	Instructor(ctx context.Context, instructorID string) (*models.InstructorDashboard, error)
	Client(ctx context.Context, userID string) (*models.ClientDashboard, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Client godoc
// @Summary Client portal
// @Description Upcoming and past lessons, purchases and progress of a client
// @Tags Dashboard
// @Produce json
// @Param user_id query string false "Client ID (staff only)"
// @Success 200 {object} response.Envelope
// @Router /dashboard/client [get]
func (h *DashboardHandler) Client(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	userID, ok := actingFor(c, claims, c.Query("user_id"))
	if !ok {
		return
	}

	dashboard, err := h.service.Client(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, nil, middleware.ExtractMeta(c))
}

// Instructor godoc
// @Summary Instructor portal
// @Description Availability, blockouts and taught sessions of an instructor
// @Tags Dashboard
// @Produce json
// @Param instructor_id query string false "Instructor ID (admin only)"
// @Success 200 {object} response.Envelope
// @Router /dashboard/instructor [get]
func (h *DashboardHandler) Instructor(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	instructorID, ok := ownerFor(c, claims, c.Query("instructor_id"))
	if !ok {
		return
	}
	if instructorID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "instructor_id is required"))
		return
	}

	dashboard, err := h.service.Instructor(c.Request.Context(), instructorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, nil, middleware.ExtractMeta(c))
}
