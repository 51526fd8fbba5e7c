package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lovableswim/swim-api/internal/middleware"
	"github.com/lovableswim/swim-api/internal/models"
	"github.com/lovableswim/swim-api/internal/service"
	"github.com/lovableswim/swim-api/pkg/response"
)

// ProgressHandler serves the skills catalogue and student progress.
type ProgressHandler struct {
	service *service.ProgressService
}

// NewProgressHandler constructs a progress handler.
func NewProgressHandler(svc *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{service: svc}
}

// Skills godoc
// @Summary List skills
// @Tags Progress
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /skills [get]
func (h *ProgressHandler) Skills(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Skills(), nil)
}

// List godoc
// @Summary Student progress
// @Description Every skill with its status; skills never touched read Not Started
// @Tags Progress
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/progress [get]
func (h *ProgressHandler) List(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	studentID, ok := actingFor(c, claims, c.Param("id"))
	if !ok {
		return
	}

	progress, err := h.service.List(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil, middleware.ExtractMeta(c))
}

// Update godoc
// @Summary Update student progress
// @Tags Progress
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body models.UpdateProgressRequest true "Progress"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students/{id}/progress [put]
func (h *ProgressHandler) Update(c *gin.Context) {
	var req models.UpdateProgressRequest
	if !bindJSON(c, &req, "invalid progress payload") {
		return
	}

	progress, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}
