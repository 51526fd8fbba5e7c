package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lovableswim/swim-api/internal/models"
	"github.com/lovableswim/swim-api/internal/service"
	appErrors "github.com/lovableswim/swim-api/pkg/errors"
	"github.com/lovableswim/swim-api/pkg/response"
)

// AvailabilityHandler manages instructor availability and blockouts.
// Instructors manage their own entries; admins manage anyone's.
type AvailabilityHandler struct {
	service *service.AvailabilityService
}

// NewAvailabilityHandler constructs an availability handler.
func NewAvailabilityHandler(svc *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: svc}
}

// ownerFor pins instructors to their own id.
func ownerFor(c *gin.Context, claims *models.JWTClaims, requested string) (string, bool) {
	if claims.Role == models.RoleAdmin {
		return requested, true
	}
	if requested != "" && requested != claims.UserID {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "instructors may only manage their own schedule"))
		return "", false
	}
	return claims.UserID, true
}

// ListAvailability godoc
// @Summary List availability
// @Tags Availability
// @Produce json
// @Param instructor_id query string false "Instructor filter"
// @Success 200 {object} response.Envelope
// @Router /availability [get]
func (h *AvailabilityHandler) ListAvailability(c *gin.Context) {
	items, err := h.service.ListAvailability(c.Request.Context(), c.Query("instructor_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// CreateAvailability godoc
// @Summary Add availability window
// @Tags Availability
// @Accept json
// @Produce json
// @Param payload body models.Availability true "Availability"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /availability [post]
func (h *AvailabilityHandler) CreateAvailability(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req models.Availability
	if !bindJSON(c, &req, "invalid availability payload") {
		return
	}
	owner, ok := ownerFor(c, claims, req.InstructorID)
	if !ok {
		return
	}
	req.InstructorID = owner

	item, err := h.service.CreateAvailability(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// UpdateAvailability godoc
// @Summary Update availability window
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Availability ID"
// @Param payload body models.Availability true "Availability"
// @Success 200 {object} response.Envelope
// @Router /availability/{id} [put]
func (h *AvailabilityHandler) UpdateAvailability(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	current, err := h.service.GetAvailability(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if _, ok := ownerFor(c, claims, current.InstructorID); !ok {
		return
	}
	var req models.Availability
	if !bindJSON(c, &req, "invalid availability payload") {
		return
	}
	req.InstructorID = current.InstructorID

	item, err := h.service.UpdateAvailability(c.Request.Context(), current.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// DeleteAvailability godoc
// @Summary Delete availability window
// @Tags Availability
// @Param id path string true "Availability ID"
// @Success 204 {object} response.Envelope
// @Router /availability/{id} [delete]
func (h *AvailabilityHandler) DeleteAvailability(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	current, err := h.service.GetAvailability(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			response.NoContent(c)
			return
		}
		response.Error(c, err)
		return
	}
	if _, ok := ownerFor(c, claims, current.InstructorID); !ok {
		return
	}
	if err := h.service.DeleteAvailability(c.Request.Context(), current.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListBlockouts godoc
// @Summary List blockouts
// @Tags Availability
// @Produce json
// @Param instructor_id query string false "Instructor filter"
// @Success 200 {object} response.Envelope
// @Router /blockouts [get]
func (h *AvailabilityHandler) ListBlockouts(c *gin.Context) {
	items, err := h.service.ListBlockouts(c.Request.Context(), c.Query("instructor_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// CreateBlockout godoc
// @Summary Add blockout
// @Tags Availability
// @Accept json
// @Produce json
// @Param payload body models.Blockout true "Blockout"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /blockouts [post]
func (h *AvailabilityHandler) CreateBlockout(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req models.Blockout
	if !bindJSON(c, &req, "invalid blockout payload") {
		return
	}
	owner, ok := ownerFor(c, claims, req.InstructorID)
	if !ok {
		return
	}
	req.InstructorID = owner

	item, err := h.service.CreateBlockout(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// UpdateBlockout godoc
// @Summary Update blockout
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Blockout ID"
// @Param payload body models.Blockout true "Blockout"
// @Success 200 {object} response.Envelope
// @Router /blockouts/{id} [put]
func (h *AvailabilityHandler) UpdateBlockout(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	current, err := h.service.GetBlockout(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if _, ok := ownerFor(c, claims, current.InstructorID); !ok {
		return
	}
	var req models.Blockout
	if !bindJSON(c, &req, "invalid blockout payload") {
		return
	}
	req.InstructorID = current.InstructorID

	item, err := h.service.UpdateBlockout(c.Request.Context(), current.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// DeleteBlockout godoc
// @Summary Delete blockout
// @Tags Availability
// @Param id path string true "Blockout ID"
// @Success 204 {object} response.Envelope
// @Router /blockouts/{id} [delete]
func (h *AvailabilityHandler) DeleteBlockout(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	current, err := h.service.GetBlockout(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			response.NoContent(c)
			return
		}
		response.Error(c, err)
		return
	}
	if _, ok := ownerFor(c, claims, current.InstructorID); !ok {
		return
	}
	if err := h.service.DeleteBlockout(c.Request.Context(), current.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
