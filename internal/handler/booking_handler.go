package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lovableswim/swim-api/internal/booking"
	"github.com/lovableswim/swim-api/internal/service"
	"github.com/lovableswim/swim-api/pkg/response"
)

type bookingService interface {
	Start(ctx context.Context, userID string) (*booking.Draft, error)
	Get(ctx context.Context, userID, draftID string) (*booking.Draft, error)
	SelectClass(ctx context.Context, userID, draftID, classTypeID string) (*booking.Draft, error)
	SelectSession(ctx context.Context, userID, draftID, sessionID string) (*booking.Draft, error)
	SelectPackage(ctx context.Context, userID, draftID string, req service.SelectPackageRequest) (*booking.Draft, error)
	Back(ctx context.Context, userID, draftID string) (*booking.Draft, error)
	Cancel(ctx context.Context, userID, draftID string) error
	Confirm(ctx context.Context, userID, draftID string) (*booking.Result, error)
}

// BookingHandler drives the booking wizard for the signed-in client.
type BookingHandler struct {
	service bookingService
}

// NewBookingHandler constructs a booking handler.
func NewBookingHandler(svc bookingService) *BookingHandler {
	return &BookingHandler{service: svc}
}

type selectClassRequest struct {
	ClassTypeID string `json:"class_type_id" binding:"required"`
}

type selectSessionRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

func (h *BookingHandler) respond(c *gin.Context, draft *booking.Draft, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, draft, nil)
}

// Start godoc
// @Summary Start booking
// @Tags Booking
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /bookings [post]
func (h *BookingHandler) Start(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	draft, err := h.service.Start(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, draft)
}

// Get godoc
// @Summary Get booking draft
// @Tags Booking
// @Produce json
// @Param id path string true "Draft ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /bookings/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	draft, err := h.service.Get(c.Request.Context(), claims.UserID, c.Param("id"))
	h.respond(c, draft, err)
}

// SelectClass godoc
// @Summary Choose class type
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param payload body selectClassRequest true "Class type"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /bookings/{id}/class [post]
func (h *BookingHandler) SelectClass(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req selectClassRequest
	if !bindJSON(c, &req, "invalid class selection") {
		return
	}
	draft, err := h.service.SelectClass(c.Request.Context(), claims.UserID, c.Param("id"), req.ClassTypeID)
	h.respond(c, draft, err)
}

// SelectSession godoc
// @Summary Choose session
// @Description Clients with credits skip package selection
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param payload body selectSessionRequest true "Session"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /bookings/{id}/session [post]
func (h *BookingHandler) SelectSession(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req selectSessionRequest
	if !bindJSON(c, &req, "invalid session selection") {
		return
	}
	draft, err := h.service.SelectSession(c.Request.Context(), claims.UserID, c.Param("id"), req.SessionID)
	h.respond(c, draft, err)
}

// SelectPackage godoc
// @Summary Choose payment
// @Description Buy a package or pay for this lesson only
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param payload body service.SelectPackageRequest true "Payment choice"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /bookings/{id}/package [post]
func (h *BookingHandler) SelectPackage(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req service.SelectPackageRequest
	if !bindJSON(c, &req, "invalid package selection") {
		return
	}
	draft, err := h.service.SelectPackage(c.Request.Context(), claims.UserID, c.Param("id"), req)
	h.respond(c, draft, err)
}

// Back godoc
// @Summary Step back
// @Tags Booking
// @Produce json
// @Param id path string true "Draft ID"
// @Success 200 {object} response.Envelope
// @Router /bookings/{id}/back [post]
func (h *BookingHandler) Back(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	draft, err := h.service.Back(c.Request.Context(), claims.UserID, c.Param("id"))
	h.respond(c, draft, err)
}

// Confirm godoc
// @Summary Confirm booking
// @Description Commits purchase and enrollment together. On failure the draft stays at CONFIRM with last_error set.
// @Tags Booking
// @Produce json
// @Param id path string true "Draft ID"
// @Success 200 {object} response.Envelope
// @Failure 402 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /bookings/{id}/confirm [post]
func (h *BookingHandler) Confirm(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	result, err := h.service.Confirm(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Cancel godoc
// @Summary Abandon booking
// @Tags Booking
// @Param id path string true "Draft ID"
// @Success 204 {object} response.Envelope
// @Router /bookings/{id} [delete]
func (h *BookingHandler) Cancel(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	if err := h.service.Cancel(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
