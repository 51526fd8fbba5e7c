package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lovableswim/swim-api/internal/middleware"
	"github.com/lovableswim/swim-api/internal/models"
	"github.com/lovableswim/swim-api/internal/service"
	appErrors "github.com/lovableswim/swim-api/pkg/errors"
	"github.com/lovableswim/swim-api/pkg/response"
)

// SessionHandler exposes the lesson schedule and enrollment endpoints.
type SessionHandler struct {
	schedule   *service.ScheduleService
	enrollment *service.EnrollmentService
}

// NewSessionHandler constructs a session handler.
func NewSessionHandler(schedule *service.ScheduleService, enrollment *service.EnrollmentService) *SessionHandler {
	return &SessionHandler{schedule: schedule, enrollment: enrollment}
}

type capacityRequest struct {
	Capacity int `json:"capacity" binding:"required"`
}

func sessionFilter(c *gin.Context) (models.SessionFilter, bool) {
	filter := models.SessionFilter{
		ClassTypeID:  c.Query("class_type_id"),
		InstructorID: c.Query("instructor_id"),
		UserID:       c.Query("user_id"),
	}
	if open := c.Query("open"); open != "" {
		val, err := strconv.ParseBool(open)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid open parameter"))
			return filter, false
		}
		filter.OnlyOpen = val
	}
	var ok bool
	if filter.From, ok = parseTimeQuery(c, "from"); !ok {
		return filter, false
	}
	if filter.To, ok = parseTimeQuery(c, "to"); !ok {
		return filter, false
	}
	return filter, true
}

// List godoc
// @Summary List sessions
// @Tags Sessions
// @Produce json
// @Param class_type_id query string false "Class type filter"
// @Param instructor_id query string false "Instructor filter"
// @Param user_id query string false "Enrolled client filter"
// @Param open query bool false "Only sessions with free seats"
// @Param from query string false "Earliest start (RFC3339 or date)"
// @Param to query string false "Latest start (RFC3339 or date)"
// @Success 200 {object} response.Envelope
// @Router /sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	filter, ok := sessionFilter(c)
	if !ok {
		return
	}
	sessions, err := h.schedule.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, nil, middleware.ExtractMeta(c))
}

// Upcoming godoc
// @Summary List upcoming sessions
// @Description Sessions that have not started yet; full sessions are hidden unless open=false
// @Tags Sessions
// @Produce json
// @Param class_type_id query string false "Class type filter"
// @Param open query bool false "Hide full sessions (default true)"
// @Success 200 {object} response.Envelope
// @Router /sessions/upcoming [get]
func (h *SessionHandler) Upcoming(c *gin.Context) {
	filter, ok := sessionFilter(c)
	if !ok {
		return
	}
	openOnly := c.Query("open") != "false"
	sessions, err := h.schedule.Upcoming(c.Request.Context(), filter, openOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, nil, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get session
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sessions/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	session, err := h.schedule.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Create godoc
// @Summary Schedule session
// @Description Schedules one session, or a weekly series when weeks > 1. A time outside availability returns INSTRUCTOR_UNAVAILABLE unless override is set.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body models.CreateSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	var req models.CreateSessionRequest
	if !bindJSON(c, &req, "invalid session payload") {
		return
	}

	if req.Weeks > 1 {
		sessions, err := h.schedule.CreateRecurring(c.Request.Context(), req)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Created(c, sessions)
		return
	}

	session, err := h.schedule.CreateSession(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// UpdateCapacity godoc
// @Summary Change session capacity
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body capacityRequest true "Capacity"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /sessions/{id}/capacity [patch]
func (h *SessionHandler) UpdateCapacity(c *gin.Context) {
	var req capacityRequest
	if !bindJSON(c, &req, "invalid capacity payload") {
		return
	}
	session, err := h.schedule.UpdateCapacity(c.Request.Context(), c.Param("id"), req.Capacity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Delete godoc
// @Summary Cancel session
// @Description Deletes the session and refunds every enrolled client
// @Tags Sessions
// @Param id path string true "Session ID"
// @Success 204 {object} response.Envelope
// @Router /sessions/{id} [delete]
func (h *SessionHandler) Delete(c *gin.Context) {
	if err := h.schedule.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Enroll godoc
// @Summary Enroll in session
// @Description Debits one credit and reserves a seat. Staff may enroll a client by user_id.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body models.EnrollRequest false "Enroll payload"
// @Success 200 {object} response.Envelope
// @Failure 402 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sessions/{id}/enroll [post]
func (h *SessionHandler) Enroll(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}

	var req models.EnrollRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req, "invalid enroll payload") {
		return
	}
	userID, ok := actingFor(c, claims, req.UserID)
	if !ok {
		return
	}

	session, err := h.enrollment.Enroll(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// CancelEnrollment godoc
// @Summary Cancel enrollment
// @Description Releases the seat and refunds one credit. Clients must cancel before the cancellation window closes; staff are exempt.
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Param user_id query string false "Client to unenroll (staff only)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sessions/{id}/enroll [delete]
func (h *SessionHandler) CancelEnrollment(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	userID, ok := actingFor(c, claims, c.Query("user_id"))
	if !ok {
		return
	}

	enforceWindow := !middleware.IsStaff(claims.Role)
	session, err := h.enrollment.Cancel(c.Request.Context(), c.Param("id"), userID, enforceWindow)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}
