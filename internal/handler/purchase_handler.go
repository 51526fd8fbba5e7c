package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lovableswim/swim-api/internal/middleware"
	"github.com/lovableswim/swim-api/internal/models"
	"github.com/lovableswim/swim-api/internal/service"
	appErrors "github.com/lovableswim/swim-api/pkg/errors"
	"github.com/lovableswim/swim-api/pkg/export"
	"github.com/lovableswim/swim-api/pkg/response"
)

// PurchaseHandler sells packages and serves the financial reports.
type PurchaseHandler struct {
	service *service.PurchaseService
}

// NewPurchaseHandler constructs a purchase handler.
func NewPurchaseHandler(svc *service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{service: svc}
}

// Purchase godoc
// @Summary Buy package
// @Description Records the purchase and adds the package credits. Staff may buy on behalf of a client.
// @Tags Purchases
// @Accept json
// @Produce json
// @Param id path string true "Package ID"
// @Param payload body models.PurchaseRequest false "Purchase payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /packages/{id}/purchase [post]
func (h *PurchaseHandler) Purchase(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req models.PurchaseRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req, "invalid purchase payload") {
		return
	}
	userID, ok := actingFor(c, claims, req.UserID)
	if !ok {
		return
	}

	result, err := h.service.Purchase(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

func (h *PurchaseHandler) filter(c *gin.Context, claims *models.JWTClaims) (models.PurchaseFilter, bool) {
	var filter models.PurchaseFilter
	userID := c.Query("user_id")
	if claims.Role != models.RoleAdmin {
		if userID != "" && userID != claims.UserID {
			response.Error(c, appErrors.ErrForbidden)
			return filter, false
		}
		userID = claims.UserID
	}
	filter.UserID = userID

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
// @Summary List purchases
// @Description Clients see their own purchases; admins may filter by user_id
// @Tags Purchases
// @Produce json
// @Param user_id query string false "Buyer filter (admin)"
// @Param from query string false "Earliest purchase date"
// @Param to query string false "Latest purchase date"
// @Success 200 {object} response.Envelope
// @Router /purchases [get]
func (h *PurchaseHandler) List(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	filter, ok := h.filter(c, claims)
	if !ok {
		return
	}

	purchases, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, purchases, nil, middleware.ExtractMeta(c))
}

// Summary godoc
// @Summary Financial summary
// @Description Monthly revenue and lessons given
// @Tags Reports
// @Produce json
// @Param from query string false "Range start"
// @Param to query string false "Range end"
// @Success 200 {object} response.Envelope
// @Router /reports/financial [get]
func (h *PurchaseHandler) Summary(c *gin.Context) {
	from, ok := parseTimeQuery(c, "from")
	if !ok {
		return
	}
	to, ok := parseTimeQuery(c, "to")
	if !ok {
		return
	}

	summary, err := h.service.FinancialSummary(c.Request.Context(), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Export godoc
// @Summary Export purchases
// @Description Downloads the purchases ledger as CSV or PDF
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Param user_id query string false "Buyer filter"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /reports/purchases/export [get]
func (h *PurchaseHandler) Export(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unsupported export format"))
		return
	}
	filter, ok := h.filter(c, claims)
	if !ok {
		return
	}

	file, err := h.service.Export(c.Request.Context(), filter, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
