package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lovableswim/swim-api/internal/middleware"
	"github.com/lovableswim/swim-api/internal/models"
	"github.com/lovableswim/swim-api/internal/service"
	"github.com/lovableswim/swim-api/pkg/response"
)

// ClassTypeHandler exposes the class type catalogue.
type ClassTypeHandler struct {
	service *service.ClassTypeService
}

// NewClassTypeHandler constructs a class type handler.
func NewClassTypeHandler(svc *service.ClassTypeService) *ClassTypeHandler {
	return &ClassTypeHandler{service: svc}
}

// List godoc
// @Summary List class types
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /class-types [get]
func (h *ClassTypeHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get class type
// @Tags Catalog
// @Produce json
// @Param id path string true "Class type ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /class-types/{id} [get]
func (h *ClassTypeHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Create class type
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body models.ClassType true "Class type"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /class-types [post]
func (h *ClassTypeHandler) Create(c *gin.Context) {
	var req models.ClassType
	if !bindJSON(c, &req, "invalid class type payload") {
		return
	}
	item, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update class type
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Class type ID"
// @Param payload body models.ClassType true "Class type"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /class-types/{id} [put]
func (h *ClassTypeHandler) Update(c *gin.Context) {
	var req models.ClassType
	if !bindJSON(c, &req, "invalid class type payload") {
		return
	}
	item, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete class type
// @Description Deletes the class type and its sessions, refunding enrolled clients
// @Tags Catalog
// @Param id path string true "Class type ID"
// @Success 204 {object} response.Envelope
// @Router /class-types/{id} [delete]
func (h *ClassTypeHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// PackageHandler exposes credit packages.
type PackageHandler struct {
	service *service.PackageService
}

// NewPackageHandler constructs a package handler.
func NewPackageHandler(svc *service.PackageService) *PackageHandler {
	return &PackageHandler{service: svc}
}

// List godoc
// @Summary List packages
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /packages [get]
func (h *PackageHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get package
// @Tags Catalog
// @Produce json
// @Param id path string true "Package ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /packages/{id} [get]
func (h *PackageHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Create package
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body models.Package true "Package"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /packages [post]
func (h *PackageHandler) Create(c *gin.Context) {
	var req models.Package
	if !bindJSON(c, &req, "invalid package payload") {
		return
	}
	item, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update package
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Package ID"
// @Param payload body models.Package true "Package"
// @Success 200 {object} response.Envelope
// @Router /packages/{id} [put]
func (h *PackageHandler) Update(c *gin.Context) {
	var req models.Package
	if !bindJSON(c, &req, "invalid package payload") {
		return
	}
	item, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete package
// @Tags Catalog
// @Param id path string true "Package ID"
// @Success 204 {object} response.Envelope
// @Router /packages/{id} [delete]
func (h *PackageHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
