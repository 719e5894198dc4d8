package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/baljuhq/balju-api/internal/dto"
	"github.com/baljuhq/balju-api/internal/models"
	"github.com/baljuhq/balju-api/internal/service"
	appErrors "github.com/baljuhq/balju-api/pkg/errors"
	"github.com/baljuhq/balju-api/pkg/response"
)

// SupplierHandler handles supplier endpoints.
type SupplierHandler struct {
	service *service.SupplierService
}

// NewSupplierHandler constructs a supplier handler.
func NewSupplierHandler(svc *service.SupplierService) *SupplierHandler {
	return &SupplierHandler{service: svc}
}

func referenceFilterFromQuery(c *gin.Context) models.ReferenceFilter {
	var filter models.ReferenceFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = limit
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")
	return filter
}

// List godoc
// @Summary List suppliers
// @Tags Suppliers
// @Produce json
// @Param search query string false "Search keyword"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /suppliers [get]
func (h *SupplierHandler) List(c *gin.Context) {
	suppliers, pagination, err := h.service.List(c.Request.Context(), referenceFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, suppliers, pagination)
}

// Get godoc
// @Summary Get supplier by id
// @Tags Suppliers
// @Produce json
// @Param id path int true "Supplier ID"
// @Success 200 {object} response.Envelope
// @Router /suppliers/{id} [get]
func (h *SupplierHandler) Get(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	supplier, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, supplier, nil)
}

// Create godoc
// @Summary Create supplier
// @Tags Suppliers
// @Accept json
// @Produce json
// @Param payload body dto.SupplierRequest true "Supplier payload"
// @Success 201 {object} response.Envelope
// @Router /suppliers [post]
func (h *SupplierHandler) Create(c *gin.Context) {
	var req dto.SupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	supplier, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, supplier)
}

// Update godoc
// @Summary Update supplier
// @Tags Suppliers
// @Accept json
// @Produce json
// @Param id path int true "Supplier ID"
// @Param payload body dto.SupplierRequest true "Supplier payload"
// @Success 200 {object} response.Envelope
// @Router /suppliers/{id} [put]
func (h *SupplierHandler) Update(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.SupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	supplier, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, supplier, nil)
}

// Delete godoc
// @Summary Delete supplier
// @Tags Suppliers
// @Produce json
// @Param id path int true "Supplier ID"
// @Success 204
// @Router /suppliers/{id} [delete]
func (h *SupplierHandler) Delete(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// BulkDelete godoc
// @Summary Delete multiple suppliers
// @Tags Suppliers
// @Accept json
// @Produce json
// @Param payload body dto.BulkIDRequest true "Supplier IDs"
// @Success 200 {object} response.Envelope
// @Router /suppliers/bulk-delete [post]
func (h *SupplierHandler) BulkDelete(c *gin.Context) {
	var req dto.BulkIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	deleted, err := h.service.BulkDelete(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": deleted}, nil)
}
