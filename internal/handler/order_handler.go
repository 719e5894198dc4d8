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

// OrderHandler handles purchase order endpoints, including the review
// workflow and spreadsheet import/export.
type OrderHandler struct {
	service       *service.OrderService
	sheets        *service.OrderSheetService
	metrics       *service.MetricsService
	maxUploadSize int64
}

// NewOrderHandler constructs an order handler.
func NewOrderHandler(svc *service.OrderService, sheets *service.OrderSheetService, metrics *service.MetricsService, maxUploadSize int64) *OrderHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = 5 * 1024 * 1024
	}
	return &OrderHandler{service: svc, sheets: sheets, metrics: metrics, maxUploadSize: maxUploadSize}
}

func orderFilterFromQuery(c *gin.Context) models.OrderFilter {
	var filter models.OrderFilter
	filter.Status = strings.TrimSpace(c.Query("status"))
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Month = strings.TrimSpace(c.Query("month"))
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
// @Summary List orders
// @Tags Orders
// @Produce json
// @Param status query string false "Filter by status (pending, approved, rejected)"
// @Param month query string false "Filter by month (YYYY-MM)"
// @Param search query string false "Search keyword"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	orders, pagination, err := h.service.List(c.Request.Context(), orderFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, orders, pagination)
}

// Get godoc
// @Summary Get order by id
// @Tags Orders
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} response.Envelope
// @Router /orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	order, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, order, nil)
}

// Create godoc
// @Summary Create order
// @Tags Orders
// @Accept json
// @Produce json
// @Param payload body dto.OrderRequest true "Order payload"
// @Success 201 {object} response.Envelope
// @Router /orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	order, err := h.service.Create(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, order)
}

// Update godoc
// @Summary Update order
// @Description Approved orders are immutable; rejected orders may be edited and resubmitted.
// @Tags Orders
// @Accept json
// @Produce json
// @Param id path int true "Order ID"
// @Param payload body dto.OrderRequest true "Order payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /orders/{id} [put]
func (h *OrderHandler) Update(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	order, err := h.service.Update(c.Request.Context(), id, req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, order, nil)
}

// Delete godoc
// @Summary Delete order
// @Description Only pending orders may be deleted.
// @Tags Orders
// @Produce json
// @Param id path int true "Order ID"
// @Success 204
// @Failure 412 {object} response.Envelope
// @Router /orders/{id} [delete]
func (h *OrderHandler) Delete(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id, actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Approve godoc
// @Summary Approve order
// @Description Approves a pending or rejected order. Approval is terminal.
// @Tags Orders
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /orders/{id}/approve [post]
func (h *OrderHandler) Approve(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	order, err := h.service.Approve(c.Request.Context(), id, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordOrderReview(string(models.ApprovalStatusApproved))
	response.JSON(c, http.StatusOK, order, nil)
}

// Reject godoc
// @Summary Reject order
// @Description Rejects a pending order with a mandatory reason.
// @Tags Orders
// @Accept json
// @Produce json
// @Param id path int true "Order ID"
// @Param payload body dto.RejectOrderRequest true "Rejection reason"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /orders/{id}/reject [post]
func (h *OrderHandler) Reject(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.RejectOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	order, err := h.service.Reject(c.Request.Context(), id, req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordOrderReview(string(models.ApprovalStatusRejected))
	response.JSON(c, http.StatusOK, order, nil)
}

// BulkApprove godoc
// @Summary Approve multiple orders
// @Description All-or-nothing: fails if any order is missing or already reviewed.
// @Tags Orders
// @Accept json
// @Produce json
// @Param payload body dto.BulkOrderRequest true "Order IDs"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /orders/bulk-approve [post]
func (h *OrderHandler) BulkApprove(c *gin.Context) {
	var req dto.BulkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.service.BulkApprove(c.Request.Context(), req, actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	for range req.OrderIDs {
		h.metrics.RecordOrderReview(string(models.ApprovalStatusApproved))
	}
	response.JSON(c, http.StatusOK, gin.H{"approved": len(req.OrderIDs)}, nil)
}

// BulkReject godoc
// @Summary Reject multiple orders
// @Description All-or-nothing: fails if any order is missing or already reviewed.
// @Tags Orders
// @Accept json
// @Produce json
// @Param payload body dto.BulkRejectRequest true "Order IDs and reason"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /orders/bulk-reject [post]
func (h *OrderHandler) BulkReject(c *gin.Context) {
	var req dto.BulkRejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.service.BulkReject(c.Request.Context(), req, actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	for range req.OrderIDs {
		h.metrics.RecordOrderReview(string(models.ApprovalStatusRejected))
	}
	response.JSON(c, http.StatusOK, gin.H{"rejected": len(req.OrderIDs)}, nil)
}

// BulkDelete godoc
// @Summary Delete multiple orders
// @Description All-or-nothing: fails if any order is already reviewed.
// @Tags Orders
// @Accept json
// @Produce json
// @Param payload body dto.BulkOrderRequest true "Order IDs"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /orders/bulk-delete [post]
func (h *OrderHandler) BulkDelete(c *gin.Context) {
	var req dto.BulkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	deleted, err := h.service.BulkDelete(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": deleted}, nil)
}

// Import godoc
// @Summary Import orders from xlsx
// @Description Uploads a workbook; the whole file is rejected when any row is invalid.
// @Tags Orders
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "xlsx workbook"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /orders/upload [post]
func (h *OrderHandler) Import(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize)

	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	if file.Size > h.maxUploadSize {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file exceeds the upload size limit"))
		return
	}

	src, err := file.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read uploaded file"))
		return
	}
	defer src.Close() //nolint:errcheck

	result, err := h.sheets.Import(c.Request.Context(), src, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if len(result.RowErrors) > 0 {
		response.JSON(c, http.StatusUnprocessableEntity, result, nil)
		return
	}
	response.Created(c, result)
}

// Template godoc
// @Summary Download the import template
// @Tags Orders
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200
// @Router /orders/template [get]
func (h *OrderHandler) Template(c *gin.Context) {
	file, err := h.sheets.Template()
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Payload)
}

// Export godoc
// @Summary Export orders
// @Tags Orders
// @Produce json
// @Param format query string false "xlsx, csv or pdf (default xlsx)"
// @Param status query string false "Filter by status"
// @Param month query string false "Filter by month (YYYY-MM)"
// @Param search query string false "Search keyword"
// @Success 200
// @Router /orders/export [get]
func (h *OrderHandler) Export(c *gin.Context) {
	format := strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", service.ExportFormatXLSX)))
	filter := orderFilterFromQuery(c)

	file, err := h.sheets.Export(c.Request.Context(), filter, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Payload)
}
