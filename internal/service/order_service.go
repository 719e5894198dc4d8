package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/baljuhq/balju-api/internal/dto"
	"github.com/baljuhq/balju-api/internal/models"
	"github.com/baljuhq/balju-api/internal/repository"
	appErrors "github.com/baljuhq/balju-api/pkg/errors"
)

const dashboardCachePattern = "dashboard:*"

type orderRepository interface {
	List(ctx context.Context, filter models.OrderFilter) ([]models.OrderDetail, int, error)
	FindByID(ctx context.Context, id int64) (*models.OrderDetail, error)
	Create(ctx context.Context, order *models.Order) error
	Update(ctx context.Context, order *models.Order) error
	Approve(ctx context.Context, id int64, reviewer string, reviewedAt time.Time) error
	Reject(ctx context.Context, id int64, reviewer, reason string, reviewedAt time.Time) error
	BulkReview(ctx context.Context, ids []int64, status models.ApprovalStatus, reviewer string, reason *string, reviewedAt time.Time) error
	BulkDelete(ctx context.Context, ids []int64) (int64, error)
	Delete(ctx context.Context, id int64) error
	CreateBatch(ctx context.Context, orders []models.Order) error
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type cacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// Actor identifies the authenticated user performing an operation, for audit
// and review attribution.
type Actor struct {
	UserID    string
	Name      string
	IP        string
	UserAgent string
}

// ReviewerName returns the display name stored on reviewed orders, falling
// back to the user id when the token carries no name.
func (a Actor) ReviewerName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.UserID
}

// OrderService provides purchase order use cases, including the review
// workflow.
type OrderService struct {
	orders    orderRepository
	suppliers supplierRepository
	items     itemRepository
	units     unitRepository
	audit     auditRecorder
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewOrderService constructs an OrderService instance.
func NewOrderService(
	orders orderRepository,
	suppliers supplierRepository,
	items itemRepository,
	units unitRepository,
	audit auditRecorder,
	cache cacheInvalidator,
	validate *validator.Validate,
	logger *zap.Logger,
) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &OrderService{
		orders:    orders,
		suppliers: suppliers,
		items:     items,
		units:     units,
		audit:     audit,
		cache:     cache,
		validator: validate,
		logger:    logger,
	}
}

// List returns orders with their reference names and pagination metadata.
func (s *OrderService) List(ctx context.Context, filter models.OrderFilter) ([]models.OrderDetail, *models.Pagination, error) {
	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list orders")
	}
	if orders == nil {
		orders = []models.OrderDetail{}
	}
	return orders, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a single order with reference names.
func (s *OrderService) Get(ctx context.Context, id int64) (*models.OrderDetail, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "order not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load order")
	}
	return order, nil
}

// Create stores a new order. References must exist and the stored total is
// recomputed from price and quantity.
func (s *OrderService) Create(ctx context.Context, req dto.OrderRequest, actor Actor) (*models.OrderDetail, error) {
	order, err := s.buildOrder(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create order")
	}

	s.invalidateDashboard(ctx)
	return s.Get(ctx, order.ID)
}

// Update modifies an order. Approved orders are immutable.
func (s *OrderService) Update(ctx context.Context, id int64, req dto.OrderRequest, actor Actor) (*models.OrderDetail, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.ApprovalStatus != nil && *existing.ApprovalStatus == models.ApprovalStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrAlreadyReviewed, "approved orders cannot be modified")
	}

	order, err := s.buildOrder(ctx, req)
	if err != nil {
		return nil, err
	}
	order.ID = id
	order.CreatedAt = existing.CreatedAt

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update order")
	}

	s.invalidateDashboard(ctx)
	return s.Get(ctx, id)
}

// Approve marks an order approved. Pending and rejected orders qualify;
// re-approving a rejected order clears its rejection reason.
func (s *OrderService) Approve(ctx context.Context, id int64, actor Actor) (*models.OrderDetail, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	if err := s.orders.Approve(ctx, id, actor.ReviewerName(), time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrAlreadyReviewed, "order is already approved")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve order")
	}

	s.emitAudit(ctx, actor, models.AuditActionOrderApprove, id, nil)
	s.invalidateDashboard(ctx)
	return s.Get(ctx, id)
}

// Reject marks a pending order rejected. The reason is mandatory.
func (s *OrderService) Reject(ctx context.Context, id int64, req dto.RejectOrderRequest, actor Actor) (*models.OrderDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "rejection reason is required")
	}

	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	if err := s.orders.Reject(ctx, id, actor.ReviewerName(), req.Reason, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrAlreadyReviewed, "order is already reviewed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject order")
	}

	s.emitAudit(ctx, actor, models.AuditActionOrderReject, id, map[string]string{"reason": req.Reason})
	s.invalidateDashboard(ctx)
	return s.Get(ctx, id)
}

// BulkApprove approves a batch atomically. Any already reviewed or missing
// order refuses the whole batch.
func (s *OrderService) BulkApprove(ctx context.Context, req dto.BulkOrderRequest, actor Actor) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk approve payload")
	}

	err := s.orders.BulkReview(ctx, req.OrderIDs, models.ApprovalStatusApproved, actor.ReviewerName(), nil, time.Now().UTC())
	if err != nil {
		return s.mapBulkReviewError(err, "bulk approve")
	}

	for _, id := range req.OrderIDs {
		s.emitAudit(ctx, actor, models.AuditActionOrderApprove, id, nil)
	}
	s.invalidateDashboard(ctx)
	return nil
}

// BulkReject rejects a batch atomically with a shared reason.
func (s *OrderService) BulkReject(ctx context.Context, req dto.BulkRejectRequest, actor Actor) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk reject payload")
	}

	reason := req.Reason
	err := s.orders.BulkReview(ctx, req.OrderIDs, models.ApprovalStatusRejected, actor.ReviewerName(), &reason, time.Now().UTC())
	if err != nil {
		return s.mapBulkReviewError(err, "bulk reject")
	}

	for _, id := range req.OrderIDs {
		s.emitAudit(ctx, actor, models.AuditActionOrderReject, id, map[string]string{"reason": reason})
	}
	s.invalidateDashboard(ctx)
	return nil
}

// BulkDelete removes a batch of pending orders atomically.
func (s *OrderService) BulkDelete(ctx context.Context, req dto.BulkOrderRequest, actor Actor) (int64, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk delete payload")
	}

	deleted, err := s.orders.BulkDelete(ctx, req.OrderIDs)
	if err != nil {
		return 0, s.mapBulkReviewError(err, "bulk delete")
	}

	for _, id := range req.OrderIDs {
		s.emitAudit(ctx, actor, models.AuditActionOrderDelete, id, nil)
	}
	s.invalidateDashboard(ctx)
	return deleted, nil
}

// Delete removes a single pending order.
func (s *OrderService) Delete(ctx context.Context, id int64, actor Actor) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing.Reviewed() {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "reviewed orders cannot be deleted")
	}

	if err := s.orders.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "reviewed orders cannot be deleted")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete order")
	}

	s.emitAudit(ctx, actor, models.AuditActionOrderDelete, id, nil)
	s.invalidateDashboard(ctx)
	return nil
}

func (s *OrderService) buildOrder(ctx context.Context, req dto.OrderRequest) (*models.Order, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid order payload")
	}

	orderDate, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must use the YYYY-MM-DD format")
	}

	if _, err := s.suppliers.FindByID(ctx, req.SupplierID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("supplier %d not found", req.SupplierID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check supplier")
	}
	if _, err := s.items.FindByID(ctx, req.ItemID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("item %d not found", req.ItemID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check item")
	}
	if _, err := s.units.FindByID(ctx, req.UnitID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("unit %d not found", req.UnitID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check unit")
	}

	return &models.Order{
		OrderDate:     &orderDate,
		SupplierID:    req.SupplierID,
		ItemID:        req.ItemID,
		UnitID:        req.UnitID,
		Quantity:      req.Quantity,
		Price:         req.Price,
		Total:         req.Price * req.Quantity,
		PaymentCycle:  req.PaymentCycle,
		PaymentMethod: req.PaymentMethod,
		Client:        req.Client,
		Notes:         req.Notes,
	}, nil
}

func (s *OrderService) mapBulkReviewError(err error, op string) error {
	var reviewedErr *repository.ReviewedOrdersError
	if errors.As(err, &reviewedErr) {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("orders already reviewed: %v", reviewedErr.IDs))
	}
	var missingErr *repository.MissingOrdersError
	if errors.As(err, &missingErr) {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("orders not found: %v", missingErr.IDs))
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to "+op+" orders")
}

func (s *OrderService) emitAudit(ctx context.Context, actor Actor, action string, orderID int64, details map[string]string) {
	if s.audit == nil {
		return
	}
	resourceID := strconv.FormatInt(orderID, 10)
	var newValues []byte
	if details != nil {
		newValues, _ = json.Marshal(details)
	}
	entry := &models.AuditLog{
		Action:     action,
		Resource:   "orders",
		ResourceID: &resourceID,
		NewValues:  newValues,
		IPAddress:  actor.IP,
		UserAgent:  actor.UserAgent,
	}
	if actor.UserID != "" {
		userID := actor.UserID
		entry.UserID = &userID
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record order audit log", zap.Error(err))
	}
}

func (s *OrderService) invalidateDashboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, dashboardCachePattern); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}
