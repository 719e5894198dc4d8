package handler

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalmiddleware "github.com/baljuhq/balju-api/internal/middleware"
	"github.com/baljuhq/balju-api/internal/models"
	"github.com/baljuhq/balju-api/internal/service"
)

type stubOrderRepo struct {
	orders map[int64]*models.Order
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: map[int64]*models.Order{}}
}

func (r *stubOrderRepo) seed(id int64, status *models.ApprovalStatus) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	r.orders[id] = &models.Order{
		ID: id, OrderDate: &date,
		SupplierID: 1, ItemID: 1, UnitID: 1,
		Quantity: 2, Price: 1500, Total: 3000,
		ApprovalStatus: status,
	}
}

func (r *stubOrderRepo) List(ctx context.Context, filter models.OrderFilter) ([]models.OrderDetail, int, error) {
	var out []models.OrderDetail
	for _, o := range r.orders {
		out = append(out, models.OrderDetail{Order: *o})
	}
	return out, len(out), nil
}

func (r *stubOrderRepo) FindByID(ctx context.Context, id int64) (*models.OrderDetail, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.OrderDetail{Order: *o, SupplierName: "s", ItemName: "i", UnitName: "u"}, nil
}

func (r *stubOrderRepo) Create(ctx context.Context, order *models.Order) error {
	order.ID = int64(len(r.orders) + 1)
	copied := *order
	r.orders[order.ID] = &copied
	return nil
}

func (r *stubOrderRepo) Update(ctx context.Context, order *models.Order) error { return nil }

func (r *stubOrderRepo) Approve(ctx context.Context, id int64, reviewer string, reviewedAt time.Time) error {
	o, ok := r.orders[id]
	if !ok {
		return sql.ErrNoRows
	}
	if o.ApprovalStatus != nil && *o.ApprovalStatus == models.ApprovalStatusApproved {
		return sql.ErrNoRows
	}
	approved := models.ApprovalStatusApproved
	o.ApprovalStatus = &approved
	o.ApprovedBy = &reviewer
	o.RejectionReason = nil
	return nil
}

func (r *stubOrderRepo) Reject(ctx context.Context, id int64, reviewer, reason string, reviewedAt time.Time) error {
	o, ok := r.orders[id]
	if !ok || o.ApprovalStatus != nil {
		return sql.ErrNoRows
	}
	rejected := models.ApprovalStatusRejected
	o.ApprovalStatus = &rejected
	o.ApprovedBy = &reviewer
	o.RejectionReason = &reason
	return nil
}

func (r *stubOrderRepo) BulkReview(ctx context.Context, ids []int64, status models.ApprovalStatus, reviewer string, reason *string, reviewedAt time.Time) error {
	return nil
}

func (r *stubOrderRepo) BulkDelete(ctx context.Context, ids []int64) (int64, error) {
	return int64(len(ids)), nil
}

func (r *stubOrderRepo) Delete(ctx context.Context, id int64) error { return nil }

func (r *stubOrderRepo) CreateBatch(ctx context.Context, orders []models.Order) error { return nil }

type noopAudit struct{}

func (noopAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error { return nil }

type noopCache struct{}

func (noopCache) DeleteByPattern(ctx context.Context, pattern string) error { return nil }

func newOrderTestRouter(repo *stubOrderRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	orderSvc := service.NewOrderService(repo, nil, nil, nil, noopAudit{}, noopCache{}, nil, nil)
	h := NewOrderHandler(orderSvc, nil, service.NewMetricsService(), 0)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if role := c.GetHeader("X-Test-Role"); role != "" {
			c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{UserID: "reviewer-1", FullName: "Kim Reviewer", Role: models.UserRole(role)})
		}
		c.Next()
	})
	reviewers := internalmiddleware.RequireRoles(models.RoleReviewer, models.RoleAdmin)
	r.GET("/orders/:id", h.Get)
	r.POST("/orders/:id/approve", reviewers, h.Approve)
	r.POST("/orders/:id/reject", reviewers, h.Reject)
	return r
}

func TestOrderHandlerApproveForbiddenForStaff(t *testing.T) {
	repo := newStubOrderRepo()
	repo.seed(1, nil)
	router := newOrderTestRouter(repo)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders/1/approve", nil)
	req.Header.Set("X-Test-Role", string(models.RoleStaff))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOrderHandlerApproveSuccess(t *testing.T) {
	repo := newStubOrderRepo()
	repo.seed(1, nil)
	router := newOrderTestRouter(repo)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders/1/approve", nil)
	req.Header.Set("X-Test-Role", string(models.RoleReviewer))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"approval_status":"approved"`)
}

func TestOrderHandlerApproveStoresReviewerFullName(t *testing.T) {
	repo := newStubOrderRepo()
	repo.seed(1, nil)
	router := newOrderTestRouter(repo)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders/1/approve", nil)
	req.Header.Set("X-Test-Role", string(models.RoleReviewer))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, repo.orders[1].ApprovedBy)
	assert.Equal(t, "Kim Reviewer", *repo.orders[1].ApprovedBy)
}

func TestOrderHandlerApproveConflictWhenApproved(t *testing.T) {
	approved := models.ApprovalStatusApproved
	repo := newStubOrderRepo()
	repo.seed(1, &approved)
	router := newOrderTestRouter(repo)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders/1/approve", nil)
	req.Header.Set("X-Test-Role", string(models.RoleAdmin))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "ALREADY_REVIEWED")
}

func TestOrderHandlerRejectRequiresReason(t *testing.T) {
	repo := newStubOrderRepo()
	repo.seed(1, nil)
	router := newOrderTestRouter(repo)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders/1/reject", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-Role", string(models.RoleReviewer))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderHandlerRejectSuccess(t *testing.T) {
	repo := newStubOrderRepo()
	repo.seed(1, nil)
	router := newOrderTestRouter(repo)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders/1/reject", bytes.NewBufferString(`{"reason":"price too high"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-Role", string(models.RoleReviewer))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rejection_reason":"price too high"`)
}

func TestOrderHandlerGetInvalidID(t *testing.T) {
	router := newOrderTestRouter(newStubOrderRepo())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/orders/abc", nil)
	req.Header.Set("X-Test-Role", string(models.RoleStaff))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderHandlerGetNotFound(t *testing.T) {
	router := newOrderTestRouter(newStubOrderRepo())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/orders/99", nil)
	req.Header.Set("X-Test-Role", string(models.RoleStaff))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
