package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/baljuhq/balju-api/internal/models"
)

func newOrderRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func orderDetailRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "order_date", "supplier_id", "item_id", "unit_id",
		"quantity", "price", "total", "payment_cycle", "payment_method", "client", "notes",
		"approval_status", "approved_by", "approved_at", "rejection_reason",
		"created_at", "updated_at", "supplier_name", "item_name", "unit_name",
	})
}

func TestOrderRepositoryListPendingFilter(t *testing.T) {
	db, mock, cleanup := newOrderRepoMock(t)
	defer cleanup()

	repo := NewOrderRepository(db)
	now := time.Now()
	rows := orderDetailRows().
		AddRow(int64(1), now, int64(10), int64(20), int64(30),
			2.0, 1500.0, 3000.0, "monthly", "card", "acme", nil,
			nil, nil, nil, nil, now, now, "Fresh Farms", "Onion", "kg")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT o.id, o.order_date")).WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM orders o")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	orders, total, err := repo.List(context.Background(), models.OrderFilter{Status: models.ReviewFilterPending})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, orders, 1)
	require.Equal(t, "Fresh Farms", orders[0].SupplierName)
	require.Nil(t, orders[0].ApprovalStatus)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepositoryCreateReturnsID(t *testing.T) {
	db, mock, cleanup := newOrderRepoMock(t)
	defer cleanup()

	repo := NewOrderRepository(db)
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO orders")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(42), now, now))

	order := &models.Order{
		SupplierID: 10, ItemID: 20, UnitID: 30,
		Quantity: 3, Price: 500, Total: 1500,
		PaymentCycle: "monthly", PaymentMethod: "transfer", Client: "acme",
	}
	require.NoError(t, repo.Create(context.Background(), order))
	require.Equal(t, int64(42), order.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepositoryApproveTransitions(t *testing.T) {
	db, mock, cleanup := newOrderRepoMock(t)
	defer cleanup()

	repo := NewOrderRepository(db)
	reviewedAt := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET approval_status = 'approved'")).
		WithArgs(int64(1), "user-1", reviewedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Approve(context.Background(), 1, "user-1", reviewedAt))

	// Already approved: the conditional update matches no row.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET approval_status = 'approved'")).
		WithArgs(int64(1), "user-2", reviewedAt).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Approve(context.Background(), 1, "user-2", reviewedAt)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepositoryRejectOnlyPending(t *testing.T) {
	db, mock, cleanup := newOrderRepoMock(t)
	defer cleanup()

	repo := NewOrderRepository(db)
	reviewedAt := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET approval_status = 'rejected'")).
		WithArgs(int64(5), "user-1", reviewedAt, "price mismatch").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Reject(context.Background(), 5, "user-1", "price mismatch", reviewedAt))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET approval_status = 'rejected'")).
		WithArgs(int64(5), "user-1", reviewedAt, "again").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Reject(context.Background(), 5, "user-1", "again", reviewedAt)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepositoryBulkReviewAllPending(t *testing.T) {
	db, mock, cleanup := newOrderRepoMock(t)
	defer cleanup()

	repo := NewOrderRepository(db)
	ids := []int64{1, 2}
	reviewedAt := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, approval_status FROM orders WHERE id = ANY($1) FOR UPDATE")).
		WithArgs(pq.Array(ids)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "approval_status"}).
			AddRow(int64(1), nil).
			AddRow(int64(2), nil))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET approval_status = $2")).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := repo.BulkReview(context.Background(), ids, models.ApprovalStatusApproved, "user-1", nil, reviewedAt)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepositoryBulkReviewRefusesReviewed(t *testing.T) {
	db, mock, cleanup := newOrderRepoMock(t)
	defer cleanup()

	repo := NewOrderRepository(db)
	ids := []int64{1, 2}
	approved := "approved"

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, approval_status FROM orders WHERE id = ANY($1) FOR UPDATE")).
		WithArgs(pq.Array(ids)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "approval_status"}).
			AddRow(int64(1), nil).
			AddRow(int64(2), approved))
	mock.ExpectRollback()

	err := repo.BulkReview(context.Background(), ids, models.ApprovalStatusApproved, "user-1", nil, time.Now())
	var reviewedErr *ReviewedOrdersError
	require.ErrorAs(t, err, &reviewedErr)
	require.Equal(t, []int64{2}, reviewedErr.IDs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepositoryBulkReviewMissingOrders(t *testing.T) {
	db, mock, cleanup := newOrderRepoMock(t)
	defer cleanup()

	repo := NewOrderRepository(db)
	ids := []int64{1, 99}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, approval_status FROM orders WHERE id = ANY($1) FOR UPDATE")).
		WithArgs(pq.Array(ids)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "approval_status"}).
			AddRow(int64(1), nil))
	mock.ExpectRollback()

	err := repo.BulkReview(context.Background(), ids, models.ApprovalStatusRejected, "user-1", nil, time.Now())
	var missingErr *MissingOrdersError
	require.ErrorAs(t, err, &missingErr)
	require.Equal(t, []int64{99}, missingErr.IDs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepositoryBulkDeleteRefusesReviewed(t *testing.T) {
	db, mock, cleanup := newOrderRepoMock(t)
	defer cleanup()

	repo := NewOrderRepository(db)
	ids := []int64{3, 4}
	rejected := "rejected"

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, approval_status FROM orders WHERE id = ANY($1) FOR UPDATE")).
		WithArgs(pq.Array(ids)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "approval_status"}).
			AddRow(int64(3), rejected).
			AddRow(int64(4), nil))
	mock.ExpectRollback()

	_, err := repo.BulkDelete(context.Background(), ids)
	var reviewedErr *ReviewedOrdersError
	require.ErrorAs(t, err, &reviewedErr)
	require.Equal(t, []int64{3}, reviewedErr.IDs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepositoryDeleteRefusesReviewed(t *testing.T) {
	db, mock, cleanup := newOrderRepoMock(t)
	defer cleanup()

	repo := NewOrderRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM orders WHERE id = $1 AND approval_status IS NULL")).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 7)
	require.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepositoryStats(t *testing.T) {
	db, mock, cleanup := newOrderRepoMock(t)
	defer cleanup()

	repo := NewOrderRepository(db)
	rows := sqlmock.NewRows([]string{"total_orders", "pending_orders", "approved_orders", "rejected_orders", "total_amount"}).
		AddRow(10, 4, 5, 1, 123456.0)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) AS total_orders")).WillReturnRows(rows)

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 10, stats.TotalOrders)
	require.Equal(t, 4, stats.PendingOrders)
	require.Equal(t, 123456.0, stats.TotalAmount)
	require.NoError(t, mock.ExpectationsWereMet())
}
