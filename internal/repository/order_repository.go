package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/baljuhq/balju-api/internal/models"
)

const orderDetailColumns = `o.id, o.order_date, o.supplier_id, o.item_id, o.unit_id,
	o.quantity, o.price, o.total, o.payment_cycle, o.payment_method, o.client, o.notes,
	o.approval_status, o.approved_by, o.approved_at, o.rejection_reason,
	o.created_at, o.updated_at,
	s.name AS supplier_name, i.name AS item_name, u.name AS unit_name`

const orderJoins = `FROM orders o
	JOIN suppliers s ON s.id = o.supplier_id
	JOIN items i ON i.id = o.item_id
	JOIN units u ON u.id = o.unit_id`

// ReviewedOrdersError signals that a bulk operation touched orders that were
// already approved or rejected. The whole batch is refused.
type ReviewedOrdersError struct {
	IDs []int64
}

func (e *ReviewedOrdersError) Error() string {
	return fmt.Sprintf("orders already reviewed: %v", e.IDs)
}

// MissingOrdersError signals that a bulk operation referenced unknown orders.
type MissingOrdersError struct {
	IDs []int64
}

func (e *MissingOrdersError) Error() string {
	return fmt.Sprintf("orders not found: %v", e.IDs)
}

// OrderRepository handles persistence for purchase orders.
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository creates a new repository instance.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// List returns orders joined with reference data, with pagination metadata.
func (r *OrderRepository) List(ctx context.Context, filter models.OrderFilter) ([]models.OrderDetail, int, error) {
	base := orderJoins + " WHERE 1=1"
	var conditions []string
	var args []interface{}

	switch filter.Status {
	case models.ReviewFilterApproved:
		conditions = append(conditions, "o.approval_status = 'approved'")
	case models.ReviewFilterRejected:
		conditions = append(conditions, "o.approval_status = 'rejected'")
	case models.ReviewFilterPending:
		conditions = append(conditions, "o.approval_status IS NULL")
	}
	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.name) LIKE $%d OR LOWER(i.name) LIKE $%d OR LOWER(o.client) LIKE $%d)", idx, idx, idx))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.Month != "" {
		conditions = append(conditions, fmt.Sprintf("to_char(o.order_date, 'YYYY-MM') = $%d", len(args)+1))
		args = append(args, filter.Month)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"date":          "o.order_date",
		"total":         "o.total",
		"price":         "o.price",
		"quantity":      "o.quantity",
		"supplier_name": "supplier_name",
		"item_name":     "item_name",
		"created_at":    "o.created_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "o.order_date"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, o.id %s LIMIT %d OFFSET %d",
		orderDetailColumns, base, column, order, order, size, offset)
	var orders []models.OrderDetail
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	return orders, total, nil
}

// FindByID returns a single order with its reference data names.
func (r *OrderRepository) FindByID(ctx context.Context, id int64) (*models.OrderDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE o.id = $1", orderDetailColumns, orderJoins)
	var order models.OrderDetail
	if err := r.db.GetContext(ctx, &order, query, id); err != nil {
		return nil, err
	}
	return &order, nil
}

// Create persists a new order and fills the generated id and timestamps.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	const query = `INSERT INTO orders
		(order_date, supplier_id, item_id, unit_id, quantity, price, total,
		 payment_cycle, payment_method, client, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		RETURNING id, created_at, updated_at`
	now := time.Now().UTC()
	row := r.db.QueryRowxContext(ctx, query,
		order.OrderDate, order.SupplierID, order.ItemID, order.UnitID,
		order.Quantity, order.Price, order.Total,
		order.PaymentCycle, order.PaymentMethod, order.Client, order.Notes, now)
	if err := row.Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt); err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

// Update modifies the descriptive fields of an order. Review fields are only
// touched through the review methods.
func (r *OrderRepository) Update(ctx context.Context, order *models.Order) error {
	order.UpdatedAt = time.Now().UTC()
	const query = `UPDATE orders SET order_date = :order_date, supplier_id = :supplier_id,
		item_id = :item_id, unit_id = :unit_id, quantity = :quantity, price = :price,
		total = :total, payment_cycle = :payment_cycle, payment_method = :payment_method,
		client = :client, notes = :notes, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, order); err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	return nil
}

// Approve marks a single order approved. Only pending and rejected orders
// qualify; the conditional WHERE makes double-approval race-safe. Returns
// sql.ErrNoRows when no transition was possible.
func (r *OrderRepository) Approve(ctx context.Context, id int64, reviewer string, reviewedAt time.Time) error {
	const query = `UPDATE orders SET approval_status = 'approved', approved_by = $2,
		approved_at = $3, rejection_reason = NULL, updated_at = $3
		WHERE id = $1 AND (approval_status IS NULL OR approval_status = 'rejected')`
	res, err := r.db.ExecContext(ctx, query, id, reviewer, reviewedAt)
	if err != nil {
		return fmt.Errorf("approve order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("approve order: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Reject marks a single pending order rejected with the given reason.
// Returns sql.ErrNoRows when the order was not pending.
func (r *OrderRepository) Reject(ctx context.Context, id int64, reviewer, reason string, reviewedAt time.Time) error {
	const query = `UPDATE orders SET approval_status = 'rejected', approved_by = $2,
		approved_at = $3, rejection_reason = $4, updated_at = $3
		WHERE id = $1 AND approval_status IS NULL`
	res, err := r.db.ExecContext(ctx, query, id, reviewer, reviewedAt, reason)
	if err != nil {
		return fmt.Errorf("reject order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reject order: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// BulkReview approves or rejects a batch atomically. Every selected order
// must still be pending; otherwise the transaction rolls back and a
// ReviewedOrdersError lists the offending ids.
func (r *OrderRepository) BulkReview(ctx context.Context, ids []int64, status models.ApprovalStatus, reviewer string, reason *string, reviewedAt time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk review: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	reviewed, missing, err := lockAndClassify(ctx, tx, ids)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return &MissingOrdersError{IDs: missing}
	}
	if len(reviewed) > 0 {
		return &ReviewedOrdersError{IDs: reviewed}
	}

	const query = `UPDATE orders SET approval_status = $2, approved_by = $3,
		approved_at = $4, rejection_reason = $5, updated_at = $4 WHERE id = ANY($1)`
	if _, err := tx.ExecContext(ctx, query, pq.Array(ids), string(status), reviewer, reviewedAt, reason); err != nil {
		return fmt.Errorf("bulk review orders: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk review: %w", err)
	}
	return nil
}

// BulkDelete removes a batch of orders atomically. Any reviewed order in the
// selection refuses the whole batch.
func (r *OrderRepository) BulkDelete(ctx context.Context, ids []int64) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin bulk delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	reviewed, _, err := lockAndClassify(ctx, tx, ids)
	if err != nil {
		return 0, err
	}
	if len(reviewed) > 0 {
		return 0, &ReviewedOrdersError{IDs: reviewed}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("bulk delete orders: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("bulk delete orders: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit bulk delete: %w", err)
	}
	return deleted, nil
}

// Delete removes one order. Reviewed orders are refused.
func (r *OrderRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1 AND approval_status IS NULL`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CreateBatch inserts imported orders inside one transaction.
func (r *OrderRepository) CreateBatch(ctx context.Context, orders []models.Order) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin order batch: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO orders
		(order_date, supplier_id, item_id, unit_id, quantity, price, total,
		 payment_cycle, payment_method, client, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)`
	now := time.Now().UTC()
	for i := range orders {
		o := &orders[i]
		if _, err := tx.ExecContext(ctx, query,
			o.OrderDate, o.SupplierID, o.ItemID, o.UnitID,
			o.Quantity, o.Price, o.Total,
			o.PaymentCycle, o.PaymentMethod, o.Client, o.Notes, now); err != nil {
			return fmt.Errorf("insert imported order: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order batch: %w", err)
	}
	return nil
}

// Stats returns order counts by review state plus the total amount.
func (r *OrderRepository) Stats(ctx context.Context) (*models.OrderStats, error) {
	const query = `SELECT COUNT(*) AS total_orders,
		COUNT(*) FILTER (WHERE approval_status IS NULL) AS pending_orders,
		COUNT(*) FILTER (WHERE approval_status = 'approved') AS approved_orders,
		COUNT(*) FILTER (WHERE approval_status = 'rejected') AS rejected_orders,
		COALESCE(SUM(total), 0) AS total_amount
		FROM orders`
	var stats models.OrderStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	return &stats, nil
}

// MonthlyTotals returns order volume per month, most recent first.
func (r *OrderRepository) MonthlyTotals(ctx context.Context, months int) ([]models.MonthlyTotal, error) {
	if months <= 0 {
		months = 12
	}
	const query = `SELECT to_char(order_date, 'YYYY-MM') AS month,
		COUNT(*) AS order_count, COALESCE(SUM(total), 0) AS amount
		FROM orders WHERE order_date IS NOT NULL
		GROUP BY month ORDER BY month DESC LIMIT $1`
	var totals []models.MonthlyTotal
	if err := r.db.SelectContext(ctx, &totals, query, months); err != nil {
		return nil, fmt.Errorf("monthly totals: %w", err)
	}
	return totals, nil
}

// TopSuppliers returns suppliers ranked by total order amount.
func (r *OrderRepository) TopSuppliers(ctx context.Context, limit int) ([]models.SupplierTotal, error) {
	if limit <= 0 {
		limit = 5
	}
	const query = `SELECT o.supplier_id, s.name AS supplier_name,
		COUNT(*) AS order_count, COALESCE(SUM(o.total), 0) AS amount
		FROM orders o JOIN suppliers s ON s.id = o.supplier_id
		GROUP BY o.supplier_id, s.name ORDER BY amount DESC LIMIT $1`
	var totals []models.SupplierTotal
	if err := r.db.SelectContext(ctx, &totals, query, limit); err != nil {
		return nil, fmt.Errorf("top suppliers: %w", err)
	}
	return totals, nil
}

// lockAndClassify locks the selected rows and splits them into reviewed and
// missing ids. Row locks keep concurrent reviews from interleaving.
func lockAndClassify(ctx context.Context, tx *sqlx.Tx, ids []int64) (reviewed, missing []int64, err error) {
	type statusRow struct {
		ID             int64   `db:"id"`
		ApprovalStatus *string `db:"approval_status"`
	}
	var rows []statusRow
	const query = `SELECT id, approval_status FROM orders WHERE id = ANY($1) FOR UPDATE`
	if err := tx.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, nil, fmt.Errorf("lock orders: %w", err)
	}

	found := make(map[int64]*string, len(rows))
	for _, row := range rows {
		found[row.ID] = row.ApprovalStatus
	}
	for _, id := range ids {
		status, ok := found[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		if status != nil {
			reviewed = append(reviewed, id)
		}
	}
	return reviewed, missing, nil
}
