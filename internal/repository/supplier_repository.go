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

// ReferencedRowsError signals that reference rows are still used by orders.
type ReferencedRowsError struct {
	Count int
}

func (e *ReferencedRowsError) Error() string {
	return fmt.Sprintf("rows referenced by %d orders", e.Count)
}

// SupplierRepository handles persistence for suppliers.
type SupplierRepository struct {
	db *sqlx.DB
}

// NewSupplierRepository creates a new repository instance.
func NewSupplierRepository(db *sqlx.DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

// List returns suppliers matching filters with pagination metadata.
func (r *SupplierRepository) List(ctx context.Context, filter models.ReferenceFilter) ([]models.Supplier, int, error) {
	base := "FROM suppliers WHERE 1=1"
	var args []interface{}

	if filter.Search != "" {
		base += fmt.Sprintf(" AND (LOWER(name) LIKE $%d OR LOWER(COALESCE(contact, '')) LIKE $%d)", len(args)+1, len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"name":       true,
		"created_at": true,
		"updated_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "name"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
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

	query := fmt.Sprintf("SELECT id, name, contact, address, created_at, updated_at %s ORDER BY %s %s LIMIT %d OFFSET %d", base, sortBy, order, size, offset)
	var suppliers []models.Supplier
	if err := r.db.SelectContext(ctx, &suppliers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list suppliers: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count suppliers: %w", err)
	}

	return suppliers, total, nil
}

// FindByID returns a supplier by id.
func (r *SupplierRepository) FindByID(ctx context.Context, id int64) (*models.Supplier, error) {
	const query = `SELECT id, name, contact, address, created_at, updated_at FROM suppliers WHERE id = $1`
	var supplier models.Supplier
	if err := r.db.GetContext(ctx, &supplier, query, id); err != nil {
		return nil, err
	}
	return &supplier, nil
}

// FindByName returns a supplier by exact name, case-insensitive.
func (r *SupplierRepository) FindByName(ctx context.Context, name string) (*models.Supplier, error) {
	const query = `SELECT id, name, contact, address, created_at, updated_at FROM suppliers WHERE LOWER(name) = LOWER($1)`
	var supplier models.Supplier
	if err := r.db.GetContext(ctx, &supplier, query, name); err != nil {
		return nil, err
	}
	return &supplier, nil
}

// ExistsByName checks uniqueness of supplier name.
func (r *SupplierRepository) ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error) {
	query := "SELECT 1 FROM suppliers WHERE LOWER(name) = LOWER($1)"
	args := []interface{}{name}
	if excludeID > 0 {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}

	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check supplier name: %w", err)
	}
	return true, nil
}

// Create persists a new supplier.
func (r *SupplierRepository) Create(ctx context.Context, supplier *models.Supplier) error {
	const query = `INSERT INTO suppliers (name, contact, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4) RETURNING id, created_at, updated_at`
	now := time.Now().UTC()
	row := r.db.QueryRowxContext(ctx, query, supplier.Name, supplier.Contact, supplier.Address, now)
	if err := row.Scan(&supplier.ID, &supplier.CreatedAt, &supplier.UpdatedAt); err != nil {
		return fmt.Errorf("create supplier: %w", err)
	}
	return nil
}

// Update modifies a supplier.
func (r *SupplierRepository) Update(ctx context.Context, supplier *models.Supplier) error {
	supplier.UpdatedAt = time.Now().UTC()
	const query = `UPDATE suppliers SET name = :name, contact = :contact, address = :address,
		updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, supplier); err != nil {
		return fmt.Errorf("update supplier: %w", err)
	}
	return nil
}

// Delete removes a supplier record.
func (r *SupplierRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM suppliers WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete supplier: %w", err)
	}
	return nil
}

// CountOrders returns the number of orders referencing the supplier.
func (r *SupplierRepository) CountOrders(ctx context.Context, id int64) (int, error) {
	const query = `SELECT COUNT(*) FROM orders WHERE supplier_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count supplier orders: %w", err)
	}
	return count, nil
}

// BulkDelete removes suppliers atomically, refusing when any is still
// referenced by orders.
func (r *SupplierRepository) BulkDelete(ctx context.Context, ids []int64) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin supplier bulk delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var referenced int
	if err := tx.GetContext(ctx, &referenced, `SELECT COUNT(*) FROM orders WHERE supplier_id = ANY($1)`, pq.Array(ids)); err != nil {
		return 0, fmt.Errorf("check supplier references: %w", err)
	}
	if referenced > 0 {
		return 0, &ReferencedRowsError{Count: referenced}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM suppliers WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("bulk delete suppliers: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("bulk delete suppliers: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit supplier bulk delete: %w", err)
	}
	return deleted, nil
}
