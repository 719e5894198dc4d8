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

// UnitRepository handles persistence for measurement units.
type UnitRepository struct {
	db *sqlx.DB
}

// NewUnitRepository creates a new repository instance.
func NewUnitRepository(db *sqlx.DB) *UnitRepository {
	return &UnitRepository{db: db}
}

// List returns units matching filters with pagination metadata.
func (r *UnitRepository) List(ctx context.Context, filter models.ReferenceFilter) ([]models.Unit, int, error) {
	base := "FROM units WHERE 1=1"
	var args []interface{}

	if filter.Search != "" {
		base += fmt.Sprintf(" AND LOWER(name) LIKE $%d", len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	sortBy := filter.SortBy
	if sortBy != "name" && sortBy != "created_at" {
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

	query := fmt.Sprintf("SELECT id, name, description, created_at, updated_at %s ORDER BY %s %s LIMIT %d OFFSET %d", base, sortBy, order, size, offset)
	var units []models.Unit
	if err := r.db.SelectContext(ctx, &units, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list units: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count units: %w", err)
	}

	return units, total, nil
}

// FindByID returns a unit by id.
func (r *UnitRepository) FindByID(ctx context.Context, id int64) (*models.Unit, error) {
	const query = `SELECT id, name, description, created_at, updated_at FROM units WHERE id = $1`
	var unit models.Unit
	if err := r.db.GetContext(ctx, &unit, query, id); err != nil {
		return nil, err
	}
	return &unit, nil
}

// FindByName returns a unit by exact name, case-insensitive.
func (r *UnitRepository) FindByName(ctx context.Context, name string) (*models.Unit, error) {
	const query = `SELECT id, name, description, created_at, updated_at FROM units WHERE LOWER(name) = LOWER($1)`
	var unit models.Unit
	if err := r.db.GetContext(ctx, &unit, query, name); err != nil {
		return nil, err
	}
	return &unit, nil
}

// ExistsByName checks uniqueness of unit name.
func (r *UnitRepository) ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error) {
	query := "SELECT 1 FROM units WHERE LOWER(name) = LOWER($1)"
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
		return false, fmt.Errorf("check unit name: %w", err)
	}
	return true, nil
}

// Create persists a new unit.
func (r *UnitRepository) Create(ctx context.Context, unit *models.Unit) error {
	const query = `INSERT INTO units (name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $3) RETURNING id, created_at, updated_at`
	now := time.Now().UTC()
	row := r.db.QueryRowxContext(ctx, query, unit.Name, unit.Description, now)
	if err := row.Scan(&unit.ID, &unit.CreatedAt, &unit.UpdatedAt); err != nil {
		return fmt.Errorf("create unit: %w", err)
	}
	return nil
}

// Update modifies a unit.
func (r *UnitRepository) Update(ctx context.Context, unit *models.Unit) error {
	unit.UpdatedAt = time.Now().UTC()
	const query = `UPDATE units SET name = :name, description = :description,
		updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, unit); err != nil {
		return fmt.Errorf("update unit: %w", err)
	}
	return nil
}

// Delete removes a unit record.
func (r *UnitRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM units WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete unit: %w", err)
	}
	return nil
}

// CountOrders returns the number of orders referencing the unit.
func (r *UnitRepository) CountOrders(ctx context.Context, id int64) (int, error) {
	const query = `SELECT COUNT(*) FROM orders WHERE unit_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count unit orders: %w", err)
	}
	return count, nil
}

// BulkDelete removes units atomically, refusing when any is referenced.
func (r *UnitRepository) BulkDelete(ctx context.Context, ids []int64) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin unit bulk delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var referenced int
	if err := tx.GetContext(ctx, &referenced, `SELECT COUNT(*) FROM orders WHERE unit_id = ANY($1)`, pq.Array(ids)); err != nil {
		return 0, fmt.Errorf("check unit references: %w", err)
	}
	if referenced > 0 {
		return 0, &ReferencedRowsError{Count: referenced}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM units WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("bulk delete units: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("bulk delete units: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit unit bulk delete: %w", err)
	}
	return deleted, nil
}
