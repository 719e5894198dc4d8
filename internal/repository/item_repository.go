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

// ItemRepository handles persistence for items.
type ItemRepository struct {
	db *sqlx.DB
}

// NewItemRepository creates a new repository instance.
func NewItemRepository(db *sqlx.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// List returns items matching filters with pagination metadata.
func (r *ItemRepository) List(ctx context.Context, filter models.ReferenceFilter) ([]models.Item, int, error) {
	base := "FROM items WHERE 1=1"
	var args []interface{}

	if filter.Search != "" {
		base += fmt.Sprintf(" AND (LOWER(name) LIKE $%d OR LOWER(COALESCE(description, '')) LIKE $%d)", len(args)+1, len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"name":       true,
		"price":      true,
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

	query := fmt.Sprintf("SELECT id, name, description, price, created_at, updated_at %s ORDER BY %s %s LIMIT %d OFFSET %d", base, sortBy, order, size, offset)
	var items []models.Item
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list items: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count items: %w", err)
	}

	return items, total, nil
}

// FindByID returns an item by id.
func (r *ItemRepository) FindByID(ctx context.Context, id int64) (*models.Item, error) {
	const query = `SELECT id, name, description, price, created_at, updated_at FROM items WHERE id = $1`
	var item models.Item
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByName returns an item by exact name, case-insensitive.
func (r *ItemRepository) FindByName(ctx context.Context, name string) (*models.Item, error) {
	const query = `SELECT id, name, description, price, created_at, updated_at FROM items WHERE LOWER(name) = LOWER($1)`
	var item models.Item
	if err := r.db.GetContext(ctx, &item, query, name); err != nil {
		return nil, err
	}
	return &item, nil
}

// ExistsByName checks uniqueness of item name.
func (r *ItemRepository) ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error) {
	query := "SELECT 1 FROM items WHERE LOWER(name) = LOWER($1)"
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
		return false, fmt.Errorf("check item name: %w", err)
	}
	return true, nil
}

// Create persists a new item.
func (r *ItemRepository) Create(ctx context.Context, item *models.Item) error {
	const query = `INSERT INTO items (name, description, price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4) RETURNING id, created_at, updated_at`
	now := time.Now().UTC()
	row := r.db.QueryRowxContext(ctx, query, item.Name, item.Description, item.Price, now)
	if err := row.Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return fmt.Errorf("create item: %w", err)
	}
	return nil
}

// Update modifies an item.
func (r *ItemRepository) Update(ctx context.Context, item *models.Item) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE items SET name = :name, description = :description, price = :price,
		updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// Delete removes an item record.
func (r *ItemRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// CountOrders returns the number of orders referencing the item.
func (r *ItemRepository) CountOrders(ctx context.Context, id int64) (int, error) {
	const query = `SELECT COUNT(*) FROM orders WHERE item_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count item orders: %w", err)
	}
	return count, nil
}

// BulkDelete removes items atomically, refusing when any is referenced.
func (r *ItemRepository) BulkDelete(ctx context.Context, ids []int64) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin item bulk delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var referenced int
	if err := tx.GetContext(ctx, &referenced, `SELECT COUNT(*) FROM orders WHERE item_id = ANY($1)`, pq.Array(ids)); err != nil {
		return 0, fmt.Errorf("check item references: %w", err)
	}
	if referenced > 0 {
		return 0, &ReferencedRowsError{Count: referenced}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("bulk delete items: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("bulk delete items: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit item bulk delete: %w", err)
	}
	return deleted, nil
}
