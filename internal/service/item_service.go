package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/baljuhq/balju-api/internal/dto"
	"github.com/baljuhq/balju-api/internal/models"
	"github.com/baljuhq/balju-api/internal/repository"
	appErrors "github.com/baljuhq/balju-api/pkg/errors"
)

type itemRepository interface {
	List(ctx context.Context, filter models.ReferenceFilter) ([]models.Item, int, error)
	FindByID(ctx context.Context, id int64) (*models.Item, error)
	ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error)
	Create(ctx context.Context, item *models.Item) error
	Update(ctx context.Context, item *models.Item) error
	Delete(ctx context.Context, id int64) error
	CountOrders(ctx context.Context, id int64) (int, error)
	BulkDelete(ctx context.Context, ids []int64) (int64, error)
}

// ItemService provides item management use cases.
type ItemService struct {
	repo      itemRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewItemService constructs an ItemService instance.
func NewItemService(repo itemRepository, validate *validator.Validate, logger *zap.Logger) *ItemService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ItemService{repo: repo, validator: validate, logger: logger}
}

// List returns items with pagination metadata.
func (s *ItemService) List(ctx context.Context, filter models.ReferenceFilter) ([]models.Item, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list items")
	}
	if items == nil {
		items = []models.Item{}
	}
	return items, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a single item.
func (s *ItemService) Get(ctx context.Context, id int64) (*models.Item, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load item")
	}
	return item, nil
}

// Create stores a new item. Names are unique case-insensitively.
func (s *ItemService) Create(ctx context.Context, req dto.ItemRequest) (*models.Item, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid item payload")
	}

	exists, err := s.repo.ExistsByName(ctx, req.Name, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check item name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("item %q already exists", req.Name))
	}

	item := &models.Item{Name: req.Name, Description: req.Description, Price: req.Price}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create item")
	}
	return item, nil
}

// Update modifies an existing item.
func (s *ItemService) Update(ctx context.Context, id int64, req dto.ItemRequest) (*models.Item, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid item payload")
	}

	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByName(ctx, req.Name, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check item name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("item %q already exists", req.Name))
	}

	item.Name = req.Name
	item.Description = req.Description
	item.Price = req.Price
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update item")
	}
	return item, nil
}

// Delete removes an item unless orders still reference it.
func (s *ItemService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	count, err := s.repo.CountOrders(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check item references")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("item is referenced by %d orders", count))
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete item")
	}
	return nil
}

// BulkDelete removes a batch of items in one transaction.
func (s *ItemService) BulkDelete(ctx context.Context, req dto.BulkIDRequest) (int64, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk delete payload")
	}

	deleted, err := s.repo.BulkDelete(ctx, req.IDs)
	if err != nil {
		var refErr *repository.ReferencedRowsError
		if errors.As(err, &refErr) {
			return 0, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("items are referenced by %d orders", refErr.Count))
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to bulk delete items")
	}
	return deleted, nil
}
