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

type supplierRepository interface {
	List(ctx context.Context, filter models.ReferenceFilter) ([]models.Supplier, int, error)
	FindByID(ctx context.Context, id int64) (*models.Supplier, error)
	ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error)
	Create(ctx context.Context, supplier *models.Supplier) error
	Update(ctx context.Context, supplier *models.Supplier) error
	Delete(ctx context.Context, id int64) error
	CountOrders(ctx context.Context, id int64) (int, error)
	BulkDelete(ctx context.Context, ids []int64) (int64, error)
}

// SupplierService provides supplier management use cases.
type SupplierService struct {
	repo      supplierRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSupplierService constructs a SupplierService instance.
func NewSupplierService(repo supplierRepository, validate *validator.Validate, logger *zap.Logger) *SupplierService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SupplierService{repo: repo, validator: validate, logger: logger}
}

// List returns suppliers with pagination metadata.
func (s *SupplierService) List(ctx context.Context, filter models.ReferenceFilter) ([]models.Supplier, *models.Pagination, error) {
	suppliers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list suppliers")
	}
	if suppliers == nil {
		suppliers = []models.Supplier{}
	}
	return suppliers, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a single supplier.
func (s *SupplierService) Get(ctx context.Context, id int64) (*models.Supplier, error) {
	supplier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "supplier not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load supplier")
	}
	return supplier, nil
}

// Create stores a new supplier. Names are unique case-insensitively.
func (s *SupplierService) Create(ctx context.Context, req dto.SupplierRequest) (*models.Supplier, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid supplier payload")
	}

	exists, err := s.repo.ExistsByName(ctx, req.Name, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check supplier name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("supplier %q already exists", req.Name))
	}

	supplier := &models.Supplier{Name: req.Name, Contact: req.Contact, Address: req.Address}
	if err := s.repo.Create(ctx, supplier); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create supplier")
	}
	return supplier, nil
}

// Update modifies an existing supplier.
func (s *SupplierService) Update(ctx context.Context, id int64, req dto.SupplierRequest) (*models.Supplier, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid supplier payload")
	}

	supplier, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByName(ctx, req.Name, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check supplier name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("supplier %q already exists", req.Name))
	}

	supplier.Name = req.Name
	supplier.Contact = req.Contact
	supplier.Address = req.Address
	if err := s.repo.Update(ctx, supplier); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update supplier")
	}
	return supplier, nil
}

// Delete removes a supplier unless orders still reference it.
func (s *SupplierService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	count, err := s.repo.CountOrders(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check supplier references")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("supplier is referenced by %d orders", count))
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete supplier")
	}
	return nil
}

// BulkDelete removes a batch of suppliers in one transaction.
func (s *SupplierService) BulkDelete(ctx context.Context, req dto.BulkIDRequest) (int64, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk delete payload")
	}

	deleted, err := s.repo.BulkDelete(ctx, req.IDs)
	if err != nil {
		var refErr *repository.ReferencedRowsError
		if errors.As(err, &refErr) {
			return 0, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("suppliers are referenced by %d orders", refErr.Count))
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to bulk delete suppliers")
	}
	return deleted, nil
}

func paginationFor(page, pageSize, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 50
	}
	return &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
}
