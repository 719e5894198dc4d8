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

type unitRepository interface {
	List(ctx context.Context, filter models.ReferenceFilter) ([]models.Unit, int, error)
	FindByID(ctx context.Context, id int64) (*models.Unit, error)
	ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error)
	Create(ctx context.Context, unit *models.Unit) error
	Update(ctx context.Context, unit *models.Unit) error
	Delete(ctx context.Context, id int64) error
	CountOrders(ctx context.Context, id int64) (int, error)
	BulkDelete(ctx context.Context, ids []int64) (int64, error)
}

// UnitService provides unit management use cases.
type UnitService struct {
	repo      unitRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUnitService constructs a UnitService instance.
func NewUnitService(repo unitRepository, validate *validator.Validate, logger *zap.Logger) *UnitService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UnitService{repo: repo, validator: validate, logger: logger}
}

// List returns units with pagination metadata.
func (s *UnitService) List(ctx context.Context, filter models.ReferenceFilter) ([]models.Unit, *models.Pagination, error) {
	units, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list units")
	}
	if units == nil {
		units = []models.Unit{}
	}
	return units, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a single unit.
func (s *UnitService) Get(ctx context.Context, id int64) (*models.Unit, error) {
	unit, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "unit not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load unit")
	}
	return unit, nil
}

// Create stores a new unit. Names are unique case-insensitively.
func (s *UnitService) Create(ctx context.Context, req dto.UnitRequest) (*models.Unit, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid unit payload")
	}

	exists, err := s.repo.ExistsByName(ctx, req.Name, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check unit name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("unit %q already exists", req.Name))
	}

	unit := &models.Unit{Name: req.Name, Description: req.Description}
	if err := s.repo.Create(ctx, unit); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create unit")
	}
	return unit, nil
}

// Update modifies an existing unit.
func (s *UnitService) Update(ctx context.Context, id int64, req dto.UnitRequest) (*models.Unit, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid unit payload")
	}

	unit, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByName(ctx, req.Name, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check unit name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("unit %q already exists", req.Name))
	}

	unit.Name = req.Name
	unit.Description = req.Description
	if err := s.repo.Update(ctx, unit); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update unit")
	}
	return unit, nil
}

// Delete removes a unit unless orders still reference it.
func (s *UnitService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	count, err := s.repo.CountOrders(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check unit references")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("unit is referenced by %d orders", count))
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete unit")
	}
	return nil
}

// BulkDelete removes a batch of units in one transaction.
func (s *UnitService) BulkDelete(ctx context.Context, req dto.BulkIDRequest) (int64, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk delete payload")
	}

	deleted, err := s.repo.BulkDelete(ctx, req.IDs)
	if err != nil {
		var refErr *repository.ReferencedRowsError
		if errors.As(err, &refErr) {
			return 0, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("units are referenced by %d orders", refErr.Count))
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to bulk delete units")
	}
	return deleted, nil
}
