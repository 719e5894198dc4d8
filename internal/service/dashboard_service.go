package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/baljuhq/balju-api/internal/dto"
	"github.com/baljuhq/balju-api/internal/models"
	appErrors "github.com/baljuhq/balju-api/pkg/errors"
)

const dashboardSummaryKey = "dashboard:summary"

type orderStatsProvider interface {
	Stats(ctx context.Context) (*models.OrderStats, error)
	MonthlyTotals(ctx context.Context, months int) ([]models.MonthlyTotal, error)
	TopSuppliers(ctx context.Context, limit int) ([]models.SupplierTotal, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL         time.Duration
	MonthsBack       int
	TopSupplierLimit int
}

// DashboardService composes the cached dashboard summary.
type DashboardService struct {
	orders orderStatsProvider
	cache  *CacheService
	logger *zap.Logger
	now    func() time.Time
	cfg    DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(orders orderStatsProvider, cache *CacheService, logger *zap.Logger, cfg DashboardServiceConfig) *DashboardService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.MonthsBack <= 0 {
		cfg.MonthsBack = 12
	}
	if cfg.TopSupplierLimit <= 0 {
		cfg.TopSupplierLimit = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{orders: orders, cache: cache, logger: logger, now: time.Now, cfg: cfg}
}

// Summary returns the dashboard summary and indicates cache utilisation.
func (s *DashboardService) Summary(ctx context.Context) (*dto.DashboardSummary, bool, error) {
	if s.cache != nil {
		var cached dto.DashboardSummary
		hit, err := s.cache.Get(ctx, dashboardSummaryKey, &cached)
		if err == nil && hit {
			return &cached, true, nil
		}
	}

	summary, err := s.compose(ctx)
	if err != nil {
		return nil, false, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardSummaryKey, summary, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return summary, false, nil
}

func (s *DashboardService) compose(ctx context.Context) (*dto.DashboardSummary, error) {
	stats, err := s.orders.Stats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load order stats")
	}
	monthly, err := s.orders.MonthlyTotals(ctx, s.cfg.MonthsBack)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load monthly totals")
	}
	top, err := s.orders.TopSuppliers(ctx, s.cfg.TopSupplierLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load top suppliers")
	}

	if monthly == nil {
		monthly = []models.MonthlyTotal{}
	}
	if top == nil {
		top = []models.SupplierTotal{}
	}

	return &dto.DashboardSummary{
		Stats:        *stats,
		Monthly:      monthly,
		TopSuppliers: top,
		GeneratedAt:  s.now().UTC(),
	}, nil
}
