package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/baljuhq/balju-api/internal/models"
	appErrors "github.com/baljuhq/balju-api/pkg/errors"
)

type fakeStatsProvider struct {
	stats     models.OrderStats
	monthly   []models.MonthlyTotal
	suppliers []models.SupplierTotal
	calls     int
}

func (p *fakeStatsProvider) Stats(ctx context.Context) (*models.OrderStats, error) {
	p.calls++
	stats := p.stats
	return &stats, nil
}

func (p *fakeStatsProvider) MonthlyTotals(ctx context.Context, months int) ([]models.MonthlyTotal, error) {
	return p.monthly, nil
}

func (p *fakeStatsProvider) TopSuppliers(ctx context.Context, limit int) ([]models.SupplierTotal, error) {
	return p.suppliers, nil
}

type fakeCacheStore struct {
	entries map[string][]byte
}

func newFakeCacheStore() *fakeCacheStore {
	return &fakeCacheStore{entries: map[string][]byte{}}
}

func (s *fakeCacheStore) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := s.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *fakeCacheStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.entries[key] = raw
	return nil
}

func (s *fakeCacheStore) DeleteByPattern(ctx context.Context, pattern string) error {
	s.entries = map[string][]byte{}
	return nil
}

func TestDashboardSummaryCacheMissThenHit(t *testing.T) {
	provider := &fakeStatsProvider{
		stats:     models.OrderStats{TotalOrders: 10, PendingOrders: 4, ApprovedOrders: 5, RejectedOrders: 1, TotalAmount: 125000},
		monthly:   []models.MonthlyTotal{{Month: "2024-03", OrderCount: 10, Amount: 125000}},
		suppliers: []models.SupplierTotal{{SupplierID: 1, SupplierName: "신선농장", OrderCount: 7, Amount: 90000}},
	}
	store := newFakeCacheStore()
	cache := NewCacheService(store, nil, time.Minute, zap.NewNop(), true)
	svc := NewDashboardService(provider, cache, zap.NewNop(), DashboardServiceConfig{CacheTTL: time.Minute})

	summary, cached, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 10, summary.Stats.TotalOrders)
	assert.Len(t, summary.TopSuppliers, 1)
	assert.Contains(t, store.entries, dashboardSummaryKey)

	again, cached, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, summary.Stats, again.Stats)
	assert.Equal(t, 1, provider.calls)
}

func TestDashboardSummaryRebuildsAfterInvalidation(t *testing.T) {
	provider := &fakeStatsProvider{stats: models.OrderStats{TotalOrders: 3}}
	store := newFakeCacheStore()
	cache := NewCacheService(store, nil, time.Minute, zap.NewNop(), true)
	svc := NewDashboardService(provider, cache, zap.NewNop(), DashboardServiceConfig{})

	_, _, err := svc.Summary(context.Background())
	require.NoError(t, err)

	require.NoError(t, cache.Invalidate(context.Background(), dashboardCachePattern))
	provider.stats.TotalOrders = 4

	summary, cached, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 4, summary.Stats.TotalOrders)
	assert.Equal(t, 2, provider.calls)
}

func TestDashboardSummaryWithoutCache(t *testing.T) {
	provider := &fakeStatsProvider{stats: models.OrderStats{TotalOrders: 2}}
	svc := NewDashboardService(provider, nil, nil, DashboardServiceConfig{})

	summary, cached, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2, summary.Stats.TotalOrders)
	assert.NotNil(t, summary.Monthly)
	assert.NotNil(t, summary.TopSuppliers)
	assert.False(t, summary.GeneratedAt.IsZero())
}
