package report

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/retaildesk/backend/internal/domain/catalog"
	"github.com/retaildesk/backend/internal/domain/partner"
	"github.com/retaildesk/backend/internal/domain/shared"
	"github.com/retaildesk/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

type MockOrderReader struct {
	mock.Mock
}

func (m *MockOrderReader) FetchOrders(ctx context.Context, filter trade.OrderFilter) ([]trade.SalesOrder, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]trade.SalesOrder), args.Error(1)
}

func (m *MockOrderReader) GetOrder(ctx context.Context, id int64) (*trade.SalesOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.SalesOrder), args.Error(1)
}

type MockCatalogReader struct {
	mock.Mock
}

func (m *MockCatalogReader) FetchCatalogSnapshot(ctx context.Context) (catalog.Snapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(catalog.Snapshot), args.Error(1)
}

type MockPartnerReader struct {
	mock.Mock
}

func (m *MockPartnerReader) FetchCustomers(ctx context.Context) ([]partner.Customer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]partner.Customer), args.Error(1)
}

func (m *MockPartnerReader) FetchSuppliers(ctx context.Context) ([]partner.Supplier, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]partner.Supplier), args.Error(1)
}

type MockDashboardMetrics struct {
	mock.Mock
}

func (m *MockDashboardMetrics) RecordDashboardBuild(ctx context.Context, elapsed time.Duration, lowStock int) {
	m.Called(ctx, elapsed, lowStock)
}

// mapCache is an in-process Cache with optional failures
type mapCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	getErr  error
	ttls    map[string]time.Duration
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// Saturday
var testNow = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

func testOrders() []trade.SalesOrder {
	return []trade.SalesOrder{
		{
			ID: 1, ProductID: 1, ProductName: "Jacket", Quantity: 2,
			UnitPrice: decimal.NewFromInt(20000), UnitCost: decimal.NewNullDecimal(decimal.NewFromInt(15000)),
			Status: trade.OrderStatusDelivered, SaleDate: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		},
		{
			// no recorded cost: profit falls back to the catalog purchase price
			ID: 2, ProductID: 2, ProductName: "Scarf", Quantity: 1,
			UnitPrice: decimal.NewFromInt(5000),
			Status:    trade.OrderStatusPending, SaleDate: time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC),
		},
		{
			ID: 3, ProductID: 1, ProductName: "Jacket", Quantity: 3,
			UnitPrice: decimal.NewFromInt(20000), UnitCost: decimal.NewNullDecimal(decimal.NewFromInt(15000)),
			Status: trade.OrderStatusCancelled, SaleDate: time.Date(2026, 3, 14, 7, 0, 0, 0, time.UTC),
		},
		{
			ID: 4, ProductID: 2, ProductName: "Scarf", Quantity: 3,
			UnitPrice: decimal.NewFromInt(5000), UnitCost: decimal.NewNullDecimal(decimal.NewFromInt(3000)),
			Status: trade.OrderStatusDelivered, SaleDate: time.Date(2026, 3, 12, 15, 0, 0, 0, time.UTC),
		},
	}
}

type dashboardFixture struct {
	svc      *DashboardService
	orders   *MockOrderReader
	products *MockCatalogReader
	partners *MockPartnerReader
	metrics  *MockDashboardMetrics
	cache    *mapCache
}

func newDashboardFixture() *dashboardFixture {
	f := &dashboardFixture{
		orders:   new(MockOrderReader),
		products: new(MockCatalogReader),
		partners: new(MockPartnerReader),
		metrics:  new(MockDashboardMetrics),
		cache:    newMapCache(),
	}
	cfg := DefaultDashboardConfig()
	cfg.Location = time.UTC
	cfg.Lang = language.English
	f.svc = NewDashboardService(f.orders, f.products, f.partners, cfg)
	f.svc.SetCache(f.cache)
	f.svc.SetMetrics(f.metrics)
	f.svc.SetClock(func() time.Time { return testNow })
	return f
}

func (f *dashboardFixture) expectData() {
	f.orders.On("FetchOrders", mock.Anything, trade.OrderFilter{}).Return(testOrders(), nil)
	f.products.On("FetchCatalogSnapshot", mock.Anything).Return(catalog.NewSnapshot([]catalog.Product{
		{ID: 1, Name: "Jacket", PurchasePrice: decimal.NewFromInt(15000), SellingPrice: decimal.NewFromInt(20000), QuantityOnHand: 5},
		{ID: 2, Name: "Scarf", PurchasePrice: decimal.NewFromInt(3000), SellingPrice: decimal.NewFromInt(5000), QuantityOnHand: 20},
		{ID: 3, Name: "Belt", PurchasePrice: decimal.NewFromInt(4000), SellingPrice: decimal.NewFromInt(6000), QuantityOnHand: 0},
	}), nil)
	f.partners.On("FetchCustomers", mock.Anything).Return([]partner.Customer{{ID: 7}, {ID: 8}}, nil)
	f.partners.On("FetchSuppliers", mock.Anything).Return([]partner.Supplier{{ID: 1}}, nil)
}

func TestDashboardService_GetDashboard(t *testing.T) {
	f := newDashboardFixture()
	f.expectData()
	f.metrics.On("RecordDashboardBuild", mock.Anything, mock.Anything, 2).Once()

	resp, err := f.svc.GetDashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2026-03-14", resp.Today.Label)
	assert.Equal(t, 45000.0, resp.Today.Revenue)
	assert.Equal(t, 12000.0, resp.Today.Profit)
	assert.Equal(t, 26.7, resp.Today.ProfitMargin)
	assert.Equal(t, 2, resp.Today.SalesCount)
	assert.Equal(t, "45,000 UZS", resp.Today.RevenueDisplay)
	assert.Equal(t, "12,000 UZS", resp.Today.ProfitDisplay)

	assert.Equal(t, TotalsResponse{Customers: 2, Products: 3, Suppliers: 1}, resp.Totals)
	assert.Equal(t, 2, resp.LowStockProducts)

	require.Len(t, resp.Charts.Weekly, 8)
	require.Len(t, resp.Charts.Monthly, 12)
	require.Len(t, resp.Charts.Yearly, 5)
	thisWeek := resp.Charts.Weekly[7]
	assert.Equal(t, "2026-03-09 - 2026-03-15", thisWeek.Label)
	assert.Equal(t, 60000.0, thisWeek.Revenue)
	assert.Equal(t, 3, thisWeek.SalesCount)

	require.Len(t, resp.TopProducts, 2)
	assert.Equal(t, int64(2), resp.TopProducts[0].ProductID)
	assert.Equal(t, 4, resp.TopProducts[0].TotalSold)
	assert.Equal(t, 20000.0, resp.TopProducts[0].TotalRevenue)
	assert.Equal(t, 8000.0, resp.TopProducts[0].TotalProfit)
	assert.Equal(t, "20,000 UZS", resp.TopProducts[0].TotalRevenueDisplay)
	assert.Equal(t, int64(1), resp.TopProducts[1].ProductID)

	assert.True(t, resp.GeneratedAt.Equal(testNow))
	f.metrics.AssertExpectations(t)
}

func TestDashboardService_GetDashboard_ServedFromCache(t *testing.T) {
	f := newDashboardFixture()
	f.expectData()
	f.metrics.On("RecordDashboardBuild", mock.Anything, mock.Anything, mock.Anything)

	first, err := f.svc.GetDashboard(context.Background())
	require.NoError(t, err)
	second, err := f.svc.GetDashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Today.Revenue, second.Today.Revenue)
	assert.Equal(t, first.Today.ProfitMargin, second.Today.ProfitMargin)
	assert.Equal(t, first.TopProducts, second.TopProducts)
	assert.True(t, first.GeneratedAt.Equal(second.GeneratedAt))
	assert.Equal(t, time.Minute, f.cache.ttls[DashboardCacheKey])
	f.orders.AssertNumberOfCalls(t, "FetchOrders", 1)
	f.metrics.AssertNumberOfCalls(t, "RecordDashboardBuild", 1)
}

func TestDashboardService_InvalidateDashboard(t *testing.T) {
	f := newDashboardFixture()
	f.expectData()
	f.metrics.On("RecordDashboardBuild", mock.Anything, mock.Anything, mock.Anything)

	_, err := f.svc.GetDashboard(context.Background())
	require.NoError(t, err)
	require.NoError(t, f.svc.InvalidateDashboard(context.Background()))
	_, err = f.svc.GetDashboard(context.Background())
	require.NoError(t, err)

	f.orders.AssertNumberOfCalls(t, "FetchOrders", 2)
}

func TestDashboardService_InvalidationDuringBuildIsNotOverwritten(t *testing.T) {
	f := newDashboardFixture()
	f.metrics.On("RecordDashboardBuild", mock.Anything, mock.Anything, mock.Anything)
	f.products.On("FetchCatalogSnapshot", mock.Anything).Return(catalog.NewSnapshot([]catalog.Product{
		{ID: 1, Name: "Jacket", PurchasePrice: decimal.NewFromInt(6000), SellingPrice: decimal.NewFromInt(10000), QuantityOnHand: 5},
	}), nil)
	f.partners.On("FetchCustomers", mock.Anything).Return([]partner.Customer{{ID: 7}}, nil)
	f.partners.On("FetchSuppliers", mock.Anything).Return([]partner.Supplier{}, nil)

	started := make(chan struct{})
	release := make(chan struct{})
	f.orders.On("FetchOrders", mock.Anything, trade.OrderFilter{}).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return([]trade.SalesOrder{}, nil).Once()
	f.orders.On("FetchOrders", mock.Anything, trade.OrderFilter{}).Return([]trade.SalesOrder{{
		ID: 1, ProductID: 1, Quantity: 2, UnitPrice: decimal.NewFromInt(10000),
		Status: trade.OrderStatusPending, SaleDate: testNow,
	}}, nil)

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.GetDashboard(context.Background())
		done <- err
	}()

	<-started
	// an order lands while the stale build is in flight
	require.NoError(t, f.svc.InvalidateDashboard(context.Background()))
	close(release)
	require.NoError(t, <-done)

	_, cached, _ := f.cache.Get(context.Background(), DashboardCacheKey)
	assert.False(t, cached)

	resp, err := f.svc.GetDashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20000.0, resp.Today.Revenue)
	assert.Equal(t, 1, resp.Today.SalesCount)
}

func TestDashboardService_RefreshDashboard(t *testing.T) {
	f := newDashboardFixture()
	f.expectData()
	f.metrics.On("RecordDashboardBuild", mock.Anything, mock.Anything, mock.Anything)

	require.NoError(t, f.svc.RefreshDashboard(context.Background()))

	_, ok, _ := f.cache.Get(context.Background(), DashboardCacheKey)
	assert.True(t, ok)
}

func TestDashboardService_CacheReadFailureFallsBackToBuild(t *testing.T) {
	f := newDashboardFixture()
	f.expectData()
	f.metrics.On("RecordDashboardBuild", mock.Anything, mock.Anything, mock.Anything)
	f.cache.getErr = errors.New("redis: connection refused")

	resp, err := f.svc.GetDashboard(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 45000.0, resp.Today.Revenue)
}

func TestDashboardService_WithoutCache(t *testing.T) {
	f := newDashboardFixture()
	f.svc.SetCache(nil)
	f.expectData()
	f.metrics.On("RecordDashboardBuild", mock.Anything, mock.Anything, mock.Anything)

	_, err := f.svc.GetDashboard(context.Background())
	require.NoError(t, err)
	_, err = f.svc.GetDashboard(context.Background())
	require.NoError(t, err)

	f.orders.AssertNumberOfCalls(t, "FetchOrders", 2)
	assert.NoError(t, f.svc.InvalidateDashboard(context.Background()))
}

func TestDashboardService_FetchFailure(t *testing.T) {
	f := newDashboardFixture()
	unavailable := shared.NewDomainError("SERVICE_UNAVAILABLE", "data service unavailable")
	f.orders.On("FetchOrders", mock.Anything, mock.Anything).Return(nil, unavailable)
	f.products.On("FetchCatalogSnapshot", mock.Anything).Return(catalog.Snapshot{}, nil)
	f.partners.On("FetchCustomers", mock.Anything).Return([]partner.Customer{}, nil)
	f.partners.On("FetchSuppliers", mock.Anything).Return([]partner.Supplier{}, nil)

	resp, err := f.svc.GetDashboard(context.Background())

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, unavailable)
	assert.Empty(t, f.cache.entries)
	f.metrics.AssertNotCalled(t, "RecordDashboardBuild", mock.Anything, mock.Anything, mock.Anything)
}

func TestDashboardService_GetChart(t *testing.T) {
	tests := []struct {
		name    string
		req     ChartRequest
		labels  []string
		widths  []float64
		display []string
	}{
		{
			name:    "daily revenue",
			req:     ChartRequest{Granularity: "day", Metric: "revenue", Buckets: 3},
			labels:  []string{"2026-03-12", "2026-03-13", "2026-03-14"},
			widths:  []float64{33.33, 0, 100},
			display: []string{"15K", "0", "45K"},
		},
		{
			name:    "daily profit",
			req:     ChartRequest{Granularity: "day", Metric: "profit", Buckets: 3},
			labels:  []string{"2026-03-12", "2026-03-13", "2026-03-14"},
			widths:  []float64{50, 0, 100},
			display: []string{"6K", "0", "12K"},
		},
		{
			name:    "daily count is not compacted",
			req:     ChartRequest{Granularity: "day", Metric: "count", Buckets: 3},
			labels:  []string{"2026-03-12", "2026-03-13", "2026-03-14"},
			widths:  []float64{50, 0, 100},
			display: []string{"1", "0", "2"},
		},
		{
			name:    "uzbek suffixes",
			req:     ChartRequest{Granularity: "day", Buckets: 1, Lang: "uz"},
			labels:  []string{"2026-03-14"},
			widths:  []float64{100},
			display: []string{"45 ming"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDashboardFixture()
			f.expectData()

			resp, err := f.svc.GetChart(context.Background(), tt.req)
			require.NoError(t, err)

			require.Len(t, resp.Rows, len(tt.labels))
			for i, row := range resp.Rows {
				assert.Equal(t, tt.labels[i], row.Label)
				assert.Equal(t, tt.widths[i], row.WidthPercent)
				assert.Equal(t, tt.display[i], row.DisplayValue)
			}
		})
	}
}

func TestDashboardService_GetChart_Defaults(t *testing.T) {
	f := newDashboardFixture()
	f.expectData()

	resp, err := f.svc.GetChart(context.Background(), ChartRequest{})
	require.NoError(t, err)

	assert.Equal(t, "week", resp.Granularity)
	assert.Equal(t, "revenue", resp.Metric)
	require.Len(t, resp.Rows, 8)
	last := resp.Rows[7]
	assert.Equal(t, "2026-03-09", last.ShortLabel)
	assert.Equal(t, 60000.0, last.Value)
	assert.Equal(t, 100.0, last.WidthPercent)
	assert.Equal(t, 0.0, resp.Rows[0].WidthPercent)
}

func TestDashboardService_GetChart_Invalid(t *testing.T) {
	f := newDashboardFixture()

	_, err := f.svc.GetChart(context.Background(), ChartRequest{Granularity: "hour"})
	assert.Equal(t, "VALIDATION_ERROR", shared.CodeOf(err))

	_, err = f.svc.GetChart(context.Background(), ChartRequest{Metric: "margin"})
	assert.Equal(t, "VALIDATION_ERROR", shared.CodeOf(err))

	f.orders.AssertNotCalled(t, "FetchOrders", mock.Anything, mock.Anything)
}
