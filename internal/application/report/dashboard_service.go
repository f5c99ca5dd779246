package report

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/retaildesk/backend/internal/domain/catalog"
	"github.com/retaildesk/backend/internal/domain/partner"
	"github.com/retaildesk/backend/internal/domain/report"
	"github.com/retaildesk/backend/internal/domain/shared"
	"github.com/retaildesk/backend/internal/domain/trade"
	"github.com/retaildesk/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
)

// DashboardCacheKey is the cache key of the serialized dashboard summary
const DashboardCacheKey = "dashboard:summary"

// DefaultDayBuckets is the number of days a daily chart shows by default
const DefaultDayBuckets = 7

// Cache stores serialized values with a time to live
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// DashboardMetrics records how long dashboard builds take
type DashboardMetrics interface {
	RecordDashboardBuild(ctx context.Context, elapsed time.Duration, lowStock int)
}

// DashboardConfig sizes the dashboard and its cache
type DashboardConfig struct {
	Options  report.DashboardOptions
	Location *time.Location
	CacheTTL time.Duration
	// Lang is the default language for chart display values
	Lang language.Tag
}

// DefaultDashboardConfig returns the standard dashboard configuration
func DefaultDashboardConfig() DashboardConfig {
	return DashboardConfig{
		Options:  report.DefaultDashboardOptions(),
		Location: time.Local,
		CacheTTL: time.Minute,
		Lang:     language.Uzbek,
	}
}

// DashboardService builds sales statistics from the data service
type DashboardService struct {
	orders   trade.OrderReader
	products catalog.Reader
	partners partner.Reader
	config   DashboardConfig
	cache    Cache
	metrics  DashboardMetrics
	now      func() time.Time

	// cacheMu orders cache writes against invalidations. A build only stores
	// its summary when generation is unchanged since the build started.
	cacheMu    sync.Mutex
	generation uint64
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(
	orders trade.OrderReader,
	products catalog.Reader,
	partners partner.Reader,
	config DashboardConfig,
) *DashboardService {
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.Lang == language.Und {
		config.Lang = language.Uzbek
	}
	return &DashboardService{
		orders:   orders,
		products: products,
		partners: partners,
		config:   config,
		now:      time.Now,
	}
}

// SetCache sets the summary cache. Without one every call rebuilds.
func (s *DashboardService) SetCache(cache Cache) {
	s.cache = cache
}

// SetMetrics sets the build duration recorder
func (s *DashboardService) SetMetrics(metrics DashboardMetrics) {
	s.metrics = metrics
}

// SetClock replaces the wall clock
func (s *DashboardService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// GetDashboard returns the cached summary, building it on a miss.
// Cache failures are logged and never fail the request.
func (s *DashboardService) GetDashboard(ctx context.Context) (*DashboardResponse, error) {
	if cached, ok := s.cached(ctx); ok {
		return cached, nil
	}
	return s.build(ctx)
}

// RefreshDashboard rebuilds the summary and replaces the cached copy
func (s *DashboardService) RefreshDashboard(ctx context.Context) error {
	_, err := s.build(ctx)
	return err
}

// InvalidateDashboard drops the cached summary
func (s *DashboardService) InvalidateDashboard(ctx context.Context) error {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.generation++
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, DashboardCacheKey)
}

func (s *DashboardService) currentGeneration() uint64 {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.generation
}

// store caches resp unless an invalidation happened after generation gen
func (s *DashboardService) store(ctx context.Context, gen uint64, resp DashboardResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		logger.L(ctx).Warn("Dashboard cache write failed", zap.Error(err))
		return
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.generation != gen {
		logger.L(ctx).Debug("Dashboard invalidated during build, not caching")
		return
	}
	if err := s.cache.Set(ctx, DashboardCacheKey, data, s.config.CacheTTL); err != nil {
		logger.L(ctx).Warn("Dashboard cache write failed", zap.Error(err))
	}
}

// GetChart returns a normalized series of the last req.Buckets periods
func (s *DashboardService) GetChart(ctx context.Context, req ChartRequest) (*ChartResponse, error) {
	granularity := report.GranularityWeek
	if req.Granularity != "" {
		g, err := report.ParseGranularity(req.Granularity)
		if err != nil {
			return nil, shared.NewDomainError("VALIDATION_ERROR", err.Error())
		}
		granularity = g
	}
	metric := report.MetricRevenue
	if req.Metric != "" {
		m, err := report.ParseMetric(req.Metric)
		if err != nil {
			return nil, shared.NewDomainError("VALIDATION_ERROR", err.Error())
		}
		metric = m
	}
	buckets := req.Buckets
	if buckets <= 0 {
		buckets = s.defaultBuckets(granularity)
	}
	lang := s.config.Lang
	if req.Lang != "" {
		if tag, err := language.Parse(req.Lang); err == nil {
			lang = tag
		}
	}

	var (
		orders   []trade.SalesOrder
		products catalog.Snapshot
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = s.orders.FetchOrders(gctx, trade.OrderFilter{})
		return err
	})
	g.Go(func() error {
		var err error
		products, err = s.products.FetchCatalogSnapshot(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	agg := report.NewAggregator(products, s.config.Location)
	stats := agg.LastN(orders, granularity, buckets, s.now())
	rows := report.Normalize(report.SeriesOf(stats, metric), metric.IsMonetary(), lang)

	return &ChartResponse{
		Granularity: string(granularity),
		Metric:      string(metric),
		Rows:        toChartRowResponses(granularity, rows),
	}, nil
}

func (s *DashboardService) defaultBuckets(g report.Granularity) int {
	switch g {
	case report.GranularityWeek:
		return s.config.Options.WeeklyBuckets
	case report.GranularityMonth:
		return s.config.Options.MonthlyBuckets
	case report.GranularityYear:
		return s.config.Options.YearlyBuckets
	default:
		return DefaultDayBuckets
	}
}

func (s *DashboardService) cached(ctx context.Context) (*DashboardResponse, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, ok, err := s.cache.Get(ctx, DashboardCacheKey)
	if err != nil {
		logger.L(ctx).Warn("Dashboard cache read failed", zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var resp DashboardResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		logger.L(ctx).Warn("Discarding undecodable cached dashboard", zap.Error(err))
		return nil, false
	}
	return &resp, true
}

func (s *DashboardService) build(ctx context.Context) (*DashboardResponse, error) {
	start := time.Now()
	gen := s.currentGeneration()

	var (
		orders    []trade.SalesOrder
		products  catalog.Snapshot
		customers []partner.Customer
		suppliers []partner.Supplier
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = s.orders.FetchOrders(gctx, trade.OrderFilter{})
		return err
	})
	g.Go(func() error {
		var err error
		products, err = s.products.FetchCatalogSnapshot(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		customers, err = s.partners.FetchCustomers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		suppliers, err = s.partners.FetchSuppliers(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	agg := report.NewAggregator(products, s.config.Location)
	summary := agg.BuildDashboard(report.DashboardInput{
		Orders:    orders,
		Products:  products.Products(),
		Customers: customers,
		Suppliers: suppliers,
		Now:       s.now(),
	}, s.config.Options)
	resp := ToDashboardResponse(summary, s.config.Lang)

	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.RecordDashboardBuild(ctx, elapsed, summary.LowStockProducts)
	}
	logger.L(ctx).Debug("Dashboard built",
		zap.Int("orders", len(orders)),
		zap.Int("low_stock_products", summary.LowStockProducts),
		zap.Duration("elapsed", elapsed),
	)

	if s.cache != nil {
		s.store(ctx, gen, resp)
	}
	return &resp, nil
}
