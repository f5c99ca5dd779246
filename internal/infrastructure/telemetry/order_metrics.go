package telemetry

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// OrderMetrics records sales order and dashboard activity.
type OrderMetrics struct {
	logger *zap.Logger

	orderCreatedTotal    *Counter
	orderAmountTotal     *FloatCounter
	orderTransitionTotal *Counter
	orderRejectedTotal   *Counter

	dashboardBuildDuration *Histogram
	lowStockProducts       *Gauge
}

// OrderMetricsConfig holds configuration for order metrics.
type OrderMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewOrderMetrics registers the order and dashboard instruments on cfg.Meter.
func NewOrderMetrics(cfg OrderMetricsConfig) (*OrderMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	om := &OrderMetrics{logger: logger}
	var err error

	om.orderCreatedTotal, err = NewCounter(cfg.Meter,
		"retail_order_created_total",
		"Total number of sales orders created",
		"{orders}",
	)
	if err != nil {
		return nil, err
	}

	om.orderAmountTotal, err = NewFloatCounter(cfg.Meter,
		"retail_order_amount_total",
		"Total amount of created sales orders",
		"{UZS}",
	)
	if err != nil {
		return nil, err
	}

	om.orderTransitionTotal, err = NewCounter(cfg.Meter,
		"retail_order_transition_total",
		"Total number of sales order status changes",
		"{transitions}",
	)
	if err != nil {
		return nil, err
	}

	om.orderRejectedTotal, err = NewCounter(cfg.Meter,
		"retail_order_rejected_total",
		"Total number of rejected order operations by failure kind",
		"{orders}",
	)
	if err != nil {
		return nil, err
	}

	om.dashboardBuildDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "retail_dashboard_build_duration_seconds",
		Description: "Time to fetch inputs and build the statistics dashboard",
		Unit:        "s",
		Boundaries:  BuildDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	om.lowStockProducts, err = NewGauge(cfg.Meter,
		"retail_low_stock_products",
		"Number of products at or below the low stock threshold",
		"{products}",
	)
	if err != nil {
		return nil, err
	}

	return om, nil
}

// RecordOrderCreated counts a created order and adds its total to the amount counter
func (om *OrderMetrics) RecordOrderCreated(ctx context.Context, paymentMethod string, amount decimal.Decimal) {
	om.orderCreatedTotal.Inc(ctx, AttrPaymentMethod.String(paymentMethod))
	om.orderAmountTotal.Add(ctx, amount.InexactFloat64(), AttrPaymentMethod.String(paymentMethod))
}

// RecordTransition counts a status change
func (om *OrderMetrics) RecordTransition(ctx context.Context, from, to string) {
	om.orderTransitionTotal.Inc(ctx,
		AttrFromStatus.String(from),
		AttrToStatus.String(to),
	)
}

// RecordRejected counts a rejected create, edit or transition by failure kind
func (om *OrderMetrics) RecordRejected(ctx context.Context, reason string) {
	if reason == "" {
		reason = "UNKNOWN"
	}
	om.orderRejectedTotal.Inc(ctx, AttrReason.String(reason))
}

// RecordDashboardBuild records one dashboard build and the low stock count it found
func (om *OrderMetrics) RecordDashboardBuild(ctx context.Context, elapsed time.Duration, lowStock int) {
	om.dashboardBuildDuration.RecordDuration(ctx, elapsed)
	om.lowStockProducts.Record(ctx, int64(lowStock))
}
