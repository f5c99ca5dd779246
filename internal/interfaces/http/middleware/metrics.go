package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/retaildesk/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

var responseSizeBuckets = []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000, 1000000}

// HTTPMetricsConfig configures the HTTP metrics middleware
type HTTPMetricsConfig struct {
	MeterProvider *telemetry.MeterProvider
	Enabled       bool
	Logger        *zap.Logger
}

type httpMetrics struct {
	requests *telemetry.Counter
	latency  *telemetry.Histogram
	sizes    *telemetry.Histogram
	inFlight metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	m := &httpMetrics{}
	var err error

	if m.requests, err = telemetry.NewCounter(meter,
		"http_server_request_total", "Handled HTTP requests", "{request}"); err != nil {
		return nil, err
	}
	if m.latency, err = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_request_duration_seconds",
		Description: "HTTP request latency",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.sizes, err = telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_response_size_bytes",
		Description: "HTTP response body size",
		Unit:        "By",
		Boundaries:  responseSizeBuckets,
	}); err != nil {
		return nil, err
	}
	if m.inFlight, err = meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("HTTP requests in flight"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *httpMetrics) handler(c *gin.Context) {
	ctx := c.Request.Context()
	start := time.Now()

	m.inFlight.Add(ctx, 1)
	c.Next()
	m.inFlight.Add(ctx, -1)

	m.observe(ctx, c.Request.Method, getRoutePattern(c), c.Writer.Status(), time.Since(start), c.Writer.Size())
}

func (m *httpMetrics) observe(ctx context.Context, method, route string, status int, elapsed time.Duration, size int) {
	base := []attribute.KeyValue{
		telemetry.AttrHTTPMethod.String(method),
		telemetry.AttrHTTPRoute.String(route),
	}
	m.requests.Inc(ctx, append(base,
		telemetry.AttrHTTPStatusCode.Int(status),
		telemetry.AttrHTTPStatusClass.String(StatusClass(status)),
	)...)

	// latency and size are keyed by method and route only
	m.latency.RecordDuration(ctx, elapsed, base...)
	if size > 0 {
		m.sizes.Record(ctx, float64(size), base...)
	}
}

func noopMiddleware(c *gin.Context) {
	c.Next()
}

// HTTPMetrics counts requests and records latency, response size and
// in-flight requests per route. It passes through when metrics are off.
func HTTPMetrics(cfg HTTPMetricsConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.MeterProvider == nil || !cfg.MeterProvider.IsEnabled() {
		return noopMiddleware
	}
	m, err := newHTTPMetrics(cfg.MeterProvider.Meter("http.server"))
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("HTTP metrics disabled", zap.Error(err))
		}
		return noopMiddleware
	}
	return m.handler
}

// HTTPMetricsWithMeter is HTTPMetrics on a caller-supplied meter
func HTTPMetricsWithMeter(meter metric.Meter, enabled bool) gin.HandlerFunc {
	if !enabled {
		return noopMiddleware
	}
	m, err := newHTTPMetrics(meter)
	if err != nil {
		return noopMiddleware
	}
	return m.handler
}

// getRoutePattern returns the matched route template, e.g. /api/v1/sales/:id
func getRoutePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unknown"
}

// StatusClass groups a status code as 2xx, 3xx, 4xx or 5xx
func StatusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "other"
	}
}
