package report

import (
	"fmt"
	"strings"

	"github.com/retaildesk/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
)

// Metric selects which bucket value a chart plots
type Metric string

const (
	MetricRevenue Metric = "revenue"
	MetricProfit  Metric = "profit"
	MetricCount   Metric = "count"
)

// ParseMetric parses a metric name, case-insensitively
func ParseMetric(s string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case MetricRevenue, MetricProfit, MetricCount:
		return m, nil
	}
	return "", fmt.Errorf("unknown chart metric %q", s)
}

// IsMonetary reports whether values of this metric are amounts of money
func (m Metric) IsMonetary() bool {
	return m == MetricRevenue || m == MetricProfit
}

// SeriesPoint is one input value of a chart
type SeriesPoint struct {
	Label string
	Value decimal.Decimal
	Count int
}

// ChartRow is a normalized chart value ready to draw
type ChartRow struct {
	Label        string
	Value        decimal.Decimal
	WidthPercent float64
	DisplayValue string
	Count        int
}

var hundred = decimal.NewFromInt(100)

// SeriesOf extracts the metric from each bucket
func SeriesOf(buckets []StatBucket, m Metric) []SeriesPoint {
	series := make([]SeriesPoint, len(buckets))
	for i, b := range buckets {
		p := SeriesPoint{Label: b.Label, Count: b.SalesCount}
		switch m {
		case MetricProfit:
			p.Value = b.Profit
		case MetricCount:
			p.Value = decimal.NewFromInt(int64(b.SalesCount))
		default:
			p.Value = b.Revenue
		}
		series[i] = p
	}
	return series
}

// Normalize scales series to widths in [0, 100] relative to its maximum.
// A series whose maximum is not positive gets zero widths. Monetary values
// are displayed in compact notation for lang; others are shown as is.
// An empty series yields an empty, non-nil result.
func Normalize(series []SeriesPoint, monetary bool, lang language.Tag) []ChartRow {
	rows := make([]ChartRow, len(series))
	if len(series) == 0 {
		return rows
	}

	peak := series[0].Value
	for _, p := range series[1:] {
		if p.Value.GreaterThan(peak) {
			peak = p.Value
		}
	}

	for i, p := range series {
		width := 0.0
		if peak.IsPositive() {
			pct := p.Value.Div(peak).Mul(hundred)
			if pct.IsNegative() {
				pct = decimal.Zero
			} else if pct.GreaterThan(hundred) {
				pct = hundred
			}
			width = pct.Round(2).InexactFloat64()
		}

		display := p.Value.String()
		if monetary {
			display = valueobject.CompactNumber(p.Value, lang)
		}
		rows[i] = ChartRow{
			Label:        p.Label,
			Value:        p.Value,
			WidthPercent: width,
			DisplayValue: display,
			Count:        p.Count,
		}
	}
	return rows
}
