package report

import (
	"time"

	"github.com/retaildesk/backend/internal/domain/report"
	"github.com/retaildesk/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
)

// ===================== Dashboard DTOs =====================

// StatBucketResponse represents one period of realized sales.
// The *Display fields are formatted for the dashboard's language.
type StatBucketResponse struct {
	Label          string    `json:"label"`
	Start          time.Time `json:"start"`
	Revenue        float64   `json:"revenue"`
	Profit         float64   `json:"profit"`
	ProfitMargin   float64   `json:"profit_margin"`
	SalesCount     int       `json:"sales_count"`
	RevenueDisplay string    `json:"revenue_display"`
	ProfitDisplay  string    `json:"profit_display"`
}

// TopProductResponse represents a best-selling product
type TopProductResponse struct {
	ProductID           int64   `json:"product_id"`
	ProductName         string  `json:"product_name"`
	TotalSold           int     `json:"total_sold"`
	TotalRevenue        float64 `json:"total_revenue"`
	TotalProfit         float64 `json:"total_profit"`
	TotalRevenueDisplay string  `json:"total_revenue_display"`
}

// TotalsResponse counts the records the console manages
type TotalsResponse struct {
	Customers int `json:"customers"`
	Products  int `json:"products"`
	Suppliers int `json:"suppliers"`
}

// ChartsResponse holds the dashboard's bucketed series
type ChartsResponse struct {
	Weekly  []StatBucketResponse `json:"weekly"`
	Monthly []StatBucketResponse `json:"monthly"`
	Yearly  []StatBucketResponse `json:"yearly"`
}

// DashboardResponse represents the dashboard summary
type DashboardResponse struct {
	Today            StatBucketResponse   `json:"today"`
	Totals           TotalsResponse       `json:"totals"`
	LowStockProducts int                  `json:"low_stock_products"`
	Charts           ChartsResponse       `json:"charts"`
	TopProducts      []TopProductResponse `json:"top_products"`
	GeneratedAt      time.Time            `json:"generated_at"`
}

// ===================== Chart DTOs =====================

// ChartRequest selects a chart series. Zero values pick defaults.
type ChartRequest struct {
	Granularity string `form:"granularity" binding:"omitempty,oneof=day week month year"`
	Metric      string `form:"metric" binding:"omitempty,oneof=revenue profit count"`
	Buckets     int    `form:"buckets" binding:"omitempty,min=1,max=366"`
	Lang        string `form:"lang" binding:"omitempty,max=35"`
}

// ChartRowResponse is one bar of a chart
type ChartRowResponse struct {
	Label        string  `json:"label"`
	ShortLabel   string  `json:"short_label"`
	Value        float64 `json:"value"`
	WidthPercent float64 `json:"width_percent"`
	DisplayValue string  `json:"display_value"`
	Count        int     `json:"count"`
}

// ChartResponse is a normalized chart series
type ChartResponse struct {
	Granularity string             `json:"granularity"`
	Metric      string             `json:"metric"`
	Rows        []ChartRowResponse `json:"rows"`
}

// ===================== Helper Functions =====================

func toFloat64(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func toStatBucketResponse(b report.StatBucket, lang language.Tag) StatBucketResponse {
	return StatBucketResponse{
		Label:          b.Label,
		Start:          b.Start,
		Revenue:        toFloat64(b.Revenue),
		Profit:         toFloat64(b.Profit),
		ProfitMargin:   toFloat64(b.ProfitMargin()),
		SalesCount:     b.SalesCount,
		RevenueDisplay: valueobject.FormatCurrency(b.Revenue, lang),
		ProfitDisplay:  valueobject.FormatCurrency(b.Profit, lang),
	}
}

func toStatBucketResponses(buckets []report.StatBucket, lang language.Tag) []StatBucketResponse {
	out := make([]StatBucketResponse, len(buckets))
	for i, b := range buckets {
		out[i] = toStatBucketResponse(b, lang)
	}
	return out
}

// ToDashboardResponse converts a domain summary to its response DTO,
// formatting money for lang
func ToDashboardResponse(s *report.DashboardSummary, lang language.Tag) DashboardResponse {
	top := make([]TopProductResponse, len(s.TopProducts))
	for i, p := range s.TopProducts {
		top[i] = TopProductResponse{
			ProductID:           p.ProductID,
			ProductName:         p.ProductName,
			TotalSold:           p.TotalSold,
			TotalRevenue:        toFloat64(p.TotalRevenue),
			TotalProfit:         toFloat64(p.TotalProfit),
			TotalRevenueDisplay: valueobject.FormatCurrency(p.TotalRevenue, lang),
		}
	}

	return DashboardResponse{
		Today: toStatBucketResponse(s.Today, lang),
		Totals: TotalsResponse{
			Customers: s.Totals.Customers,
			Products:  s.Totals.Products,
			Suppliers: s.Totals.Suppliers,
		},
		LowStockProducts: s.LowStockProducts,
		Charts: ChartsResponse{
			Weekly:  toStatBucketResponses(s.Charts.Weekly, lang),
			Monthly: toStatBucketResponses(s.Charts.Monthly, lang),
			Yearly:  toStatBucketResponses(s.Charts.Yearly, lang),
		},
		TopProducts: top,
		GeneratedAt: s.GeneratedAt,
	}
}

func toChartRowResponses(g report.Granularity, rows []report.ChartRow) []ChartRowResponse {
	out := make([]ChartRowResponse, len(rows))
	for i, r := range rows {
		out[i] = ChartRowResponse{
			Label:        r.Label,
			ShortLabel:   g.ShortLabel(r.Label),
			Value:        toFloat64(r.Value),
			WidthPercent: r.WidthPercent,
			DisplayValue: r.DisplayValue,
			Count:        r.Count,
		}
	}
	return out
}
