package report

import (
	"time"

	"github.com/retaildesk/backend/internal/domain/catalog"
	"github.com/retaildesk/backend/internal/domain/partner"
	"github.com/retaildesk/backend/internal/domain/trade"
)

// Totals counts the records the console manages
type Totals struct {
	Customers int `json:"customers"`
	Products  int `json:"products"`
	Suppliers int `json:"suppliers"`
}

// CountTotals counts customers, products and suppliers
func CountTotals(customers []partner.Customer, products []catalog.Product, suppliers []partner.Supplier) Totals {
	return Totals{
		Customers: len(customers),
		Products:  len(products),
		Suppliers: len(suppliers),
	}
}

// Charts holds the bucketed series shown on the dashboard
type Charts struct {
	Weekly  []StatBucket `json:"weekly"`
	Monthly []StatBucket `json:"monthly"`
	Yearly  []StatBucket `json:"yearly"`
}

// DashboardSummary is everything the dashboard renders
type DashboardSummary struct {
	Today            StatBucket        `json:"today"`
	Totals           Totals            `json:"totals"`
	LowStockProducts int               `json:"low_stock_products"`
	Charts           Charts            `json:"charts"`
	TopProducts      []TopProductEntry `json:"top_products"`
	GeneratedAt      time.Time         `json:"generated_at"`
}

// DashboardInput is the materialized data a dashboard is built from
type DashboardInput struct {
	Orders    []trade.SalesOrder
	Products  []catalog.Product
	Customers []partner.Customer
	Suppliers []partner.Supplier
	Now       time.Time
}

// DashboardOptions sizes the dashboard
type DashboardOptions struct {
	LowStockThreshold int
	WeeklyBuckets     int
	MonthlyBuckets    int
	YearlyBuckets     int
	TopProductsLimit  int
}

// DefaultDashboardOptions returns the standard dashboard sizing
func DefaultDashboardOptions() DashboardOptions {
	return DashboardOptions{
		LowStockThreshold: catalog.DefaultLowStockThreshold,
		WeeklyBuckets:     8,
		MonthlyBuckets:    12,
		YearlyBuckets:     5,
		TopProductsLimit:  5,
	}
}

// BuildDashboard computes the dashboard summary
func (a *Aggregator) BuildDashboard(in DashboardInput, opts DashboardOptions) *DashboardSummary {
	return &DashboardSummary{
		Today:            a.TodayStats(in.Orders, in.Now),
		Totals:           CountTotals(in.Customers, in.Products, in.Suppliers),
		LowStockProducts: catalog.LowStockCount(in.Products, opts.LowStockThreshold),
		Charts: Charts{
			Weekly:  a.LastN(in.Orders, GranularityWeek, opts.WeeklyBuckets, in.Now),
			Monthly: a.LastN(in.Orders, GranularityMonth, opts.MonthlyBuckets, in.Now),
			Yearly:  a.LastN(in.Orders, GranularityYear, opts.YearlyBuckets, in.Now),
		},
		TopProducts: a.TopProducts(in.Orders, opts.TopProductsLimit),
		GeneratedAt: in.Now,
	}
}
