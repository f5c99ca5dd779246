package report

import (
	"sort"
	"time"

	"github.com/retaildesk/backend/internal/domain/catalog"
	"github.com/retaildesk/backend/internal/domain/shared/valueobject"
	"github.com/retaildesk/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// StatBucket holds the realized sales of one calendar period
type StatBucket struct {
	Label      string          `json:"label"`
	Start      time.Time       `json:"start"`
	Revenue    decimal.Decimal `json:"revenue"`
	Profit     decimal.Decimal `json:"profit"`
	SalesCount int             `json:"sales_count"`
}

// ProfitMargin returns profit as a percentage of revenue
func (b StatBucket) ProfitMargin() decimal.Decimal {
	return valueobject.ProfitMargin(b.Profit, b.Revenue)
}

func (b *StatBucket) add(revenue, profit decimal.Decimal) {
	b.Revenue = b.Revenue.Add(revenue)
	b.Profit = b.Profit.Add(profit)
	b.SalesCount++
}

// TopProductEntry ranks a product by units sold
type TopProductEntry struct {
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name"`
	TotalSold    int             `json:"total_sold"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalProfit  decimal.Decimal `json:"total_profit"`
}

// Aggregator turns a closed set of orders into statistics.
// Cancelled orders never count as sales.
//
// Profit uses the unit cost recorded on the order. Orders without one fall
// back to the current catalog purchase price, so their historical profit
// moves when catalog costs change. An order whose cost cannot be resolved at
// all contributes revenue but no profit.
type Aggregator struct {
	catalog  catalog.Snapshot
	location *time.Location
}

// NewAggregator creates an aggregator. A nil location means time.Local.
func NewAggregator(products catalog.Snapshot, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.Local
	}
	return &Aggregator{catalog: products, location: loc}
}

// Location returns the time zone buckets are computed in
func (a *Aggregator) Location() *time.Location {
	return a.location
}

// Aggregate buckets orders over w. Every bucket of the window is emitted in
// ascending order, including empty ones.
func (a *Aggregator) Aggregate(orders []trade.SalesOrder, w Window) []StatBucket {
	starts := w.Starts()
	buckets := make([]StatBucket, len(starts))
	index := make(map[int64]int, len(starts))
	for i, s := range starts {
		buckets[i] = StatBucket{
			Label:   w.Granularity.Label(s),
			Start:   s,
			Revenue: decimal.Zero,
			Profit:  decimal.Zero,
		}
		index[s.Unix()] = i
	}

	for i := range orders {
		o := &orders[i]
		if o.Status == trade.OrderStatusCancelled {
			continue
		}
		t := o.SaleDate.In(w.Start.Location())
		if !w.Contains(t) {
			continue
		}
		if idx, ok := index[w.Granularity.Start(t).Unix()]; ok {
			buckets[idx].add(o.TotalAmount(), a.profitOf(o))
		}
	}
	return buckets
}

// LastN aggregates the n buckets ending with the one containing now
func (a *Aggregator) LastN(orders []trade.SalesOrder, g Granularity, n int, now time.Time) []StatBucket {
	return a.Aggregate(orders, LastN(g, n, now, a.location))
}

// TodayStats aggregates the calendar day containing now
func (a *Aggregator) TodayStats(orders []trade.SalesOrder, now time.Time) StatBucket {
	return a.LastN(orders, GranularityDay, 1, now)[0]
}

// TopProducts ranks products by units sold, then by revenue, both descending.
// A non-positive limit returns every product.
func (a *Aggregator) TopProducts(orders []trade.SalesOrder, limit int) []TopProductEntry {
	byProduct := make(map[int64]*TopProductEntry)
	for i := range orders {
		o := &orders[i]
		if o.Status == trade.OrderStatusCancelled {
			continue
		}
		entry, ok := byProduct[o.ProductID]
		if !ok {
			entry = &TopProductEntry{
				ProductID:    o.ProductID,
				ProductName:  a.productName(o),
				TotalRevenue: decimal.Zero,
				TotalProfit:  decimal.Zero,
			}
			byProduct[o.ProductID] = entry
		}
		entry.TotalSold += o.Quantity
		entry.TotalRevenue = entry.TotalRevenue.Add(o.TotalAmount())
		entry.TotalProfit = entry.TotalProfit.Add(a.profitOf(o))
	}

	ranked := make([]TopProductEntry, 0, len(byProduct))
	for _, e := range byProduct {
		ranked = append(ranked, *e)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].TotalSold != ranked[j].TotalSold {
			return ranked[i].TotalSold > ranked[j].TotalSold
		}
		if c := ranked[i].TotalRevenue.Cmp(ranked[j].TotalRevenue); c != 0 {
			return c > 0
		}
		return ranked[i].ProductID < ranked[j].ProductID
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func (a *Aggregator) profitOf(o *trade.SalesOrder) decimal.Decimal {
	cost, ok := a.unitCost(o)
	if !ok {
		return decimal.Zero
	}
	return o.UnitPrice.Sub(cost).Mul(decimal.NewFromInt(int64(o.Quantity)))
}

func (a *Aggregator) unitCost(o *trade.SalesOrder) (decimal.Decimal, bool) {
	if o.UnitCost.Valid {
		return o.UnitCost.Decimal, true
	}
	if p, ok := a.catalog[o.ProductID]; ok {
		return p.PurchasePrice, true
	}
	return decimal.Zero, false
}

func (a *Aggregator) productName(o *trade.SalesOrder) string {
	if o.ProductName != "" {
		return o.ProductName
	}
	return a.catalog[o.ProductID].Name
}
