package catalog

import (
	"sort"
	"strings"

	"github.com/retaildesk/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DefaultLowStockThreshold is the on-hand quantity at or below which a product counts as low stock.
const DefaultLowStockThreshold = 10

// Product is a read-only projection of a catalog entry owned by the data service.
type Product struct {
	ID             int64
	Name           string
	Category       string
	Size           string
	Color          string
	PurchasePrice  decimal.Decimal
	SellingPrice   decimal.Decimal
	QuantityOnHand int
}

// ProfitPerUnit returns sellingPrice - purchasePrice
func (p Product) ProfitPerUnit() decimal.Decimal {
	return p.SellingPrice.Sub(p.PurchasePrice)
}

// IsLowStock reports whether the on-hand quantity is at or below threshold
func (p Product) IsLowStock(threshold int) bool {
	return p.QuantityOnHand <= threshold
}

// Validate checks the non-negativity invariants on prices and stock
func (p Product) Validate() error {
	if p.PurchasePrice.IsNegative() || p.SellingPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRODUCT", "product prices cannot be negative")
	}
	if p.QuantityOnHand < 0 {
		return shared.NewDomainError("INVALID_PRODUCT", "product quantity cannot be negative")
	}
	return nil
}

// Snapshot is a point-in-time read of the catalog keyed by product id.
type Snapshot map[int64]Product

// NewSnapshot indexes products by id. Later duplicates win.
func NewSnapshot(products []Product) Snapshot {
	s := make(Snapshot, len(products))
	for _, p := range products {
		s[p.ID] = p
	}
	return s
}

// Products returns the snapshot's products ordered by id.
func (s Snapshot) Products() []Product {
	out := make([]Product, 0, len(s))
	for _, p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LowStockCount counts products with quantityOnHand <= threshold.
// A negative threshold is replaced by DefaultLowStockThreshold.
func LowStockCount(products []Product, threshold int) int {
	if threshold < 0 {
		threshold = DefaultLowStockThreshold
	}
	n := 0
	for _, p := range products {
		if p.IsLowStock(threshold) {
			n++
		}
	}
	return n
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
