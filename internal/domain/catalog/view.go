package catalog

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// View is the product picker used when entering an order line.
// It reads from a snapshot and never mutates it.
type View struct {
	snapshot Snapshot
}

// NewView creates a view over the given snapshot
func NewView(snapshot Snapshot) *View {
	return &View{snapshot: snapshot}
}

// Available returns products with stock on hand, ordered by name then id.
func (v *View) Available() []Product {
	out := make([]Product, 0, len(v.snapshot))
	for _, p := range v.snapshot {
		if p.QuantityOnHand > 0 {
			out = append(out, p)
		}
	}
	sortByName(out)
	return out
}

// Search filters available products by a case-insensitive match on
// name, category, size or color. An empty term returns Available().
func (v *View) Search(term string) []Product {
	term = normalize(term)
	available := v.Available()
	if term == "" {
		return available
	}
	out := available[:0]
	for _, p := range available {
		if matches(p, term) {
			out = append(out, p)
		}
	}
	return out
}

// Lookup returns the product with the given id.
func (v *View) Lookup(id int64) (Product, bool) {
	p, ok := v.snapshot[id]
	return p, ok
}

// DefaultUnitPrice returns the product's current selling price, used to
// prefill the unit price of a new order line.
func (v *View) DefaultUnitPrice(id int64) (decimal.Decimal, bool) {
	p, ok := v.snapshot[id]
	if !ok {
		return decimal.Zero, false
	}
	return p.SellingPrice, true
}

func matches(p Product, term string) bool {
	for _, field := range []string{p.Name, p.Category, p.Size, p.Color} {
		if strings.Contains(normalize(field), term) {
			return true
		}
	}
	return false
}

func sortByName(products []Product) {
	sort.Slice(products, func(i, j int) bool {
		a, b := normalize(products[i].Name), normalize(products[j].Name)
		if a != b {
			return a < b
		}
		return products[i].ID < products[j].ID
	})
}
