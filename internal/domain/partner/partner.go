// Package partner holds the customers and suppliers the console references by id.
package partner

import "time"

// Customer is a buyer referenced by sales orders
type Customer struct {
	ID        int64
	Name      string
	Phone     string
	Email     string
	Address   string
	Notes     string
	CreatedAt time.Time
}

// Supplier is a vendor the shop buys from
type Supplier struct {
	ID      int64
	Name    string
	Company string
	Phone   string
	Email   string
	Address string
}

// CustomerIndex resolves customers by id.
type CustomerIndex map[int64]Customer

// NewCustomerIndex indexes customers by id
func NewCustomerIndex(customers []Customer) CustomerIndex {
	idx := make(CustomerIndex, len(customers))
	for _, c := range customers {
		idx[c.ID] = c
	}
	return idx
}
