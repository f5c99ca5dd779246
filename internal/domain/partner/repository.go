package partner

import "context"

// Reader lists the partners known to the data service
type Reader interface {
	FetchCustomers(ctx context.Context) ([]Customer, error)
	FetchSuppliers(ctx context.Context) ([]Supplier, error)
}
