package catalog

import "context"

// Reader provides catalog snapshots. Implementations must reflect stock at
// the time of the call.
type Reader interface {
	FetchCatalogSnapshot(ctx context.Context) (Snapshot, error)
}
