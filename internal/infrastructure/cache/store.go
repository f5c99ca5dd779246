// Package cache stores serialized read models, such as the dashboard summary,
// in memory or in Redis.
package cache

import (
	"context"
	"time"
)

// Store is a byte-oriented cache with per-entry TTL.
// Get reports a miss with ok == false and a nil error.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
