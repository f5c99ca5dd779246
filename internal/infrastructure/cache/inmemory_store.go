package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const defaultCleanupInterval = 30 * time.Second

// InMemoryStore implements Store in process memory. State is not shared
// between instances.
type InMemoryStore struct {
	entries sync.Map // map[string]*cacheEntry
	logger  *zap.Logger
	now     func() time.Time
	stopCh  chan struct{}
	stopped atomic.Bool

	hits   atomic.Int64
	misses atomic.Int64
}

type cacheEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func (e *cacheEntry) isExpired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// InMemoryStoreOption configures an InMemoryStore
type InMemoryStoreOption func(*InMemoryStore)

// WithInMemoryLogger sets the logger
func WithInMemoryLogger(logger *zap.Logger) InMemoryStoreOption {
	return func(s *InMemoryStore) {
		s.logger = logger
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) InMemoryStoreOption {
	return func(s *InMemoryStore) {
		s.now = now
	}
}

// NewInMemoryStore creates a store and starts its cleanup goroutine.
// Call Close to stop it.
func NewInMemoryStore(opts ...InMemoryStoreOption) *InMemoryStore {
	s := &InMemoryStore{
		logger: zap.NewNop(),
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.cleanupExpired()
	return s
}

// Get returns a copy of the cached value
func (s *InMemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	if v, ok := s.entries.Load(key); ok {
		entry := v.(*cacheEntry)
		if !entry.isExpired(s.now()) {
			s.hits.Add(1)
			out := make([]byte, len(entry.value))
			copy(out, entry.value)
			return out, true, nil
		}
		s.entries.Delete(key)
	}
	s.misses.Add(1)
	return nil, false, nil
}

// Set stores a copy of value. A non-positive ttl never expires.
func (s *InMemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := &cacheEntry{value: make([]byte, len(value))}
	copy(entry.value, value)
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.entries.Store(key, entry)
	return nil
}

// Delete removes key
func (s *InMemoryStore) Delete(_ context.Context, key string) error {
	s.entries.Delete(key)
	return nil
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (s *InMemoryStore) Close() error {
	if s.stopped.CompareAndSwap(false, true) {
		close(s.stopCh)
	}
	return nil
}

// GetStats returns hit and miss counts
func (s *InMemoryStore) GetStats() (hits, misses int64) {
	return s.hits.Load(), s.misses.Load()
}

// Count returns the number of stored entries, expired ones included
func (s *InMemoryStore) Count() int {
	n := 0
	s.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (s *InMemoryStore) cleanupExpired() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						s.logger.Error("Panic in cache cleanup", zap.Any("panic", r))
					}
				}()
				s.doCleanup()
			}()
		}
	}
}

func (s *InMemoryStore) doCleanup() {
	now := s.now()
	s.entries.Range(func(key, value any) bool {
		if value.(*cacheEntry).isExpired(now) {
			s.entries.Delete(key)
		}
		return true
	})
}

var _ Store = (*InMemoryStore)(nil)
