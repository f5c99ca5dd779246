package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T) (*InMemoryStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)}
	store := NewInMemoryStore(WithClock(clock.Now))
	t.Cleanup(func() { _ = store.Close() })
	return store, clock
}

func TestInMemoryStore_GetSet(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	value, ok, err := store.Get(ctx, "dashboard")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, value)

	require.NoError(t, store.Set(ctx, "dashboard", []byte(`{"a":1}`), time.Minute))

	value, ok, err = store.Get(ctx, "dashboard")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"a":1}`, string(value))

	hits, misses := store.GetStats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestInMemoryStore_Expiry(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))

	clock.Advance(59 * time.Second)
	_, ok, _ := store.Get(ctx, "k")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok, _ = store.Get(ctx, "k")
	assert.False(t, ok, "entry expires exactly at its ttl")
	assert.Zero(t, store.Count())
}

func TestInMemoryStore_ZeroTTLNeverExpires(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 0))
	clock.Advance(24 * time.Hour)

	_, ok, _ := store.Get(ctx, "k")
	assert.True(t, ok)
}

func TestInMemoryStore_CopiesValues(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	buf := []byte("abc")
	require.NoError(t, store.Set(ctx, "k", buf, time.Minute))
	buf[0] = 'x'

	got, _, _ := store.Get(ctx, "k")
	assert.Equal(t, "abc", string(got))
	got[0] = 'y'

	again, _, _ := store.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestInMemoryStore_Delete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, store.Delete(ctx, "k"))

	_, ok, _ := store.Get(ctx, "k")
	assert.False(t, ok)
	require.NoError(t, store.Delete(ctx, "missing"))
}

func TestInMemoryStore_Cleanup(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "short", []byte("v"), time.Second))
	require.NoError(t, store.Set(ctx, "long", []byte("v"), time.Hour))
	clock.Advance(time.Minute)

	store.doCleanup()
	assert.Equal(t, 1, store.Count())
}

func TestInMemoryStore_CloseIsIdempotent(t *testing.T) {
	store := NewInMemoryStore()
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}

func TestStoreFactory(t *testing.T) {
	t.Run("in-memory when redis is disabled", func(t *testing.T) {
		store, err := NewStoreFactory().CreateStore()
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryStore{}, store)
	})

	t.Run("falls back when redis is unreachable", func(t *testing.T) {
		store, err := NewStoreFactory(WithRedis(RedisConfig{Addr: "127.0.0.1:1"})).CreateStore()
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryStore{}, store)
	})

	t.Run("fails without fallback", func(t *testing.T) {
		_, err := NewStoreFactory(
			WithRedis(RedisConfig{Addr: "127.0.0.1:1"}),
			WithInMemoryFallback(false),
		).CreateStore()
		assert.Error(t, err)
	})
}
