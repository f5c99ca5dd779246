package cache

import (
	"go.uber.org/zap"
)

// StoreFactory picks a Store implementation from configuration
type StoreFactory struct {
	redisEnabled          bool
	redisConfig           RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// StoreFactoryOption is a functional option for configuring the factory
type StoreFactoryOption func(*StoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// WithRedis enables Redis with the given connection settings
func WithRedis(cfg RedisConfig) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.redisEnabled = true
		f.redisConfig = cfg
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// the in-memory store. Default is true.
func WithInMemoryFallback(allow bool) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewStoreFactory creates a new factory
func NewStoreFactory(opts ...StoreFactoryOption) *StoreFactory {
	f := &StoreFactory{
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore returns a Redis store when Redis is enabled and reachable,
// otherwise an in-memory store if fallback is allowed.
func (f *StoreFactory) CreateStore() (Store, error) {
	if !f.redisEnabled {
		f.logger.Info("using in-memory dashboard cache")
		return NewInMemoryStore(WithInMemoryLogger(f.logger)), nil
	}

	store, err := NewRedisStore(f.redisConfig)
	if err == nil {
		f.logger.Info("using Redis dashboard cache", zap.String("addr", f.redisConfig.Addr))
		return store, nil
	}
	if !f.allowInMemoryFallback {
		return nil, err
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory dashboard cache. "+
		"Instances will not share cached dashboards.",
		zap.Error(err),
	)
	return NewInMemoryStore(WithInMemoryLogger(f.logger)), nil
}
