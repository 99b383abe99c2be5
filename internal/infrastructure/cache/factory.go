package cache

import (
	"github.com/propman/backend/internal/domain/shared"
	"github.com/propman/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// IdempotencyStoreFactory creates the idempotency store backing the
// completion endpoint's duplicate-request protection.
type IdempotencyStoreFactory struct {
	redisConfig      config.RedisConfig
	logger           *zap.Logger
	inMemoryFallback bool
}

// FactoryOption configures the factory
type FactoryOption func(*IdempotencyStoreFactory)

// WithLogger sets the logger used to report fallback decisions
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback enables falling back to the in-memory store when
// Redis is unreachable. Single-instance deployments only: in-memory state
// is not shared across processes.
func WithInMemoryFallback() FactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.inMemoryFallback = true
	}
}

// NewIdempotencyStoreFactory creates a factory for the given Redis config
func NewIdempotencyStoreFactory(redisConfig config.RedisConfig, opts ...FactoryOption) *IdempotencyStoreFactory {
	f := &IdempotencyStoreFactory{
		redisConfig: redisConfig,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore creates an idempotency store, preferring Redis and falling
// back to in-memory when enabled
func (f *IdempotencyStoreFactory) CreateStore() (shared.IdempotencyStore, error) {
	store, err := NewRedisIdempotencyStore(f.redisConfig)
	if err == nil {
		f.logger.Info("using Redis idempotency store",
			zap.String("addr", f.redisConfig.Addr()))
		return store, nil
	}

	if !f.inMemoryFallback {
		return nil, err
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory idempotency store",
		zap.String("addr", f.redisConfig.Addr()),
		zap.Error(err))
	return NewInMemoryIdempotencyStore(), nil
}
