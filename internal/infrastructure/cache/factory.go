package cache

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Cache is the interface implemented by both caches
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Cache drivers
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Factory creates caches based on configuration
type Factory struct {
	driver                string
	redisConfig           RedisConfig
	cleanupInterval       time.Duration
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to memory when Redis is unavailable.
// Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// WithCleanupInterval sets the eviction interval of in-memory caches
func WithCleanupInterval(d time.Duration) FactoryOption {
	return func(f *Factory) {
		f.cleanupInterval = d
	}
}

// NewFactory creates a new factory
func NewFactory(driver string, redisCfg RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		driver:                driver,
		redisConfig:           redisCfg,
		cleanupInterval:       5 * time.Minute,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateRedisCache creates a Redis-backed cache
func (f *Factory) CreateRedisCache() (Cache, error) {
	c, err := NewRedisCache(f.redisConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis cache: %w", err)
	}
	return c, nil
}

// CreateInMemoryCache creates an in-memory cache. Entries are not shared
// between process instances.
func (f *Factory) CreateInMemoryCache() Cache {
	return NewInMemoryCache(f.cleanupInterval)
}

// Create returns the configured cache. With the redis driver it falls back to
// memory when Redis is unreachable and fallback is allowed.
func (f *Factory) Create() (Cache, error) {
	switch f.driver {
	case "", DriverMemory:
		f.logger.Info("using in-memory item cache")
		return f.CreateInMemoryCache(), nil
	case DriverRedis:
	default:
		return nil, fmt.Errorf("unknown cache driver %q", f.driver)
	}

	c, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("using Redis item cache", zap.String("addr", f.redisConfig.Addr()))
		return c, nil
	}
	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for item cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory item cache", zap.Error(err))
	return f.CreateInMemoryCache(), nil
}

var (
	_ Cache = (*InMemoryCache)(nil)
	_ Cache = (*RedisCache)(nil)
)
