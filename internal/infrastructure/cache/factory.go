package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ProductListCache is implemented by both listing cache backends
type ProductListCache interface {
	Fetch(ctx context.Context, query string, load Loader) ([]byte, error)
	Invalidate(ctx context.Context) error
}

// Factory builds the Redis-backed stores when Redis is enabled and reachable,
// and the in-memory ones otherwise
type Factory struct {
	client                redis.UniversalClient
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption configures a Factory
type FactoryOption func(*Factory)

func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis is an error. Default true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// WithClient injects an existing client instead of dialing one
func WithClient(client redis.UniversalClient) FactoryOption {
	return func(f *Factory) {
		f.client = client
	}
}

// NewFactory connects to Redis when cfg.Enabled is set
func NewFactory(ctx context.Context, cfg config.RedisConfig, opts ...FactoryOption) (*Factory, error) {
	f := &Factory{
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client != nil || !cfg.Enabled {
		return f, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("redis required but unavailable: %w", err)
		}
		f.logger.Warn("redis unavailable, falling back to in-memory caches", zap.Error(err))
		return f, nil
	}

	f.client = client
	f.logger.Info("connected to redis", zap.String("addr", cfg.Addr()))
	return f, nil
}

// RedisEnabled reports whether the factory holds a live client
func (f *Factory) RedisEnabled() bool {
	return f.client != nil
}

// Client returns the Redis client, or nil when running in-memory
func (f *Factory) Client() redis.UniversalClient {
	return f.client
}

// IdempotencyStore returns the store used by idempotent event handlers
func (f *Factory) IdempotencyStore() shared.IdempotencyStore {
	if f.client != nil {
		return NewRedisIdempotencyStore(f.client, "")
	}
	f.logger.Warn("using in-memory idempotency store; duplicate notifications are possible across instances")
	return NewInMemoryIdempotencyStore()
}

// ProductListCache returns the listing cache
func (f *Factory) ProductListCache(ttl time.Duration) ProductListCache {
	if f.client != nil {
		return NewRedisProductListCache(f.client, ttl, f.logger)
	}
	return NewInMemoryProductListCache(ttl)
}

// Close releases the Redis client
func (f *Factory) Close() error {
	if f.client == nil {
		return nil
	}
	return f.client.Close()
}
