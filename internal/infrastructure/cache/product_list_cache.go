package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultProductListTTL = 5 * time.Minute

	productListPrefix     = "products:"
	productListGeneration = "products:generation"
)

// Loader produces the encoded listing page on a cache miss
type Loader = func(ctx context.Context) ([]byte, error)

// ProductListKey hashes a normalized listing query into a cache key suffix
func ProductListKey(normalizedQuery string) string {
	sum := sha1.Sum([]byte(normalizedQuery))
	return hex.EncodeToString(sum[:])
}

// RedisProductListCache is a cache-aside store for product listing pages.
// Keys embed a generation number; Invalidate bumps the generation so every
// cached page is bypassed at once and the stale keys age out through their TTL.
type RedisProductListCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
	group  singleflight.Group
}

// NewRedisProductListCache creates the cache on a shared client
func NewRedisProductListCache(client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *RedisProductListCache {
	if ttl <= 0 {
		ttl = DefaultProductListTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisProductListCache{client: client, ttl: ttl, logger: logger}
}

// Fetch returns the cached page for query, loading and storing it on a miss.
// Concurrent misses for the same key share one load. Redis errors degrade to
// calling load directly.
func (c *RedisProductListCache) Fetch(ctx context.Context, query string, load Loader) ([]byte, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		c.logger.Warn("product list cache unavailable", zap.Error(err))
		return load(ctx)
	}
	key := fmt.Sprintf("%sv%d:%s", productListPrefix, gen, ProductListKey(query))

	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, redis.Nil) {
		c.logger.Warn("failed to read product list cache", zap.String("key", key), zap.Error(err))
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		data, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if setErr := c.client.Set(ctx, key, data, c.ttl).Err(); setErr != nil {
			c.logger.Warn("failed to write product list cache", zap.String("key", key), zap.Error(setErr))
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Invalidate drops every cached listing page
func (c *RedisProductListCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, productListGeneration).Err(); err != nil {
		return fmt.Errorf("failed to invalidate product list cache: %w", err)
	}
	return nil
}

func (c *RedisProductListCache) generation(ctx context.Context) (int64, error) {
	raw, err := c.client.Get(ctx, productListGeneration).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

type listEntry struct {
	data      []byte
	expiresAt time.Time
}

// InMemoryProductListCache is the single-instance fallback used when Redis is disabled
type InMemoryProductListCache struct {
	mu      sync.RWMutex
	entries map[string]listEntry
	ttl     time.Duration
	group   singleflight.Group
	now     func() time.Time
}

func NewInMemoryProductListCache(ttl time.Duration) *InMemoryProductListCache {
	if ttl <= 0 {
		ttl = DefaultProductListTTL
	}
	return &InMemoryProductListCache{
		entries: make(map[string]listEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *InMemoryProductListCache) Fetch(ctx context.Context, query string, load Loader) ([]byte, error) {
	key := ProductListKey(query)

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.now().Before(e.expiresAt) {
		return e.data, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		data, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = listEntry{data: data, expiresAt: c.now().Add(c.ttl)}
		c.mu.Unlock()
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *InMemoryProductListCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]listEntry)
	c.mu.Unlock()
	return nil
}

// Len returns the number of cached pages
func (c *InMemoryProductListCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
