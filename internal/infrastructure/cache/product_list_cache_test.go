package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingLoader(calls *atomic.Int32, payload string) Loader {
	return func(context.Context) ([]byte, error) {
		calls.Add(1)
		return []byte(payload), nil
	}
}

func TestProductListKey(t *testing.T) {
	a := ProductListKey("categories=books&page=1&per_page=15")
	b := ProductListKey("categories=books&page=2&per_page=15")

	assert.Len(t, a, 40)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, ProductListKey("categories=books&page=1&per_page=15"))
}

func TestInMemoryProductListCache_Fetch(t *testing.T) {
	c := NewInMemoryProductListCache(time.Minute)
	ctx := context.Background()
	var calls atomic.Int32

	data, err := c.Fetch(ctx, "page=1", countingLoader(&calls, `{"data":[]}`))
	require.NoError(t, err)
	assert.Equal(t, `{"data":[]}`, string(data))

	data, err = c.Fetch(ctx, "page=1", countingLoader(&calls, `ignored`))
	require.NoError(t, err)
	assert.Equal(t, `{"data":[]}`, string(data))
	assert.Equal(t, int32(1), calls.Load())

	_, err = c.Fetch(ctx, "page=2", countingLoader(&calls, `{}`))
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 2, c.Len())
}

func TestInMemoryProductListCache_Expiry(t *testing.T) {
	c := NewInMemoryProductListCache(time.Minute)
	clock := time.Now()
	c.now = func() time.Time { return clock }
	var calls atomic.Int32

	_, _ = c.Fetch(context.Background(), "q", countingLoader(&calls, "a"))
	clock = clock.Add(2 * time.Minute)
	_, _ = c.Fetch(context.Background(), "q", countingLoader(&calls, "b"))

	assert.Equal(t, int32(2), calls.Load())
}

func TestInMemoryProductListCache_Invalidate(t *testing.T) {
	c := NewInMemoryProductListCache(0)
	ctx := context.Background()
	var calls atomic.Int32

	_, _ = c.Fetch(ctx, "q", countingLoader(&calls, "a"))
	require.NoError(t, c.Invalidate(ctx))
	assert.Equal(t, 0, c.Len())

	data, err := c.Fetch(ctx, "q", countingLoader(&calls, "b"))
	require.NoError(t, err)
	assert.Equal(t, "b", string(data))
	assert.Equal(t, int32(2), calls.Load())
}

func TestInMemoryProductListCache_LoadErrorNotCached(t *testing.T) {
	c := NewInMemoryProductListCache(time.Minute)
	boom := errors.New("db down")

	_, err := c.Fetch(context.Background(), "q", func(context.Context) ([]byte, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())
}

func TestInMemoryProductListCache_CollapsesConcurrentMisses(t *testing.T) {
	c := NewInMemoryProductListCache(time.Minute)
	var calls atomic.Int32
	release := make(chan struct{})

	slow := func(context.Context) ([]byte, error) {
		calls.Add(1)
		<-release
		return []byte("page"), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := c.Fetch(context.Background(), "q", slow)
			assert.NoError(t, err)
			assert.Equal(t, "page", string(data))
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, calls.Load(), int32(2))
}

func TestNewFactory_RedisDisabled(t *testing.T) {
	f, err := NewFactory(context.Background(), config.RedisConfig{Enabled: false})
	require.NoError(t, err)
	defer f.Close()

	assert.False(t, f.RedisEnabled())
	assert.Nil(t, f.Client())
	assert.IsType(t, &InMemoryIdempotencyStore{}, f.IdempotencyStore())
	assert.IsType(t, &InMemoryProductListCache{}, f.ProductListCache(time.Minute))
}

func TestNewFactory_UnreachableRedis(t *testing.T) {
	cfg := config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

	t.Run("falls back by default", func(t *testing.T) {
		f, err := NewFactory(context.Background(), cfg)
		require.NoError(t, err)
		assert.False(t, f.RedisEnabled())
	})

	t.Run("fails when fallback is disabled", func(t *testing.T) {
		_, err := NewFactory(context.Background(), cfg, WithInMemoryFallback(false))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis required")
	})
}
