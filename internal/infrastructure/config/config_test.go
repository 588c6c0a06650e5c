package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "storefront-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "storefront", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10*time.Second, cfg.Order.PlacementTimeout)
		assert.Equal(t, 10, cfg.Order.ListPageSize)
		assert.Equal(t, 15, cfg.Catalog.DefaultPerPage)
		assert.Equal(t, 100, cfg.Catalog.MaxPerPage)
		assert.Equal(t, 5*time.Minute, cfg.Catalog.CacheTTL)
		assert.Equal(t, []string{"log"}, cfg.Notification.Sinks)
		assert.Equal(t, "orders.placed", cfg.Notification.Kafka.Topic)
		assert.Equal(t, "storefront.events", cfg.Notification.RabbitMQ.Exchange)
		assert.Equal(t, "order.placed", cfg.Notification.RabbitMQ.RoutingKey)
		assert.False(t, cfg.Redis.Enabled)
	})

	t.Run("loads values from environment variables with SHOP prefix", func(t *testing.T) {
		t.Setenv("SHOP_APP_PORT", "9000")
		t.Setenv("SHOP_DATABASE_HOST", "db.internal")
		t.Setenv("SHOP_DATABASE_PASSWORD", "secret")
		t.Setenv("SHOP_ORDER_PLACEMENT_TIMEOUT", "3s")
		t.Setenv("SHOP_REDIS_ENABLED", "true")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "db.internal", cfg.Database.Host)
		assert.Equal(t, "secret", cfg.Database.Password)
		assert.Equal(t, 3*time.Second, cfg.Order.PlacementTimeout)
		assert.True(t, cfg.Redis.Enabled)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		t.Setenv("SHOP_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("SHOP_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects unknown notification sink", func(t *testing.T) {
		t.Setenv("SHOP_NOTIFICATION_SINKS", "pigeon")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown sink")
	})

	t.Run("kafka sink requires brokers", func(t *testing.T) {
		t.Setenv("SHOP_NOTIFICATION_SINKS", "kafka")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "kafka.brokers")
	})

	t.Run("production requires a strong jwt secret", func(t *testing.T) {
		t.Setenv("SHOP_APP_ENV", "production")
		t.Setenv("SHOP_DATABASE_PASSWORD", "pw")
		t.Setenv("SHOP_DATABASE_SSLMODE", "require")
		t.Setenv("SHOP_JWT_SECRET", "short")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret")
	})
}

func TestValidate_Catalog(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Catalog.DefaultPerPage = 200

	err := cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default_per_page")
}

func TestValidate_Storage(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Storage.Enabled = true

	err := cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.bucket")
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "shop",
		Password: "p@ss:word/",
		DBName:   "storefront",
		SSLMode:  "disable",
	}

	dsn := d.DSN()
	assert.Contains(t, dsn, "p%40ss%3Aword%2F@localhost:5432/storefront")
	assert.Contains(t, dsn, "sslmode=disable")
}
