package storage

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validStorageConfig() *config.StorageConfig {
	return &config.StorageConfig{
		Enabled:      true,
		Endpoint:     "http://localhost:9000",
		Region:       "eu-west-1",
		Bucket:       "products",
		AccessKeyID:  "test-key",
		SecretKey:    "test-secret",
		UsePathStyle: true,
	}
}

func TestNewS3ImageStorage_Validation(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := NewS3ImageStorage(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket", func(t *testing.T) {
		cfg := validStorageConfig()
		cfg.Bucket = ""
		_, err := NewS3ImageStorage(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("missing credentials", func(t *testing.T) {
		cfg := validStorageConfig()
		cfg.SecretKey = ""
		_, err := NewS3ImageStorage(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "credentials")
	})

	t.Run("defaults presign expiration", func(t *testing.T) {
		s, err := NewS3ImageStorage(validStorageConfig())
		require.NoError(t, err)
		assert.Equal(t, defaultPresignExpiration, s.presignExpiration)
		assert.Equal(t, "products", s.Bucket())
	})
}

func TestS3ImageStorage_ImageURL(t *testing.T) {
	cfg := validStorageConfig()
	cfg.PresignExpires = 10 * time.Minute
	s, err := NewS3ImageStorage(cfg)
	require.NoError(t, err)

	raw, err := s.ImageURL(context.Background(), "images/mug.jpg")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/products/images/mug.jpg", u.Path)
	assert.Equal(t, "600", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))

	empty, err := s.ImageURL(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStaticImageURLs(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		baseURL string
		key     string
		want    string
	}{
		{"joins base and key", "https://cdn.example.com/", "/images/mug.jpg", "https://cdn.example.com/images/mug.jpg"},
		{"absolute keys pass through", "https://cdn.example.com", "https://img.example.com/a.png", "https://img.example.com/a.png"},
		{"no base gives a root path", "", "images/mug.jpg", "/images/mug.jpg"},
		{"empty key", "https://cdn.example.com", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewStaticImageURLs(tt.baseURL).ImageURL(ctx, tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
