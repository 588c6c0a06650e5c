package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormUserRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormUserRepository(db)
	ctx := context.Background()

	user, err := identity.NewUser("Test User", "Test@Example.com", "password123")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, user))

	t.Run("finds by email ignoring case", func(t *testing.T) {
		found, err := repo.FindByEmail(ctx, "TEST@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)
		assert.True(t, found.VerifyPassword("password123"))
	})

	t.Run("records login", func(t *testing.T) {
		user.RecordLogin()
		require.NoError(t, repo.Update(ctx, user))

		found, err := repo.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.NotNil(t, found.LastLoginAt)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		dup, err := identity.NewUser("Other", "test@example.com", "password123")
		require.NoError(t, err)
		assert.Error(t, repo.Create(ctx, dup))
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)

		ghost, err := identity.NewUser("Ghost", "ghost@example.com", "password123")
		require.NoError(t, err)
		assert.ErrorIs(t, repo.Update(ctx, ghost), shared.ErrNotFound)
	})

	t.Run("Count", func(t *testing.T) {
		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}
