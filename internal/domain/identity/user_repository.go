package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository stores storefront accounts. Lookups that find nothing return
// shared.ErrNotFound.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	// Update writes the mutable profile and login columns
	Update(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	// FindByEmail matches the normalised (trimmed, lower-case) address
	FindByEmail(ctx context.Context, email string) (*User, error)
	Count(ctx context.Context) (int64, error)
}
