package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// ProductFilter holds the catalog listing filters.
// Zero values mean "not applied".
type ProductFilter struct {
	Search     string
	Name       string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Categories []string
	Page       int
	PerPage    int
}

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByIDs finds multiple products by their IDs; missing IDs are skipped
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)

	// FindActive lists active products matching the filter, sorted by name
	FindActive(ctx context.Context, filter ProductFilter) (shared.Paginated[Product], error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error

	// Count counts all products
	Count(ctx context.Context) (int64, error)
}

// StockRepository is the transactional view of products used by order placement.
// Implementations must be bound to an open transaction.
type StockRepository interface {
	// LockForUpdate loads the given products with a row-level write lock,
	// acquired in ascending ID order.
	LockForUpdate(ctx context.Context, ids []uuid.UUID) ([]Product, error)

	// DecrementStock removes qty units only if at least qty are available.
	// Returns a StockInsufficient error when the conditional update affects no row.
	DecrementStock(ctx context.Context, product *Product, qty int) error
}
