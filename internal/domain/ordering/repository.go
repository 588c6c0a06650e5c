package ordering

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// FindByID loads an order with its lines
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByUser lists a buyer's orders with lines, newest first
	FindByUser(ctx context.Context, userID uuid.UUID, page, perPage int) (shared.Paginated[Order], error)

	// Create inserts the order header and any lines it already carries
	Create(ctx context.Context, order *Order) error

	// AddLines inserts lines for an existing order, keeping their slice order
	AddLines(ctx context.Context, orderID uuid.UUID, lines []OrderLine) error

	// UpdateTotal persists the finalized total and status
	UpdateTotal(ctx context.Context, order *Order) error
}
