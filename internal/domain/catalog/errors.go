package catalog

import (
	"fmt"

	"github.com/storefront/backend/internal/domain/shared"
)

// StockShortage identifies the product that could not be fulfilled
type StockShortage struct {
	ProductName string `json:"product_name"`
	Available   int    `json:"available"`
}

// NewStockInsufficientError reports a product whose stock is below the requested quantity
func NewStockInsufficientError(productName string, available int) *shared.DomainError {
	return shared.ErrInsufficientStock.
		WithMessage(fmt.Sprintf("Insufficient stock for product: %s. Available: %d", productName, available)).
		WithDetails(StockShortage{ProductName: productName, Available: available})
}
