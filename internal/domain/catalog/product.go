package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// Product is a sellable catalog item.
// The order placement flow mutates it only through DecreaseStock, after the
// stock repository has applied the same decrement to the locked row.
type Product struct {
	shared.BaseAggregateRoot
	Name          string
	ImageKey      string
	Price         decimal.Decimal
	StockQuantity int
	Category      string
	IsActive      bool
}

// NewProduct creates a new active product
func NewProduct(name string, price decimal.Decimal, stock int) (*Product, error) {
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	if stock < 0 {
		return nil, shared.NewDomainError("INVALID_STOCK", "Stock quantity cannot be negative")
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              strings.TrimSpace(name),
		Price:             price.Round(valueobject.MoneyScale),
		StockQuantity:     stock,
		IsActive:          true,
	}, nil
}

// SetCategory sets the product category; empty clears it
func (p *Product) SetCategory(category string) {
	p.Category = strings.TrimSpace(category)
	p.Touch()
}

func (p *Product) SetImageKey(key string) {
	p.ImageKey = strings.TrimSpace(key)
	p.Touch()
}

func (p *Product) Activate() {
	p.IsActive = true
	p.Touch()
}

func (p *Product) Deactivate() {
	p.IsActive = false
	p.Touch()
}

// InStock reports whether at least one unit is available
func (p *Product) InStock() bool {
	return p.StockQuantity > 0
}

// CanFulfil reports whether qty units can be taken from stock
func (p *Product) CanFulfil(qty int) bool {
	return p.IsActive && qty > 0 && p.StockQuantity >= qty
}

// DecreaseStock removes qty units from stock.
// Stock never goes below zero; an insufficient quantity returns a StockInsufficient error.
func (p *Product) DecreaseStock(qty int) error {
	if qty <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1.")
	}
	if p.StockQuantity < qty {
		return NewStockInsufficientError(p.Name, p.StockQuantity)
	}
	p.StockQuantity -= qty
	p.Touch()
	return nil
}

// UnitPrice returns the current price as Money
func (p *Product) UnitPrice() valueobject.Money {
	return valueobject.FromDecimal(p.Price)
}

func validateProductName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 255 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 255 characters")
	}
	return nil
}
