package ordering

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusCart      OrderStatus = "cart"
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusCart, OrderStatusPending, OrderStatusConfirmed, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) String() string {
	return string(s)
}

// OrderLine is one product on an order with its price captured at placement
type OrderLine struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal // snapshot, never re-read from the product
	Subtotal    decimal.Decimal // UnitPrice * Quantity
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewOrderLine creates a line with a price snapshot
func NewOrderLine(orderID, productID uuid.UUID, productName string, quantity int, unitPrice valueobject.Money) (*OrderLine, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1.")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	now := time.Now()
	return &OrderLine{
		ID:          uuid.New(),
		OrderID:     orderID,
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		UnitPrice:   unitPrice.Amount(),
		Subtotal:    unitPrice.MultiplyByInt(int64(quantity)).Amount(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// SubtotalMoney returns the line subtotal as Money
func (l *OrderLine) SubtotalMoney() valueobject.Money {
	return valueobject.FromDecimal(l.Subtotal)
}

// Order is the aggregate root for a buyer's purchase.
// TotalAmount always equals the exact sum of line subtotals once finalized.
type Order struct {
	shared.BaseAggregateRoot
	UserID      uuid.UUID
	Status      OrderStatus
	TotalAmount decimal.Decimal
	Lines       []OrderLine
	finalized   bool
}

// NewOrder creates a pending order with a zero total
func NewOrder(userID uuid.UUID) (*Order, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BUYER", "Buyer cannot be empty")
	}

	return &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		Status:            OrderStatusPending,
		TotalAmount:       decimal.Zero,
		Lines:             make([]OrderLine, 0),
	}, nil
}

// AddLine appends a line in caller order and returns it
func (o *Order) AddLine(productID uuid.UUID, productName string, quantity int, unitPrice valueobject.Money) (*OrderLine, error) {
	if o.finalized {
		return nil, shared.NewDomainError("ORDER_FINALIZED", "Cannot add lines to a finalized order")
	}

	line, err := NewOrderLine(o.ID, productID, productName, quantity, unitPrice)
	if err != nil {
		return nil, err
	}

	o.Lines = append(o.Lines, *line)
	o.Touch()
	return line, nil
}

// Finalize sets the total from the lines and raises OrderPlaced.
// An order without lines cannot be finalized.
func (o *Order) Finalize() error {
	if o.finalized {
		return shared.NewDomainError("ORDER_FINALIZED", "Order is already finalized")
	}
	if len(o.Lines) == 0 {
		return shared.NewDomainError("ORDER_EMPTY", "Order must contain at least one line")
	}

	o.TotalAmount = o.computeTotal().Amount()
	o.finalized = true
	o.Touch()

	o.AddDomainEvent(NewOrderPlacedEvent(o))
	return nil
}

func (o *Order) computeTotal() valueobject.Money {
	total := valueobject.Zero(valueobject.DefaultCurrency)
	for i := range o.Lines {
		total = total.MustAdd(o.Lines[i].SubtotalMoney())
	}
	return total
}

// IsOwnedBy reports whether the buyer owns the order
func (o *Order) IsOwnedBy(userID uuid.UUID) bool {
	return userID != uuid.Nil && o.UserID == userID
}

// TotalMoney returns the order total as Money
func (o *Order) TotalMoney() valueobject.Money {
	return valueobject.FromDecimal(o.TotalAmount)
}

func (o *Order) LineCount() int {
	return len(o.Lines)
}

// TotalQuantity returns the number of units across all lines
func (o *Order) TotalQuantity() int {
	total := 0
	for _, l := range o.Lines {
		total += l.Quantity
	}
	return total
}

func (o *Order) IsPending() bool {
	return o.Status == OrderStatusPending
}

// RestoreOrder rebuilds a persisted order. Restored orders are treated as finalized.
func RestoreOrder(base shared.BaseEntity, userID uuid.UUID, status OrderStatus, total decimal.Decimal, lines []OrderLine) *Order {
	if lines == nil {
		lines = make([]OrderLine, 0)
	}
	return &Order{
		BaseAggregateRoot: shared.BaseAggregateRoot{BaseEntity: base},
		UserID:            userID,
		Status:            status,
		TotalAmount:       total,
		Lines:             lines,
		finalized:         true,
	}
}
