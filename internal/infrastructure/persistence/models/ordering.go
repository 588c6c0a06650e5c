package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/ordering"
)

// OrderModel is the persistence model for the Order aggregate root.
type OrderModel struct {
	BaseModel
	UserID      uuid.UUID            `gorm:"type:uuid;not null;index:idx_orders_user_created,priority:1"`
	Status      ordering.OrderStatus `gorm:"type:varchar(20);not null"`
	TotalAmount decimal.Decimal      `gorm:"type:decimal(12,2);not null"`
	Lines       []OrderLineModel     `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order.
// Lines must be preloaded by the caller.
func (m *OrderModel) ToDomain() *ordering.Order {
	lines := make([]ordering.OrderLine, len(m.Lines))
	for i := range m.Lines {
		lines[i] = *m.Lines[i].ToDomain()
	}
	return ordering.RestoreOrder(m.BaseModel.ToDomain(), m.UserID, m.Status, m.TotalAmount, lines)
}

// FromDomain populates the persistence model from a domain Order, lines included.
func (m *OrderModel) FromDomain(o *ordering.Order) {
	m.FromDomainBaseEntity(o.BaseEntity)
	m.UserID = o.UserID
	m.Status = o.Status
	m.TotalAmount = o.TotalAmount
	m.Lines = make([]OrderLineModel, len(o.Lines))
	for i := range o.Lines {
		m.Lines[i].FromDomain(&o.Lines[i])
		m.Lines[i].Position = i
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order.
func OrderModelFromDomain(o *ordering.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// OrderLineModel is the persistence model for one line of an order.
type OrderLineModel struct {
	BaseModel
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName string          `gorm:"type:varchar(255);not null"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Position    int             `gorm:"not null"` // input order of the cart
}

// TableName returns the table name for GORM
func (OrderLineModel) TableName() string {
	return "order_lines"
}

// ToDomain converts the persistence model to a domain OrderLine.
func (m *OrderLineModel) ToDomain() *ordering.OrderLine {
	return &ordering.OrderLine{
		ID:          m.ID,
		OrderID:     m.OrderID,
		ProductID:   m.ProductID,
		ProductName: m.ProductName,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		Subtotal:    m.Subtotal,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain OrderLine.
func (m *OrderLineModel) FromDomain(l *ordering.OrderLine) {
	m.ID = l.ID
	m.CreatedAt = l.CreatedAt
	m.UpdatedAt = l.UpdatedAt
	m.OrderID = l.OrderID
	m.ProductID = l.ProductID
	m.ProductName = l.ProductName
	m.Quantity = l.Quantity
	m.UnitPrice = l.UnitPrice
	m.Subtotal = l.Subtotal
}
