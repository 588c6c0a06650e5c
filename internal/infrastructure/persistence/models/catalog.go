package models

import (
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
)

// ProductModel is the persistence model for the Product domain entity.
// IsActive carries no column default: a zero value must be written as false.
type ProductModel struct {
	BaseModel
	Name          string          `gorm:"type:varchar(255);not null;index:idx_products_name_category,priority:1"`
	ImageKey      string          `gorm:"type:varchar(500)"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null;index"`
	StockQuantity int             `gorm:"not null"`
	Category      string          `gorm:"type:varchar(100);index:idx_products_name_category,priority:2"`
	IsActive      bool            `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseAggregateRoot: shared.BaseAggregateRoot{BaseEntity: m.BaseModel.ToDomain()},
		Name:              m.Name,
		ImageKey:          m.ImageKey,
		Price:             m.Price,
		StockQuantity:     m.StockQuantity,
		Category:          m.Category,
		IsActive:          m.IsActive,
	}
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.Name = p.Name
	m.ImageKey = p.ImageKey
	m.Price = p.Price
	m.StockQuantity = p.StockQuantity
	m.Category = p.Category
	m.IsActive = p.IsActive
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
