package persistence

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/identity"
)

type demoProduct struct {
	name     string
	imageKey string
	price    string
	stock    int
	category string
}

var demoProducts = []demoProduct{
	{"Gradient Graphic T-shirt", "products/gradient_graphic_tshirt.jpg", "145", 25, "T-shirts"},
	{"Polo with Tipping Details", "products/polo_with_tipping_details.jpg", "25.99", 100, "Electronics"},
	{"Black Striped T-shirt", "products/black_striped_tshirt.jpg", "39.99", 30, "Books"},
	{"Skinny Fit Jeans", "products/skinny_fit_jeans.jpg", "39.99", 30, "Books"},
	{"Checkered Shirt", "products/checkered_shirt.jpg", "39.99", 30, "Books"},
	{"Sleeve Striped T-shirt", "products/sleeve_striped_tshirt.jpg", "39.99", 30, "Books"},
}

const (
	demoUserName     = "John Doe"
	demoUserEmail    = "john@example.com"
	demoUserPassword = "password123"
)

// SeedDemoData inserts the demo buyer and catalog.
// Each table is only seeded while it is still empty.
func SeedDemoData(ctx context.Context, db *gorm.DB, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := NewGormUserRepository(tx)
		n, err := users.Count(ctx)
		if err != nil {
			return err
		}
		if n == 0 {
			u, err := identity.NewUser(demoUserName, demoUserEmail, demoUserPassword)
			if err != nil {
				return fmt.Errorf("seed user: %w", err)
			}
			if err := users.Create(ctx, u); err != nil {
				return fmt.Errorf("seed user: %w", err)
			}
			logger.Info("Seeded demo user", zap.String("email", u.Email))
		}

		products := NewGormProductRepository(tx)
		n, err = products.Count(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		for _, d := range demoProducts {
			p, err := catalog.NewProduct(d.name, decimal.RequireFromString(d.price), d.stock)
			if err != nil {
				return fmt.Errorf("seed product %q: %w", d.name, err)
			}
			p.SetCategory(d.category)
			p.SetImageKey(d.imageKey)
			if err := products.Save(ctx, p); err != nil {
				return fmt.Errorf("seed product %q: %w", d.name, err)
			}
		}
		logger.Info("Seeded demo products", zap.Int("count", len(demoProducts)))
		return nil
	})
}
