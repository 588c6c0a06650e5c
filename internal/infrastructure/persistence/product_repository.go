package persistence

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs finds multiple products by their IDs. Unknown IDs are skipped.
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return []catalog.Product{}, nil
	}

	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return toDomainProducts(rows), nil
}

// FindActive lists active products matching the filter, sorted by name
func (r *GormProductRepository) FindActive(ctx context.Context, filter catalog.ProductFilter) (shared.Paginated[catalog.Product], error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage < 1 {
		perPage = 15
	}

	var total int64
	if err := r.activeQuery(ctx, filter).Count(&total).Error; err != nil {
		return shared.Paginated[catalog.Product]{}, translateError(err)
	}

	var rows []models.ProductModel
	if err := r.activeQuery(ctx, filter).
		Order("name ASC").
		Order("id ASC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&rows).Error; err != nil {
		return shared.Paginated[catalog.Product]{}, translateError(err)
	}

	return shared.NewPaginated(toDomainProducts(rows), total, page, perPage), nil
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	model := models.ProductModelFromDomain(product)
	return translateError(r.db.WithContext(ctx).Save(model).Error)
}

// Count counts all products
func (r *GormProductRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ProductModel{}).Count(&count).Error; err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

// LockForUpdate loads the products with SELECT ... FOR UPDATE.
// Rows are requested in ascending ID order so that concurrent carts
// touching the same products always lock them in the same sequence.
func (r *GormProductRepository) LockForUpdate(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	ids = uniqueSortedIDs(ids)
	if len(ids) == 0 {
		return []catalog.Product{}, nil
	}

	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return toDomainProducts(rows), nil
}

// DecrementStock removes qty units with a conditional update so stock can
// never drop below zero even if the row lock was not honoured.
func (r *GormProductRepository) DecrementStock(ctx context.Context, product *catalog.Product, qty int) error {
	if qty <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1.")
	}

	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("id = ? AND stock_quantity >= ?", product.ID, qty).
		Updates(map[string]any{
			"stock_quantity": gorm.Expr("stock_quantity - ?", qty),
			"updated_at":     now,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}

	if result.RowsAffected == 0 {
		available, err := r.currentStock(ctx, product.ID)
		if err != nil {
			return err
		}
		return catalog.NewStockInsufficientError(product.Name, available)
	}

	return product.DecreaseStock(qty)
}

func (r *GormProductRepository) currentStock(ctx context.Context, id uuid.UUID) (int, error) {
	var stock int
	err := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("id = ?", id).
		Select("stock_quantity").
		Scan(&stock).Error
	if err != nil {
		return 0, translateError(err)
	}
	return stock, nil
}

func (r *GormProductRepository) activeQuery(ctx context.Context, filter catalog.ProductFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.ProductModel{}).Where("is_active = ?", true)

	if filter.Name != "" {
		query = query.Where("LOWER(name) LIKE ? ESCAPE '\\'", containsPattern(filter.Name))
	}
	if filter.Search != "" {
		query = query.Where("LOWER(name) LIKE ? ESCAPE '\\'", containsPattern(filter.Search))
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}
	if len(filter.Categories) > 0 {
		query = query.Where("LOWER(category) IN ?", filter.Categories)
	}

	return query
}

// containsPattern builds a lowercase LIKE pattern with wildcards escaped
func containsPattern(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(strings.ToLower(s)) + "%"
}

func uniqueSortedIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out
}

func toDomainProducts(rows []models.ProductModel) []catalog.Product {
	products := make([]catalog.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products
}

// Ensure GormProductRepository implements the catalog repositories
var (
	_ catalog.ProductRepository = (*GormProductRepository)(nil)
	_ catalog.StockRepository   = (*GormProductRepository)(nil)
)
