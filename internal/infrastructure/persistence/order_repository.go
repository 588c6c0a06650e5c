package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/ordering"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID loads an order with its lines in cart order
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*ordering.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", orderLinesInCartOrder).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByUser lists a buyer's orders, newest first
func (r *GormOrderRepository) FindByUser(ctx context.Context, userID uuid.UUID, page, perPage int) (shared.Paginated[ordering.Order], error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return shared.Paginated[ordering.Order]{}, translateError(err)
	}

	var rows []models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", orderLinesInCartOrder).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&rows).Error; err != nil {
		return shared.Paginated[ordering.Order]{}, translateError(err)
	}

	orders := make([]ordering.Order, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return shared.NewPaginated(orders, total, page, perPage), nil
}

// Create inserts the order header followed by any lines it already carries
func (r *GormOrderRepository) Create(ctx context.Context, order *ordering.Order) error {
	model := models.OrderModelFromDomain(order)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(model).Error; err != nil {
		return translateError(err)
	}
	if len(order.Lines) == 0 {
		return nil
	}
	return r.AddLines(ctx, order.ID, order.Lines)
}

// AddLines inserts lines for an existing order. The slice position is stored
// so that reads return lines in the order the buyer submitted them.
func (r *GormOrderRepository) AddLines(ctx context.Context, orderID uuid.UUID, lines []ordering.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}

	rows := make([]models.OrderLineModel, len(lines))
	for i := range lines {
		rows[i].FromDomain(&lines[i])
		rows[i].OrderID = orderID
		rows[i].Position = i
	}
	return translateError(r.db.WithContext(ctx).Create(&rows).Error)
}

// UpdateTotal persists the finalized total and status
func (r *GormOrderRepository) UpdateTotal(ctx context.Context, order *ordering.Order) error {
	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"total_amount": order.TotalAmount,
			"status":       order.Status,
			"updated_at":   order.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func orderLinesInCartOrder(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// Ensure GormOrderRepository implements OrderRepository
var _ ordering.OrderRepository = (*GormOrderRepository)(nil)
