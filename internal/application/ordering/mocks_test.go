package ordering

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/ordering"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindActive(ctx context.Context, filter catalog.ProductFilter) (shared.Paginated[catalog.Product], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(shared.Paginated[catalog.Product]), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockStockRepository is a mock implementation of catalog.StockRepository
type MockStockRepository struct {
	mock.Mock
}

func (m *MockStockRepository) LockForUpdate(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockStockRepository) DecrementStock(ctx context.Context, product *catalog.Product, qty int) error {
	return m.Called(ctx, product, qty).Error(0)
}

// MockOrderRepository is a mock implementation of ordering.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*ordering.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ordering.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByUser(ctx context.Context, userID uuid.UUID, page, perPage int) (shared.Paginated[ordering.Order], error) {
	args := m.Called(ctx, userID, page, perPage)
	return args.Get(0).(shared.Paginated[ordering.Order]), args.Error(1)
}

func (m *MockOrderRepository) Create(ctx context.Context, order *ordering.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockOrderRepository) AddLines(ctx context.Context, orderID uuid.UUID, lines []ordering.OrderLine) error {
	return m.Called(ctx, orderID, lines).Error(0)
}

func (m *MockOrderRepository) UpdateTotal(ctx context.Context, order *ordering.Order) error {
	return m.Called(ctx, order).Error(0)
}

// MockListingInvalidator records cache invalidations
type MockListingInvalidator struct {
	mock.Mock
}

func (m *MockListingInvalidator) Invalidate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockOrderMetrics records metric calls
type MockOrderMetrics struct {
	mock.Mock
}

func (m *MockOrderMetrics) RecordOrderPlaced(ctx context.Context, total decimal.Decimal, lineCount int) {
	m.Called(ctx, total, lineCount)
}

func (m *MockOrderMetrics) RecordStockRejection(ctx context.Context) {
	m.Called(ctx)
}

// MockNotificationSink is a mock implementation of NotificationSink
type MockNotificationSink struct {
	mock.Mock
}

func (m *MockNotificationSink) Name() string {
	return m.Called().String(0)
}

func (m *MockNotificationSink) Send(ctx context.Context, n OrderPlacedNotification) error {
	return m.Called(ctx, n).Error(0)
}
