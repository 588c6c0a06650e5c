package persistence

import (
	"context"

	appordering "github.com/storefront/backend/internal/application/ordering"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/ordering"
	"github.com/storefront/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db         *gorm.DB
	eventSaver shared.OutboxEventSaver
}

// NewGormTransactionScope creates a new GormTransactionScope.
// eventSaver may be nil, in which case SaveEvents is a no-op.
func NewGormTransactionScope(db *gorm.DB, eventSaver shared.OutboxEventSaver) *GormTransactionScope {
	return &GormTransactionScope{db: db, eventSaver: eventSaver}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appordering.TransactionalRepositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx, eventSaver: s.eventSaver})
	})
	return translateError(err)
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx         *gorm.DB
	eventSaver shared.OutboxEventSaver
}

// StockRepo returns the product stock repository scoped to the current transaction.
func (r *gormTransactionalRepositories) StockRepo() catalog.StockRepository {
	return NewGormProductRepository(r.tx)
}

// OrderRepo returns the order repository scoped to the current transaction.
func (r *gormTransactionalRepositories) OrderRepo() ordering.OrderRepository {
	return NewGormOrderRepository(r.tx)
}

// SaveEvents writes domain events to the outbox inside the current transaction.
func (r *gormTransactionalRepositories) SaveEvents(ctx context.Context, events ...shared.DomainEvent) error {
	if r.eventSaver == nil || len(events) == 0 {
		return nil
	}
	return r.eventSaver.SaveEvents(ctx, r.tx, events...)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appordering.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appordering.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
