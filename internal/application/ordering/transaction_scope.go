package ordering

import (
	"context"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/ordering"
	"github.com/storefront/backend/internal/domain/shared"
)

// TransactionScope provides transactional access to the repositories order placement needs.
// When a function is executed within a transaction scope, all repository operations
// will be part of the same database transaction and will be committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories within a transaction.
// All repositories returned share the same underlying database transaction.
type TransactionalRepositories interface {
	// StockRepo returns the product stock repository scoped to the current transaction
	StockRepo() catalog.StockRepository
	// OrderRepo returns the order repository scoped to the current transaction
	OrderRepo() ordering.OrderRepository
	// SaveEvents writes domain events to the outbox as part of the current transaction
	SaveEvents(ctx context.Context, events ...shared.DomainEvent) error
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	stockRepo catalog.StockRepository
	orderRepo ordering.OrderRepository
	saved     []shared.DomainEvent
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(stockRepo catalog.StockRepository, orderRepo ordering.OrderRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		stockRepo: stockRepo,
		orderRepo: orderRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// StockRepo returns the product stock repository.
func (s *NoOpTransactionScope) StockRepo() catalog.StockRepository {
	return s.stockRepo
}

// OrderRepo returns the order repository.
func (s *NoOpTransactionScope) OrderRepo() ordering.OrderRepository {
	return s.orderRepo
}

// SaveEvents keeps the events in memory.
func (s *NoOpTransactionScope) SaveEvents(_ context.Context, events ...shared.DomainEvent) error {
	s.saved = append(s.saved, events...)
	return nil
}

// SavedEvents returns every event passed to SaveEvents.
func (s *NoOpTransactionScope) SavedEvents() []shared.DomainEvent {
	return s.saved
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
