package ordering

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/ordering"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const (
	DefaultPlacementTimeout = 10 * time.Second
	DefaultListPageSize     = 10

	msgProductUnavailable = "The selected product must be active and exist."
	msgQuantityMin        = "Quantity must be at least 1."
	msgProductsRequired   = "The products field is required."
)

// ListingInvalidator drops cached catalog listings after stock changes
type ListingInvalidator interface {
	Invalidate(ctx context.Context) error
}

// OrderMetrics records business metrics for order placement
type OrderMetrics interface {
	RecordOrderPlaced(ctx context.Context, total decimal.Decimal, lineCount int)
	RecordStockRejection(ctx context.Context)
}

// OrderService places and reads buyer orders
type OrderService struct {
	productRepo      catalog.ProductRepository
	orderRepo        ordering.OrderRepository
	txScope          TransactionScope
	logger           *zap.Logger
	placementTimeout time.Duration
	listPageSize     int
	invalidator      ListingInvalidator
	metrics          OrderMetrics
}

// OrderServiceOption is a functional option for configuring the service
type OrderServiceOption func(*OrderService)

// WithPlacementTimeout bounds the placement transaction, lock waits included
func WithPlacementTimeout(d time.Duration) OrderServiceOption {
	return func(s *OrderService) {
		if d > 0 {
			s.placementTimeout = d
		}
	}
}

// WithListPageSize sets the page size of ListMine
func WithListPageSize(n int) OrderServiceOption {
	return func(s *OrderService) {
		if n > 0 {
			s.listPageSize = n
		}
	}
}

// WithListingInvalidator drops catalog listing caches after a committed order
func WithListingInvalidator(inv ListingInvalidator) OrderServiceOption {
	return func(s *OrderService) {
		s.invalidator = inv
	}
}

// WithOrderMetrics records placement metrics
func WithOrderMetrics(m OrderMetrics) OrderServiceOption {
	return func(s *OrderService) {
		s.metrics = m
	}
}

// NewOrderService creates a new OrderService
func NewOrderService(
	productRepo catalog.ProductRepository,
	orderRepo ordering.OrderRepository,
	txScope TransactionScope,
	logger *zap.Logger,
	opts ...OrderServiceOption,
) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &OrderService{
		productRepo:      productRepo,
		orderRepo:        orderRepo,
		txScope:          txScope,
		logger:           logger,
		placementTimeout: DefaultPlacementTimeout,
		listPageSize:     DefaultListPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// requestedLine is a cart line that passed validation
type requestedLine struct {
	productID uuid.UUID
	quantity  int
}

// PlaceOrder validates the cart, then in one transaction locks the products,
// checks stock, creates the order with price snapshots, decrements stock and
// writes OrderPlaced to the outbox. Nothing is persisted when any step fails.
func (s *OrderService) PlaceOrder(ctx context.Context, buyerID uuid.UUID, req PlaceOrderRequest) (*OrderResponse, error) {
	if buyerID == uuid.Nil {
		return nil, shared.ErrUnauthorized
	}

	lines, err := s.validate(ctx, req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.placementTimeout)
	defer cancel()

	var order *ordering.Order
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		placed, err := s.placeInTx(ctx, repos, buyerID, lines)
		if err != nil {
			return err
		}
		order = placed
		return nil
	})
	if err != nil {
		return nil, s.placementError(ctx, buyerID, err)
	}

	order.ClearDomainEvents()
	s.afterCommit(ctx, order)

	response := ToOrderResponse(order)
	return &response, nil
}

func (s *OrderService) placeInTx(ctx context.Context, repos TransactionalRepositories, buyerID uuid.UUID, lines []requestedLine) (*ordering.Order, error) {
	ids := make([]uuid.UUID, len(lines))
	for i, l := range lines {
		ids[i] = l.productID
	}

	locked, err := repos.StockRepo().LockForUpdate(ctx, ids)
	if err != nil {
		return nil, err
	}
	products := make(map[uuid.UUID]*catalog.Product, len(locked))
	for i := range locked {
		products[locked[i].ID] = &locked[i]
	}

	// The product may have been deactivated or removed since validation.
	var fields []shared.FieldError
	for i, l := range lines {
		if p, ok := products[l.productID]; !ok || !p.IsActive {
			fields = append(fields, productField(i))
		}
	}
	if len(fields) > 0 {
		return nil, shared.NewValidationError(fields...)
	}

	if err := checkStock(lines, products); err != nil {
		return nil, err
	}

	order, err := ordering.NewOrder(buyerID)
	if err != nil {
		return nil, err
	}
	if err := repos.OrderRepo().Create(ctx, order); err != nil {
		return nil, err
	}

	for _, l := range lines {
		p := products[l.productID]
		if _, err := order.AddLine(p.ID, p.Name, l.quantity, p.UnitPrice()); err != nil {
			return nil, err
		}
		if err := repos.StockRepo().DecrementStock(ctx, p, l.quantity); err != nil {
			return nil, err
		}
	}

	if err := order.Finalize(); err != nil {
		return nil, err
	}
	if err := repos.OrderRepo().AddLines(ctx, order.ID, order.Lines); err != nil {
		return nil, err
	}
	if err := repos.OrderRepo().UpdateTotal(ctx, order); err != nil {
		return nil, err
	}
	if err := repos.SaveEvents(ctx, order.GetDomainEvents()...); err != nil {
		return nil, fmt.Errorf("failed to save events to outbox: %w", err)
	}

	return order, nil
}

// checkStock compares the summed quantity per product against the locked stock.
// Products are checked in the order they first appear in the cart.
func checkStock(lines []requestedLine, products map[uuid.UUID]*catalog.Product) error {
	required := make(map[uuid.UUID]int, len(lines))
	order := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		if _, seen := required[l.productID]; !seen {
			order = append(order, l.productID)
		}
		required[l.productID] += l.quantity
	}

	for _, id := range order {
		p := products[id]
		if !p.CanFulfil(required[id]) {
			return catalog.NewStockInsufficientError(p.Name, p.StockQuantity)
		}
	}
	return nil
}

// validate checks the cart before any lock is taken and reports one
// field error per offending line.
func (s *OrderService) validate(ctx context.Context, req PlaceOrderRequest) ([]requestedLine, error) {
	if len(req.Products) == 0 {
		return nil, shared.NewValidationError(shared.FieldError{Field: "products", Message: msgProductsRequired})
	}

	var fields []shared.FieldError
	lines := make([]requestedLine, len(req.Products))
	ids := make([]uuid.UUID, 0, len(req.Products))

	for i, item := range req.Products {
		id, err := uuid.Parse(item.ProductID)
		if err != nil || id == uuid.Nil {
			fields = append(fields, productField(i))
		} else {
			lines[i].productID = id
			ids = append(ids, id)
		}
		if item.Quantity < 1 {
			fields = append(fields, shared.FieldError{
				Field:   fmt.Sprintf("products.%d.quantity", i),
				Message: msgQuantityMin,
			})
		}
		lines[i].quantity = item.Quantity
	}

	found, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	active := make(map[uuid.UUID]bool, len(found))
	for _, p := range found {
		active[p.ID] = p.IsActive
	}
	for i, l := range lines {
		if l.productID != uuid.Nil && !active[l.productID] {
			fields = append(fields, productField(i))
		}
	}

	if len(fields) > 0 {
		return nil, shared.NewValidationError(sortFieldErrors(fields)...)
	}
	return lines, nil
}

func productField(i int) shared.FieldError {
	return shared.FieldError{
		Field:   fmt.Sprintf("products.%d.product_id", i),
		Message: msgProductUnavailable,
	}
}

// sortFieldErrors orders errors by line index, product_id before quantity
func sortFieldErrors(fields []shared.FieldError) []shared.FieldError {
	byField := make(map[string]shared.FieldError, len(fields))
	for _, f := range fields {
		byField[f.Field] = f
	}
	out := make([]shared.FieldError, 0, len(byField))
	for i := 0; len(out) < len(byField); i++ {
		for _, suffix := range []string{"product_id", "quantity"} {
			if f, ok := byField[fmt.Sprintf("products.%d.%s", i, suffix)]; ok {
				out = append(out, f)
			}
		}
	}
	return out
}

// placementError normalises failures from the transaction. Domain errors are
// returned as-is; timeouts and storage errors become PersistenceFailure.
func (s *OrderService) placementError(ctx context.Context, buyerID uuid.UUID, err error) error {
	if errors.Is(err, shared.ErrInsufficientStock) {
		if s.metrics != nil {
			s.metrics.RecordStockRejection(ctx)
		}
		return err
	}

	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, shared.ErrPersistenceFailure) {
		err = shared.ErrPersistenceFailure.Wrap(fmt.Errorf("order placement aborted: %w", ctxErr))
	}

	var de *shared.DomainError
	if !errors.As(err, &de) {
		err = shared.ErrPersistenceFailure.Wrap(err)
	}

	if errors.Is(err, shared.ErrPersistenceFailure) {
		s.logger.Error("order placement failed",
			zap.String("user_id", buyerID.String()),
			zap.Error(errors.Unwrap(err)),
		)
	}
	return err
}

func (s *OrderService) afterCommit(ctx context.Context, order *ordering.Order) {
	s.logger.Info("order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", order.UserID.String()),
		zap.String("total_amount", order.TotalAmount.StringFixed(2)),
		zap.Int("lines", order.LineCount()),
	)

	if s.metrics != nil {
		s.metrics.RecordOrderPlaced(ctx, order.TotalAmount, order.LineCount())
	}

	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx); err != nil {
			s.logger.Warn("failed to invalidate product listing cache", zap.Error(err))
		}
	}
}

// GetOrder returns the order iff it belongs to the requester
func (s *OrderService) GetOrder(ctx context.Context, orderID, requesterID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsOwnedBy(requesterID) {
		return nil, shared.ErrForbidden.WithMessage("Unauthorized")
	}

	response := ToOrderResponse(order)
	return &response, nil
}

// ListMine lists the requester's orders, newest first
func (s *OrderService) ListMine(ctx context.Context, buyerID uuid.UUID, page int) (shared.Paginated[OrderResponse], error) {
	if page < 1 {
		page = 1
	}
	orders, err := s.orderRepo.FindByUser(ctx, buyerID, page, s.listPageSize)
	if err != nil {
		return shared.Paginated[OrderResponse]{}, err
	}
	return ToOrderResponses(orders), nil
}
