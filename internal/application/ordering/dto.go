package ordering

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/ordering"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// PlaceOrderRequest is the cart submitted by a buyer.
// Binding only requires the products key; lines are validated by the service
// so that every offending line is reported.
type PlaceOrderRequest struct {
	Products []PlaceOrderLine `json:"products" binding:"required"`
}

// PlaceOrderLine is one requested product and quantity.
// ProductID is kept as a string so a malformed id is reported per line.
type PlaceOrderLine struct {
	ProductID string `json:"product_id" example:"3f1c9a8e-6f0e-4a57-9d8a-0c7b2f7f6d11"`
	Quantity  int    `json:"quantity" example:"2"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID          uuid.UUID           `json:"id"`
	UserID      uuid.UUID           `json:"user_id"`
	Status      string              `json:"status"`
	TotalAmount string              `json:"total_amount" example:"25.50"`
	LineCount   int                 `json:"line_count"`
	Lines       []OrderLineResponse `json:"lines"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// OrderLineResponse represents one order line in API responses
type OrderLineResponse struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	UnitPrice string    `json:"unit_price" example:"10.00"`
	Quantity  int       `json:"quantity"`
	Subtotal  string    `json:"subtotal" example:"20.00"`
}

// ToOrderResponse converts a domain Order to its response DTO
func ToOrderResponse(order *ordering.Order) OrderResponse {
	lines := make([]OrderLineResponse, len(order.Lines))
	for i := range order.Lines {
		lines[i] = ToOrderLineResponse(&order.Lines[i])
	}
	return OrderResponse{
		ID:          order.ID,
		UserID:      order.UserID,
		Status:      order.Status.String(),
		TotalAmount: order.TotalAmount.StringFixed(valueobject.MoneyScale),
		LineCount:   order.LineCount(),
		Lines:       lines,
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
	}
}

// ToOrderLineResponse converts a domain OrderLine to its response DTO
func ToOrderLineResponse(line *ordering.OrderLine) OrderLineResponse {
	return OrderLineResponse{
		ProductID: line.ProductID,
		Name:      line.ProductName,
		UnitPrice: line.UnitPrice.StringFixed(valueobject.MoneyScale),
		Quantity:  line.Quantity,
		Subtotal:  line.Subtotal.StringFixed(valueobject.MoneyScale),
	}
}

// ToOrderResponses converts a page of orders
func ToOrderResponses(page shared.Paginated[ordering.Order]) shared.Paginated[OrderResponse] {
	items := make([]OrderResponse, len(page.Items))
	for i := range page.Items {
		items[i] = ToOrderResponse(&page.Items[i])
	}
	return shared.Paginated[OrderResponse]{
		Items:        items,
		Total:        page.Total,
		Page:         page.Page,
		PageSize:     page.PageSize,
		TotalPages:   page.TotalPages,
		HasMorePages: page.HasMorePages,
	}
}
