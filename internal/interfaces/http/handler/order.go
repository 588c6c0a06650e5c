package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	orderingapp "github.com/storefront/backend/internal/application/ordering"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// OrderPlacer is the part of the order service the order endpoints use
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, buyerID uuid.UUID, req orderingapp.PlaceOrderRequest) (*orderingapp.OrderResponse, error)
	GetOrder(ctx context.Context, orderID, requesterID uuid.UUID) (*orderingapp.OrderResponse, error)
	ListMine(ctx context.Context, buyerID uuid.UUID, page int) (shared.Paginated[orderingapp.OrderResponse], error)
}

// OrderHandler handles order placement and lookup for the authenticated buyer
type OrderHandler struct {
	BaseHandler
	orders OrderPlacer
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders OrderPlacer) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// Create godoc
// @ID           placeOrder
// @Summary      Place an order
// @Description  Atomically reserves stock for every line and records the order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body orderingapp.PlaceOrderRequest true "Cart contents"
// @Success      201 {object} dto.Response{data=orderingapp.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	buyerID, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req orderingapp.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	order, err := h.orders.PlaceOrder(c.Request.Context(), buyerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, "Order placed successfully", order)
}

// Show godoc
// @ID           getOrder
// @Summary      Get one of the caller's orders
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=orderingapp.OrderResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/{id} [get]
func (h *OrderHandler) Show(c *gin.Context) {
	buyerID, ok := h.currentUser(c)
	if !ok {
		return
	}
	orderID, ok := h.pathID(c, "Order")
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), orderID, buyerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// List godoc
// @ID           listOrders
// @Summary      List the caller's orders, newest first
// @Tags         orders
// @Produce      json
// @Param        page query int false "Page number" minimum(1)
// @Success      200 {object} dto.Response{data=[]orderingapp.OrderResponse,meta=dto.Meta}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	buyerID, ok := h.currentUser(c)
	if !ok {
		return
	}

	var q dto.PageRequest
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	page, err := h.orders.ListMine(c.Request.Context(), buyerID, q.Page)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, dto.Meta{
		Total:        page.Total,
		Count:        len(page.Items),
		PerPage:      page.PageSize,
		CurrentPage:  page.Page,
		TotalPages:   page.TotalPages,
		HasMorePages: page.HasMorePages,
	})
}
