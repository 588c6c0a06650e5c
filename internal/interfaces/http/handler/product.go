package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	catalogapp "github.com/storefront/backend/internal/application/catalog"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// ProductReader is the part of the catalog service the product endpoints use
type ProductReader interface {
	List(ctx context.Context, q catalogapp.ListProductsQuery) (*catalogapp.ProductListResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*catalogapp.ProductResponse, error)
}

// ProductHandler handles public catalog requests
type ProductHandler struct {
	BaseHandler
	products ProductReader
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(products ProductReader) *ProductHandler {
	return &ProductHandler{products: products}
}

// List godoc
// @ID           listProducts
// @Summary      List active products
// @Description  Paginated listing of active products with optional search, category and price filters
// @Tags         products
// @Produce      json
// @Param        search     query string   false "Matches name or category"
// @Param        name       query string   false "Matches name"
// @Param        category   query string   false "Comma separated category list"
// @Param        categories query []string false "Category list" collectionFormat(multi)
// @Param        min_price  query string   false "Minimum price inclusive"
// @Param        max_price  query string   false "Maximum price inclusive"
// @Param        page       query int      false "Page number" minimum(1)
// @Param        per_page   query int      false "Page size" minimum(1)
// @Success      200 {object} dto.Response{data=[]catalogapp.ProductResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products [get]
func (h *ProductHandler) List(c *gin.Context) {
	var q catalogapp.ListProductsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}

	list, err := h.products.List(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := dto.NewSuccessResponseWithMeta(list.Data, dto.Meta(list.Meta))
	if len(list.Filters) > 0 {
		resp.Filters = list.Filters
	}
	c.JSON(200, resp)
}

// Show godoc
// @ID           getProduct
// @Summary      Get product by ID
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} dto.Response{data=catalogapp.ProductResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products/{id} [get]
func (h *ProductHandler) Show(c *gin.Context) {
	id, ok := h.pathID(c, "Product")
	if !ok {
		return
	}

	product, err := h.products.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}
