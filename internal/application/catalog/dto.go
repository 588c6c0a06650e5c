package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// ListProductsQuery holds the public listing filters as received from the query string
type ListProductsQuery struct {
	Search     string   `form:"search"`
	Name       string   `form:"name"`
	Category   string   `form:"category"`
	Categories []string `form:"categories"`
	MinPrice   string   `form:"min_price"`
	MaxPrice   string   `form:"max_price"`
	Page       int      `form:"page" binding:"omitempty,min=1"`
	PerPage    int      `form:"per_page" binding:"omitempty,min=1"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name" example:"Ceramic Mug"`
	ImageURL      string    `json:"image_url"`
	Price         string    `json:"price" example:"1,250.00"`
	PriceRaw      string    `json:"price_raw" example:"1250.00"`
	StockQuantity int       `json:"stock_quantity"`
	Category      string    `json:"category"`
	IsActive      bool      `json:"is_active"`
	InStock       bool      `json:"in_stock"`
	CreatedAt     string    `json:"created_at" example:"2024-01-15 10:30:00"`
	UpdatedAt     string    `json:"updated_at" example:"2024-01-15 10:30:00"`
}

// ListMeta describes the page returned by a listing
type ListMeta struct {
	Total        int64 `json:"total"`
	Count        int   `json:"count"`
	PerPage      int   `json:"per_page"`
	CurrentPage  int   `json:"current_page"`
	TotalPages   int   `json:"total_pages"`
	HasMorePages bool  `json:"has_more_pages"`
}

// ProductListResponse is one page of the catalog listing
type ProductListResponse struct {
	Data    []ProductResponse `json:"data"`
	Meta    ListMeta          `json:"meta"`
	Filters map[string]string `json:"filters"`
}

const timestampLayout = "2006-01-02 15:04:05"

// ToProductResponse converts a domain Product to a response DTO.
// imageURL is resolved by the caller.
func ToProductResponse(p *catalog.Product, imageURL string) ProductResponse {
	return ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		ImageURL:      imageURL,
		Price:         groupThousands(p.Price.StringFixed(valueobject.MoneyScale)),
		PriceRaw:      p.Price.StringFixed(valueobject.MoneyScale),
		StockQuantity: p.StockQuantity,
		Category:      p.Category,
		IsActive:      p.IsActive,
		InStock:       p.InStock(),
		CreatedAt:     formatTimestamp(p.CreatedAt),
		UpdatedAt:     formatTimestamp(p.UpdatedAt),
	}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timestampLayout)
}

// groupThousands inserts comma separators into the integer part of a fixed-point string
func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")
	if len(intPart) <= 3 {
		return sign + s
	}

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return sign + b.String()
}
