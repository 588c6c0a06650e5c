package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	DefaultPerPage = 15
	MaxPerPage     = 100
)

// ImageURLResolver turns a stored image key into a URL clients can load
type ImageURLResolver interface {
	ImageURL(ctx context.Context, key string) (string, error)
}

// ListingCache caches encoded listing pages by normalized query
type ListingCache interface {
	Fetch(ctx context.Context, query string, load func(ctx context.Context) ([]byte, error)) ([]byte, error)
	Invalidate(ctx context.Context) error
}

// ProductService serves the public product catalog
type ProductService struct {
	productRepo    catalog.ProductRepository
	images         ImageURLResolver
	cache          ListingCache
	logger         *zap.Logger
	defaultPerPage int
	maxPerPage     int
}

// ProductServiceOption is a functional option for configuring the service
type ProductServiceOption func(*ProductService)

// WithImageURLResolver sets how image keys become URLs
func WithImageURLResolver(r ImageURLResolver) ProductServiceOption {
	return func(s *ProductService) {
		s.images = r
	}
}

// WithListingCache enables cache-aside for listings
func WithListingCache(c ListingCache) ProductServiceOption {
	return func(s *ProductService) {
		s.cache = c
	}
}

// WithPageSizes overrides the default and maximum per_page
func WithPageSizes(defaultPerPage, maxPerPage int) ProductServiceOption {
	return func(s *ProductService) {
		if maxPerPage > 0 {
			s.maxPerPage = maxPerPage
		}
		if defaultPerPage > 0 {
			s.defaultPerPage = min(defaultPerPage, s.maxPerPage)
		}
	}
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository, logger *zap.Logger, opts ...ProductServiceOption) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ProductService{
		productRepo:    productRepo,
		logger:         logger,
		defaultPerPage: DefaultPerPage,
		maxPerPage:     MaxPerPage,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// listing is a normalized listing request
type listing struct {
	filter  catalog.ProductFilter
	filters map[string]string
}

// List returns one page of active products sorted by name
func (s *ProductService) List(ctx context.Context, q ListProductsQuery) (*ProductListResponse, error) {
	l, err := s.normalize(q)
	if err != nil {
		return nil, err
	}

	if s.cache == nil {
		return s.load(ctx, l)
	}

	raw, err := s.cache.Fetch(ctx, l.cacheKey(), func(ctx context.Context) ([]byte, error) {
		resp, err := s.load(ctx, l)
		if err != nil {
			return nil, err
		}
		return json.Marshal(resp)
	})
	if err != nil {
		return nil, err
	}

	var resp ProductListResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode cached product listing: %w", err)
	}
	return &resp, nil
}

func (s *ProductService) load(ctx context.Context, l listing) (*ProductListResponse, error) {
	page, err := s.productRepo.FindActive(ctx, l.filter)
	if err != nil {
		return nil, err
	}

	data := make([]ProductResponse, len(page.Items))
	for i := range page.Items {
		data[i] = ToProductResponse(&page.Items[i], s.imageURL(ctx, page.Items[i].ImageKey))
	}

	return &ProductListResponse{
		Data: data,
		Meta: ListMeta{
			Total:        page.Total,
			Count:        len(data),
			PerPage:      page.PageSize,
			CurrentPage:  page.Page,
			TotalPages:   page.TotalPages,
			HasMorePages: page.HasMorePages,
		},
		Filters: l.filters,
	}, nil
}

// GetByID returns a single product, active or not
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product, s.imageURL(ctx, product.ImageKey))
	return &resp, nil
}

// imageURL never fails a read; a broken resolver only blanks the URL
func (s *ProductService) imageURL(ctx context.Context, key string) string {
	if s.images == nil || key == "" {
		return ""
	}
	u, err := s.images.ImageURL(ctx, key)
	if err != nil {
		s.logger.Warn("failed to resolve product image url",
			zap.String("image_key", key),
			zap.Error(err),
		)
		return ""
	}
	return u
}

func (s *ProductService) normalize(q ListProductsQuery) (listing, error) {
	l := listing{filters: make(map[string]string)}
	f := &l.filter

	f.Search = strings.TrimSpace(q.Search)
	f.Name = strings.TrimSpace(q.Name)
	if f.Search != "" {
		l.filters["search"] = f.Search
	}
	if f.Name != "" {
		l.filters["name"] = f.Name
	}

	f.Categories = s.categories(q)
	if c := strings.TrimSpace(q.Category); c != "" {
		l.filters["category"] = c
	}
	if len(q.Categories) > 0 && len(f.Categories) > 0 {
		l.filters["categories"] = strings.Join(f.Categories, ",")
	}

	var fields []shared.FieldError
	if v := strings.TrimSpace(q.MinPrice); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			fields = append(fields, shared.FieldError{Field: "min_price", Message: "The min price field must be a number."})
		} else {
			f.MinPrice = &d
			l.filters["min_price"] = v
		}
	}
	if v := strings.TrimSpace(q.MaxPrice); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			fields = append(fields, shared.FieldError{Field: "max_price", Message: "The max price field must be a number."})
		} else {
			f.MaxPrice = &d
			l.filters["max_price"] = v
		}
	}
	if len(fields) > 0 {
		return listing{}, shared.NewValidationError(fields...)
	}

	f.Page = max(q.Page, 1)
	f.PerPage = q.PerPage
	if f.PerPage < 1 {
		f.PerPage = s.defaultPerPage
	}
	f.PerPage = min(f.PerPage, s.maxPerPage)

	return l, nil
}

// categories accepts repeated and comma separated values. The single
// category parameter only applies when no categories list was sent.
func (s *ProductService) categories(q ListProductsQuery) []string {
	raw := q.Categories
	if len(raw) == 0 && strings.TrimSpace(q.Category) != "" {
		raw = []string{q.Category}
	}

	// Casers are stateful and must not be shared between requests.
	fold := cases.Lower(language.Und)
	var out []string
	for _, v := range raw {
		for _, c := range strings.Split(v, ",") {
			c = fold.String(strings.TrimSpace(c))
			if c != "" && !slices.Contains(out, c) {
				out = append(out, c)
			}
		}
	}
	slices.Sort(out)
	return out
}

// cacheKey renders the effective filter in a canonical form so that
// equivalent requests share one cache entry
func (l listing) cacheKey() string {
	v := url.Values{}
	f := l.filter
	if f.Search != "" {
		v.Set("search", strings.ToLower(f.Search))
	}
	if f.Name != "" {
		v.Set("name", strings.ToLower(f.Name))
	}
	if len(f.Categories) > 0 {
		v.Set("categories", strings.Join(f.Categories, ","))
	}
	if f.MinPrice != nil {
		v.Set("min_price", f.MinPrice.String())
	}
	if f.MaxPrice != nil {
		v.Set("max_price", f.MaxPrice.String())
	}
	v.Set("page", strconv.Itoa(f.Page))
	v.Set("per_page", strconv.Itoa(f.PerPage))
	return v.Encode()
}
