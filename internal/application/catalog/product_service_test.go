package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var _ ListingCache = (*cache.InMemoryProductListCache)(nil)

func newProduct(t *testing.T, name, price string, stock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(name, decimal.RequireFromString(price), stock)
	require.NoError(t, err)
	return p
}

func pageOf(products ...*catalog.Product) shared.Paginated[catalog.Product] {
	items := make([]catalog.Product, len(products))
	for i, p := range products {
		items[i] = *p
	}
	return shared.NewPaginated(items, int64(len(items)), 1, DefaultPerPage)
}

func TestProductService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("applies defaults and maps products", func(t *testing.T) {
		repo := new(MockProductRepository)
		mug := newProduct(t, "Mug", "1250.5", 3)
		mug.SetImageKey("products/mug.jpg")
		tea := newProduct(t, "Tea", "5.50", 0)

		repo.On("FindActive", ctx, catalog.ProductFilter{Page: 1, PerPage: DefaultPerPage}).
			Return(pageOf(mug, tea), nil)
		images := new(MockImageURLResolver)
		images.On("ImageURL", ctx, "products/mug.jpg").Return("https://cdn.example.com/products/mug.jpg", nil)

		svc := NewProductService(repo, nil, WithImageURLResolver(images))
		resp, err := svc.List(ctx, ListProductsQuery{})
		require.NoError(t, err)

		require.Len(t, resp.Data, 2)
		assert.Equal(t, "Mug", resp.Data[0].Name)
		assert.Equal(t, "1,250.50", resp.Data[0].Price)
		assert.Equal(t, "1250.50", resp.Data[0].PriceRaw)
		assert.Equal(t, "https://cdn.example.com/products/mug.jpg", resp.Data[0].ImageURL)
		assert.True(t, resp.Data[0].InStock)
		assert.False(t, resp.Data[1].InStock)
		assert.Empty(t, resp.Data[1].ImageURL)

		assert.Equal(t, int64(2), resp.Meta.Total)
		assert.Equal(t, 2, resp.Meta.Count)
		assert.Equal(t, 15, resp.Meta.PerPage)
		assert.Equal(t, 1, resp.Meta.CurrentPage)
		assert.False(t, resp.Meta.HasMorePages)
		assert.Empty(t, resp.Filters)
		images.AssertNumberOfCalls(t, "ImageURL", 1)
	})

	t.Run("normalizes filters", func(t *testing.T) {
		repo := new(MockProductRepository)
		minPrice := decimal.RequireFromString("5")
		maxPrice := decimal.RequireFromString("20.5")

		repo.On("FindActive", ctx, mock.MatchedBy(func(f catalog.ProductFilter) bool {
			return f.Search == "mug" &&
				f.Name == "Blue" &&
				assert.ObjectsAreEqual([]string{"kitchen", "tea"}, f.Categories) &&
				f.MinPrice != nil && f.MinPrice.Equal(minPrice) &&
				f.MaxPrice != nil && f.MaxPrice.Equal(maxPrice) &&
				f.Page == 2 && f.PerPage == MaxPerPage
		})).Return(shared.NewPaginated([]catalog.Product{}, 0, 2, MaxPerPage), nil)

		svc := NewProductService(repo, nil)
		resp, err := svc.List(ctx, ListProductsQuery{
			Search:     "  mug ",
			Name:       "Blue",
			Categories: []string{"Tea, KITCHEN", " ,tea"},
			Category:   "ignored",
			MinPrice:   "5",
			MaxPrice:   "20.5",
			Page:       2,
			PerPage:    500,
		})
		require.NoError(t, err)

		assert.Equal(t, map[string]string{
			"search":     "mug",
			"name":       "Blue",
			"category":   "ignored",
			"categories": "kitchen,tea",
			"min_price":  "5",
			"max_price":  "20.5",
		}, resp.Filters)
		repo.AssertExpectations(t)
	})

	t.Run("single category applies without a categories list", func(t *testing.T) {
		repo := new(MockProductRepository)
		repo.On("FindActive", ctx, mock.MatchedBy(func(f catalog.ProductFilter) bool {
			return assert.ObjectsAreEqual([]string{"kitchen"}, f.Categories)
		})).Return(pageOf(), nil)

		svc := NewProductService(repo, nil)
		_, err := svc.List(ctx, ListProductsQuery{Category: "Kitchen"})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("rejects non numeric prices", func(t *testing.T) {
		repo := new(MockProductRepository)
		svc := NewProductService(repo, nil)

		_, err := svc.List(ctx, ListProductsQuery{MinPrice: "cheap", MaxPrice: "1e"})
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrValidationFailed)

		fields := shared.FieldErrors(err)
		require.Len(t, fields, 2)
		assert.Equal(t, "min_price", fields[0].Field)
		assert.Equal(t, "max_price", fields[1].Field)
		repo.AssertNotCalled(t, "FindActive", mock.Anything, mock.Anything)
	})

	t.Run("page sizes option", func(t *testing.T) {
		repo := new(MockProductRepository)
		repo.On("FindActive", ctx, catalog.ProductFilter{Page: 1, PerPage: 20}).Return(pageOf(), nil)

		svc := NewProductService(repo, nil, WithPageSizes(20, 50))
		_, err := svc.List(ctx, ListProductsQuery{})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("repository error", func(t *testing.T) {
		repo := new(MockProductRepository)
		repo.On("FindActive", ctx, mock.Anything).Return(shared.Paginated[catalog.Product]{}, errors.New("db down"))

		svc := NewProductService(repo, nil)
		_, err := svc.List(ctx, ListProductsQuery{})
		assert.EqualError(t, err, "db down")
	})

	t.Run("image resolver failure blanks the url", func(t *testing.T) {
		repo := new(MockProductRepository)
		mug := newProduct(t, "Mug", "10", 1)
		mug.SetImageKey("products/mug.jpg")
		repo.On("FindActive", ctx, mock.Anything).Return(pageOf(mug), nil)
		images := new(MockImageURLResolver)
		images.On("ImageURL", ctx, "products/mug.jpg").Return("", errors.New("no credentials"))

		svc := NewProductService(repo, nil, WithImageURLResolver(images))
		resp, err := svc.List(ctx, ListProductsQuery{})
		require.NoError(t, err)
		assert.Empty(t, resp.Data[0].ImageURL)
	})
}

func TestProductService_ListCached(t *testing.T) {
	ctx := context.Background()
	repo := new(MockProductRepository)
	repo.On("FindActive", ctx, mock.Anything).Return(pageOf(newProduct(t, "Mug", "10", 1)), nil)

	listings := cache.NewInMemoryProductListCache(time.Minute)
	svc := NewProductService(repo, nil, WithListingCache(listings))

	first, err := svc.List(ctx, ListProductsQuery{Categories: []string{"Tea,kitchen"}})
	require.NoError(t, err)
	second, err := svc.List(ctx, ListProductsQuery{Categories: []string{"KITCHEN", "tea"}})
	require.NoError(t, err)

	assert.Equal(t, first.Data, second.Data)
	repo.AssertNumberOfCalls(t, "FindActive", 1)

	_, err = svc.List(ctx, ListProductsQuery{Page: 2})
	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "FindActive", 2)

	require.NoError(t, listings.Invalidate(ctx))
	_, err = svc.List(ctx, ListProductsQuery{Categories: []string{"tea,kitchen"}})
	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "FindActive", 3)
}

func TestProductService_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("returns inactive products too", func(t *testing.T) {
		repo := new(MockProductRepository)
		p := newProduct(t, "Mug", "10", 0)
		p.Deactivate()
		repo.On("FindByID", ctx, p.ID).Return(p, nil)

		svc := NewProductService(repo, nil)
		resp, err := svc.GetByID(ctx, p.ID)
		require.NoError(t, err)

		assert.Equal(t, p.ID, resp.ID)
		assert.False(t, resp.IsActive)
		assert.False(t, resp.InStock)
		assert.Equal(t, "10.00", resp.Price)
		assert.Equal(t, p.CreatedAt.UTC().Format(timestampLayout), resp.CreatedAt)
	})

	t.Run("not found", func(t *testing.T) {
		repo := new(MockProductRepository)
		id := uuid.New()
		repo.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound)

		svc := NewProductService(repo, nil)
		_, err := svc.GetByID(ctx, id)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGroupThousands(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0.00", "0.00"},
		{"999.99", "999.99"},
		{"1000.00", "1,000.00"},
		{"1234567.80", "1,234,567.80"},
		{"-12345.00", "-12,345.00"},
		{"100000", "100,000"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, groupThousands(tt.in))
		})
	}
}
