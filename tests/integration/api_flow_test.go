package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogapp "github.com/storefront/backend/internal/application/catalog"
	identityapp "github.com/storefront/backend/internal/application/identity"
	orderingapp "github.com/storefront/backend/internal/application/ordering"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/tests/testutil"
)

func TestAPI_LoginBrowseAndOrder(t *testing.T) {
	app := newStorefront(t)
	require.NoError(t, persistence.SeedDemoData(context.Background(), app.db.DB, app.logger))

	anon := &testutil.Client{Engine: app.engine}

	// login with the seeded account
	w := anon.Do(t, http.MethodPost, "/api/v1/auth/login", identityapp.LoginInput{
		Email:    "john@example.com",
		Password: "password123",
	})
	testutil.StatusOK(t, w)
	login := testutil.Decode[identityapp.LoginResult](t, w)
	require.NotEmpty(t, login.Data.AccessToken)
	assert.Equal(t, "Bearer", login.Data.TokenType)

	buyer := &testutil.Client{Engine: app.engine, Token: login.Data.AccessToken}

	w = buyer.Do(t, http.MethodGet, "/api/v1/auth/me", nil)
	testutil.StatusOK(t, w)
	me := testutil.Decode[identityapp.UserInfo](t, w)
	assert.Equal(t, "john@example.com", me.Data.Email)

	w = anon.Do(t, http.MethodGet, "/api/v1/products?per_page=3", nil)
	testutil.StatusOK(t, w)
	var listing struct {
		Data []catalogapp.ProductResponse `json:"data"`
		Meta catalogapp.ListMeta          `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	require.Len(t, listing.Data, 3)
	assert.Equal(t, int64(6), listing.Meta.Total)
	assert.Equal(t, 2, listing.Meta.TotalPages)

	picked := listing.Data[0]
	require.Positive(t, picked.StockQuantity)

	w = buyer.Do(t, http.MethodPost, "/api/v1/orders", orderingapp.PlaceOrderRequest{
		Products: []orderingapp.PlaceOrderLine{{ProductID: picked.ID.String(), Quantity: 1}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	placed := testutil.Decode[orderingapp.OrderResponse](t, w)
	assert.Equal(t, "Order placed successfully", placed.Message)
	assert.Equal(t, "pending", placed.Data.Status)
	assert.Equal(t, picked.PriceRaw, placed.Data.TotalAmount)
	assert.Equal(t, picked.StockQuantity-1, app.stockOf(t, picked.ID))

	w = buyer.Do(t, http.MethodGet, "/api/v1/orders/"+placed.Data.ID.String(), nil)
	testutil.StatusOK(t, w)
	fetched := testutil.Decode[orderingapp.OrderResponse](t, w)
	require.Len(t, fetched.Data.Lines, 1)
	assert.Equal(t, picked.Name, fetched.Data.Lines[0].Name)

	w = buyer.Do(t, http.MethodGet, "/api/v1/orders", nil)
	testutil.StatusOK(t, w)
	mine := testutil.Decode[[]orderingapp.OrderResponse](t, w)
	assert.Len(t, mine.Data, 1)

	// another account cannot read the order
	stranger := app.client(t, app.createUser(t, "stranger@example.com"))
	w = stranger.Do(t, http.MethodGet, "/api/v1/orders/"+placed.Data.ID.String(), nil)
	testutil.AssertError(t, w, http.StatusForbidden, dto.ErrCodeForbidden)

	// logout revokes the token
	w = buyer.Do(t, http.MethodPost, "/api/v1/auth/logout", nil)
	testutil.StatusOK(t, w)
	w = buyer.Do(t, http.MethodGet, "/api/v1/orders", nil)
	testutil.AssertError(t, w, http.StatusUnauthorized, dto.ErrCodeTokenRevoked)
}

func TestAPI_OrderRejections(t *testing.T) {
	app := newStorefront(t)
	buyer := app.client(t, app.createUser(t, "buyer@example.com"))
	lamp := app.createProduct(t, "Desk Lamp", "39.90", 1)

	t.Run("shortage names the product", func(t *testing.T) {
		w := buyer.Do(t, http.MethodPost, "/api/v1/orders", placeRequest(line(lamp, 2)))
		testutil.AssertError(t, w, http.StatusUnprocessableEntity, dto.ErrCodeInsufficientStock)
		assert.Contains(t, w.Body.String(), "Desk Lamp")
		assert.Equal(t, 1, app.stockOf(t, lamp.ID))
	})

	t.Run("invalid lines are reported together", func(t *testing.T) {
		w := buyer.Do(t, http.MethodPost, "/api/v1/orders", orderingapp.PlaceOrderRequest{
			Products: []orderingapp.PlaceOrderLine{
				{ProductID: "not-a-uuid", Quantity: 1},
				{ProductID: lamp.ID.String(), Quantity: 0},
			},
		})
		testutil.AssertError(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
		assert.Contains(t, w.Body.String(), "products.0.product_id")
		assert.Contains(t, w.Body.String(), "products.1.quantity")
	})

	t.Run("anonymous buyers are rejected", func(t *testing.T) {
		anon := &testutil.Client{Engine: app.engine}
		w := anon.Do(t, http.MethodPost, "/api/v1/orders", placeRequest(line(lamp, 1)))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	assert.Zero(t, app.count(t, "orders"))
}
