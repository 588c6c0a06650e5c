package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	catalogapp "github.com/storefront/backend/internal/application/catalog"
	"github.com/storefront/backend/internal/application/identity"
	orderingapp "github.com/storefront/backend/internal/application/ordering"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type mockProductReader struct {
	mock.Mock
}

func (m *mockProductReader) List(ctx context.Context, q catalogapp.ListProductsQuery) (*catalogapp.ProductListResponse, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.ProductListResponse), args.Error(1)
}

func (m *mockProductReader) GetByID(ctx context.Context, id uuid.UUID) (*catalogapp.ProductResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogapp.ProductResponse), args.Error(1)
}

type mockOrderPlacer struct {
	mock.Mock
}

func (m *mockOrderPlacer) PlaceOrder(ctx context.Context, buyerID uuid.UUID, req orderingapp.PlaceOrderRequest) (*orderingapp.OrderResponse, error) {
	args := m.Called(ctx, buyerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderingapp.OrderResponse), args.Error(1)
}

func (m *mockOrderPlacer) GetOrder(ctx context.Context, orderID, requesterID uuid.UUID) (*orderingapp.OrderResponse, error) {
	args := m.Called(ctx, orderID, requesterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderingapp.OrderResponse), args.Error(1)
}

func (m *mockOrderPlacer) ListMine(ctx context.Context, buyerID uuid.UUID, page int) (shared.Paginated[orderingapp.OrderResponse], error) {
	args := m.Called(ctx, buyerID, page)
	return args.Get(0).(shared.Paginated[orderingapp.OrderResponse]), args.Error(1)
}

type mockAuthenticator struct {
	mock.Mock
}

func (m *mockAuthenticator) Login(ctx context.Context, input identity.LoginInput) (*identity.LoginResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.LoginResult), args.Error(1)
}

func (m *mockAuthenticator) Me(ctx context.Context, userID uuid.UUID) (*identity.UserInfo, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.UserInfo), args.Error(1)
}

func (m *mockAuthenticator) Logout(ctx context.Context, input identity.LogoutInput) error {
	return m.Called(ctx, input).Error(0)
}

// asUser stands in for the JWT middleware
func asUser(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.JWTUserIDKey, userID.String())
		c.Next()
	}
}

func serve(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
