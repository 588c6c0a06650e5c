package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	catalogapp "github.com/storefront/backend/internal/application/catalog"
	identityapp "github.com/storefront/backend/internal/application/identity"
	orderingapp "github.com/storefront/backend/internal/application/ordering"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/event"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/storage"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
	"github.com/storefront/backend/tests/testutil"
)

// TestMain runs before any tests and handles cleanup
func TestMain(m *testing.M) {
	code := m.Run()
	CleanupSharedContainer()
	os.Exit(code)
}

// storefront is the application wired against the test database
type storefront struct {
	db         *TestDB
	logger     *zap.Logger
	serializer *event.EventSerializer
	jwt        *auth.JWTService
	orders     *orderingapp.OrderService
	engine     *gin.Engine
}

func newStorefront(t *testing.T) *storefront {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := NewSharedTestDB(t)
	log := zaptest.NewLogger(t)

	serializer := event.NewEventSerializer()
	event.RegisterAllEvents(serializer)
	txScope := persistence.NewGormTransactionScope(tdb.DB, event.NewOutboxPublisher(serializer))

	productRepo := persistence.NewGormProductRepository(tdb.DB)
	orderRepo := persistence.NewGormOrderRepository(tdb.DB)
	userRepo := persistence.NewGormUserRepository(tdb.DB)

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                "integration-secret-key-32-characters",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "storefront-test",
	})
	blacklist := auth.NewInMemoryTokenBlacklist()
	listings := cache.NewInMemoryProductListCache(time.Minute)

	productService := catalogapp.NewProductService(productRepo, log,
		catalogapp.WithImageURLResolver(storage.NewStaticImageURLs("https://cdn.test/")),
		catalogapp.WithListingCache(listings),
	)
	orderService := orderingapp.NewOrderService(productRepo, orderRepo, txScope, log,
		orderingapp.WithPlacementTimeout(10*time.Second),
		orderingapp.WithListingInvalidator(listings),
	)
	authService := identityapp.NewAuthService(userRepo, jwtService, blacklist, log)

	middleware.SetupValidator()
	engine := gin.New()
	engine.Use(middleware.RequestID())
	jwtMiddleware := middleware.JWTAuthMiddleware(middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
		Logger:         log,
	})
	router.Storefront(engine, router.Handlers{
		Product: handler.NewProductHandler(productService),
		Order:   handler.NewOrderHandler(orderService),
		Auth:    handler.NewAuthHandler(authService),
		System: handler.NewSystemHandler("test", map[string]handler.Pinger{
			"database": handler.PingerFunc(tdb.SqlDB.PingContext),
		}),
	}, router.Guards{JWT: jwtMiddleware, Swagger: middleware.SwaggerProtection(config.SwaggerConfig{}, nil)})

	return &storefront{
		db:         tdb,
		logger:     log,
		serializer: serializer,
		jwt:        jwtService,
		orders:     orderService,
		engine:     engine,
	}
}

func (s *storefront) createProduct(t *testing.T, name, price string, stock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(name, decimal.RequireFromString(price), stock)
	require.NoError(t, err)
	p.SetCategory("Test")
	require.NoError(t, persistence.NewGormProductRepository(s.db.DB).Save(context.Background(), p))
	return p
}

func (s *storefront) createUser(t *testing.T, email string) *identity.User {
	t.Helper()
	u, err := identity.NewUser("Buyer "+email, email, "password123")
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormUserRepository(s.db.DB).Create(context.Background(), u))
	return u
}

func (s *storefront) stockOf(t *testing.T, productID uuid.UUID) int {
	t.Helper()
	var stock int
	require.NoError(t, s.db.DB.Raw("SELECT stock_quantity FROM products WHERE id = ?", productID).Scan(&stock).Error)
	return stock
}

func (s *storefront) count(t *testing.T, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.db.DB.Table(table).Count(&n).Error)
	return n
}

func (s *storefront) client(t *testing.T, user *identity.User) *testutil.Client {
	t.Helper()
	c := &testutil.Client{Engine: s.engine}
	if user != nil {
		token, err := s.jwt.GenerateAccessToken(auth.TokenSubject{UserID: user.ID, Email: user.Email, Name: user.Name})
		require.NoError(t, err)
		c.Token = token.Token
	}
	return c
}

func placeRequest(lines ...orderingapp.PlaceOrderLine) orderingapp.PlaceOrderRequest {
	return orderingapp.PlaceOrderRequest{Products: lines}
}

func line(p *catalog.Product, qty int) orderingapp.PlaceOrderLine {
	return orderingapp.PlaceOrderLine{ProductID: p.ID.String(), Quantity: qty}
}
