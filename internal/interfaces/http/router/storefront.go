package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/storefront/backend/internal/interfaces/http/handler"
)

// Handlers groups the endpoint handlers mounted by Storefront
type Handlers struct {
	Product *handler.ProductHandler
	Order   *handler.OrderHandler
	Auth    *handler.AuthHandler
	System  *handler.SystemHandler
}

// Guards are the per-route middleware Storefront applies.
// A nil guard is skipped.
type Guards struct {
	JWT           gin.HandlerFunc
	AuthRateLimit gin.HandlerFunc
	Swagger       gin.HandlerFunc
}

// Storefront mounts the public catalog, auth, order and system routes on engine
// and returns the API routes it registered.
func Storefront(engine *gin.Engine, h Handlers, g Guards) []string {
	engine.GET("/health", h.System.Health)

	if g.Swagger != nil {
		engine.GET("/swagger/*any", g.Swagger, ginSwagger.WrapHandler(swaggerFiles.Handler))
	} else {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	products := NewDomainGroup("catalog", "/products").
		GET("", h.Product.List).
		GET("/:id", h.Product.Show)

	authGroup := NewDomainGroup("auth", "/auth")
	authGroup.POST("/login", g.AuthRateLimit, h.Auth.Login)
	authGroup.Group("session", "").
		Use(g.JWT).
		GET("/me", h.Auth.Me).
		POST("/logout", h.Auth.Logout)

	orders := NewDomainGroup("ordering", "/orders").
		Use(g.JWT).
		POST("", h.Order.Create).
		GET("", h.Order.List).
		GET("/:id", h.Order.Show)

	system := NewDomainGroup("system", "/system").
		GET("/ping", h.System.Ping).
		GET("/info", h.System.GetSystemInfo)

	api := NewRouter(engine).
		Register(products).
		Register(authGroup).
		Register(orders).
		Register(system)
	api.Setup()
	return api.Routes()
}
