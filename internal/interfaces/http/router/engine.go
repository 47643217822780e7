package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/cos/backend/docs"
	"github.com/cos/backend/internal/infrastructure/auth"
	"github.com/cos/backend/internal/infrastructure/config"
	"github.com/cos/backend/internal/infrastructure/logger"
	"github.com/cos/backend/internal/infrastructure/telemetry"
	"github.com/cos/backend/internal/interfaces/http/handler"
	"github.com/cos/backend/internal/interfaces/http/middleware"
)

// Handlers groups the HTTP handlers mounted by NewEngine
type Handlers struct {
	System   *handler.SystemHandler
	Account  *handler.AccountHandler
	Auth     *handler.AuthHandler
	Product  *handler.ProductHandler
	Cart     *handler.CartHandler
	Checkout *handler.CheckoutHandler
}

// Dependencies is everything NewEngine wires together
type Dependencies struct {
	HTTP     config.HTTPConfig
	Tracing  middleware.TracingConfig
	Logger   *zap.Logger
	JWT      *auth.JWTService
	Sessions middleware.SessionChecker
	Metrics  *telemetry.Metrics
	// LoginLimiter throttles POST /auth/login per client IP; nil disables it
	LoginLimiter *middleware.RateLimiter
	// Swagger serves the API documentation on /swagger/*any
	Swagger  bool
	Handlers Handlers
}

// NewEngine builds the gin engine. Middleware runs in this order:
// request id, panic recovery, access log, security headers, CORS, body
// limit, tracing, metrics. /health, /metrics and /swagger sit outside /api/v1.
func NewEngine(deps Dependencies) *gin.Engine {
	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(deps.Logger))
	engine.Use(logger.GinMiddleware(deps.Logger))
	engine.Use(middleware.Secure())

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = deps.HTTP.CORSAllowOrigins
	engine.Use(middleware.CORSWithConfig(cors))

	if deps.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(deps.HTTP.MaxBodySize))
	}
	engine.Use(middleware.TracingWithConfig(deps.Tracing))
	if deps.Metrics != nil {
		engine.Use(deps.Metrics.GinMiddleware())
		engine.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	h := deps.Handlers
	engine.GET("/health", h.System.Health)
	if deps.Swagger {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	requireAuth := middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService: deps.JWT,
		Sessions:   deps.Sessions,
		Logger:     deps.Logger,
	})

	r := NewRouter(engine, WithAPIVersion("v1"))

	accounts := NewDomainGroup("accounts", "/accounts")
	accounts.POST("", h.Account.Register)
	accounts.GET("/challenges", h.Account.ChallengeQuestions)
	accounts.Group("me", "/me").Use(requireAuth).GET("", h.Account.Me)
	r.Register(accounts)

	authRoutes := NewDomainGroup("auth", "/auth")
	if deps.LoginLimiter != nil {
		authRoutes.POST("/login", middleware.RateLimit(deps.LoginLimiter), h.Auth.Login)
	} else {
		authRoutes.POST("/login", h.Auth.Login)
	}
	authRoutes.POST("/challenge", h.Auth.Challenge)
	authRoutes.Group("session", "").Use(requireAuth).POST("/logout", h.Auth.Logout)
	r.Register(authRoutes)

	products := NewDomainGroup("products", "/products")
	products.GET("", h.Product.List)
	products.GET("/:id", h.Product.Get)
	r.Register(products)

	cartRoutes := NewDomainGroup("cart", "/cart").Use(requireAuth)
	cartRoutes.GET("", h.Cart.View)
	cartRoutes.DELETE("", h.Cart.Clear)
	cartRoutes.POST("/items", h.Cart.AddItem)
	cartRoutes.PUT("/items/:product_id", h.Cart.SetQuantity)
	cartRoutes.DELETE("/items/:product_id", h.Cart.RemoveItem)
	r.Register(cartRoutes)

	checkoutRoutes := NewDomainGroup("checkout", "").Use(requireAuth)
	checkoutRoutes.POST("/checkout", h.Checkout.PlaceOrder)
	checkoutRoutes.GET("/orders", h.Checkout.Orders)
	r.Register(checkoutRoutes)

	r.Setup()
	return engine
}
