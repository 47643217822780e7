package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	catalogapp "github.com/cos/backend/internal/application/catalog"
	"github.com/cos/backend/internal/application/checkout"
	identityapp "github.com/cos/backend/internal/application/identity"
	"github.com/cos/backend/internal/application/shopping"
	"github.com/cos/backend/internal/domain/payment"
	"github.com/cos/backend/internal/domain/pricing"
	"github.com/cos/backend/internal/domain/shared/valueobject"
	"github.com/cos/backend/internal/infrastructure/auth"
	"github.com/cos/backend/internal/infrastructure/cache"
	"github.com/cos/backend/internal/infrastructure/config"
	"github.com/cos/backend/internal/infrastructure/event"
	"github.com/cos/backend/internal/infrastructure/lock"
	"github.com/cos/backend/internal/infrastructure/logger"
	"github.com/cos/backend/internal/infrastructure/persistence"
	"github.com/cos/backend/internal/infrastructure/telemetry"
	"github.com/cos/backend/internal/interfaces/http/handler"
	"github.com/cos/backend/internal/interfaces/http/middleware"
	"github.com/cos/backend/internal/interfaces/http/router"
)

const (
	version     = "1.0.0"
	lockStripes = 256
)

//	@title			Computer Ordering System API
//	@version		1.0
//	@description	Retail ordering back end: accounts, two-step login, cart and checkout.

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx := context.Background()
	telemetryCfg := telemetry.ConfigFrom(cfg)

	// The OTLP log core is teed next to the console core, so it must exist
	// before the logger does.
	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetryCfg)
	if err != nil {
		panic("Failed to initialize log export: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	}, logProvider.Core(telemetry.LogLevel(cfg.Log.Level)))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting customer order system",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), 200*time.Millisecond)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	log.Info("Database ready", zap.String("driver", cfg.Database.Driver))

	idempotency, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.Redis.Required),
	).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		_ = idempotency.Close()
	}()

	// Events
	metrics := telemetry.NewMetrics()
	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(event.NewAuditHandler(log))
	bus.Subscribe(metrics)
	if err := bus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Repositories
	customers := persistence.NewGormCustomerRepository(db.DB)
	ledger := persistence.NewGormOrderLedger(db.DB)
	committer := persistence.NewGormOrderCommitter(db.DB)
	products := persistence.NewMemoryProductRepository(persistence.DefaultProducts()...)
	sessions := persistence.NewMemorySessionRegistry()
	carts := persistence.NewMemoryCartStore()
	locker := lock.NewStripedLocker(lockStripes)

	policy := pricing.Policy{
		TaxRate: cfg.Pricing.TaxRate,
		MailFee: valueobject.NewMoney(cfg.Pricing.MailFee),
	}
	jwtService := auth.NewJWTService(cfg.JWT)

	// Services
	accountService := identityapp.NewAccountService(customers, locker, bus, log)
	authService := identityapp.NewAuthService(customers, sessions, locker, bus, jwtService, log)
	productService := catalogapp.NewProductService(products)
	cartService := shopping.NewCartService(carts, products, policy, locker, log)
	checkoutService := checkout.NewService(
		customers,
		sessions,
		carts,
		committer,
		ledger,
		payment.NewAuthorizer(),
		policy,
		locker,
		checkout.Config{
			MaxAttempts:    cfg.Checkout.MaxPaymentAttempts,
			IdempotencyTTL: cfg.Checkout.IdempotencyTTL,
		},
		log,
	)
	checkoutService.SetEventPublisher(bus)
	checkoutService.SetIdempotencyStore(idempotency)
	checkoutService.SetCatalog(products)

	// HTTP
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	systemHandler := handler.NewSystemHandler(version)
	systemHandler.AddCheck("database", func(context.Context) error { return db.Ping() })

	var loginLimiter *middleware.RateLimiter
	if cfg.HTTP.LoginRateLimit > 0 {
		loginLimiter = middleware.NewRateLimiter(cfg.HTTP.LoginRateLimit, cfg.HTTP.LoginRateWindow)
		defer loginLimiter.Stop()
		log.Info("Login rate limiting enabled",
			zap.Int("requests", cfg.HTTP.LoginRateLimit),
			zap.Duration("window", cfg.HTTP.LoginRateWindow),
		)
	}

	engine := router.NewEngine(router.Dependencies{
		HTTP:         cfg.HTTP,
		Tracing:      middleware.TracingConfig{ServiceName: cfg.App.Name, Enabled: tracerProvider.IsEnabled()},
		Logger:       log,
		JWT:          jwtService,
		Sessions:     sessions,
		Metrics:      metrics,
		LoginLimiter: loginLimiter,
		Swagger:      cfg.Swagger.Enabled,
		Handlers: router.Handlers{
			System:   systemHandler,
			Account:  handler.NewAccountHandler(accountService),
			Auth:     handler.NewAuthHandler(authService),
			Product:  handler.NewProductHandler(productService),
			Cart:     handler.NewCartHandler(cartService),
			Checkout: handler.NewCheckoutHandler(checkoutService),
		},
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	_ = bus.Stop(shutdownCtx)
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Tracer shutdown failed", zap.Error(err))
	}
	if err := logProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Log export shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
