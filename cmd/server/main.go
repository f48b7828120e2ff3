package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	checkoutapp "github.com/openmarket/backend/internal/application/checkout"
	fulfillmentapp "github.com/openmarket/backend/internal/application/fulfillment"
	inventoryapp "github.com/openmarket/backend/internal/application/inventory"
	storeapp "github.com/openmarket/backend/internal/application/store"
	domainfulfillment "github.com/openmarket/backend/internal/domain/fulfillment"
	"github.com/openmarket/backend/internal/domain/proxy"
	"github.com/openmarket/backend/internal/infrastructure/auth"
	"github.com/openmarket/backend/internal/infrastructure/cache"
	"github.com/openmarket/backend/internal/infrastructure/config"
	"github.com/openmarket/backend/internal/infrastructure/event"
	"github.com/openmarket/backend/internal/infrastructure/logger"
	"github.com/openmarket/backend/internal/infrastructure/payment"
	"github.com/openmarket/backend/internal/infrastructure/persistence"
	"github.com/openmarket/backend/internal/interfaces/http/handler"
	"github.com/openmarket/backend/internal/interfaces/http/middleware"
	"github.com/openmarket/backend/internal/interfaces/http/router"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting fulfillment engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database, with GORM logging routed through zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Repositories
	storeRepo := persistence.NewGormStoreRepository(db.DB)
	inventoryRepo := persistence.NewGormInventoryRepository(db.DB)
	_ = persistence.NewGormOrderRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Sourcing history cache: last-wholesaler lookups go through Redis when
	// enabled, with an in-memory fallback for single-instance setups
	if cfg.Checkout.SourcingCacheEnabled {
		factory := cache.NewSourcingHistoryStoreFactory(cfg.Redis, cache.WithLogger(log))
		sourcingStore, err := factory.CreateStore()
		if err != nil {
			log.Fatal("Failed to create sourcing history store", zap.Error(err))
		}
		defer func() {
			if err := sourcingStore.Close(); err != nil {
				log.Error("Error closing sourcing history store", zap.Error(err))
			}
		}()

		ttl := cfg.Checkout.SourcingCacheTTL
		txScope.DecorateProxyRepo(func(inner proxy.Repository) proxy.Repository {
			return cache.NewCachingProxyRepository(inner, sourcingStore, ttl, log)
		})
		log.Info("Sourcing history cache enabled", zap.Duration("ttl", ttl))
	}

	// Payment gateway
	gateway := payment.NewHTTPGateway(&cfg.Payment, log)

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	storeService := storeapp.NewService(storeRepo)
	inventoryService := inventoryapp.NewService(inventoryRepo, storeRepo, log)
	checkoutService := checkoutapp.NewService(txScope, gateway, log)
	checkoutService.SetReserveRetries(cfg.Checkout.ReserveRetries)
	approvalService := fulfillmentapp.NewApprovalService(txScope, gateway, log)
	proxyOrderService := fulfillmentapp.NewProxyOrderService(txScope, gateway, log)
	statusGuard := domainfulfillment.NewStatusGuard()
	orderStatusService := fulfillmentapp.NewOrderStatusService(txScope, statusGuard, log)

	// Event bus: cancellation fan-out listens for rejected and cancelled
	// proxy orders and unwinds the customer order
	eventBus := event.NewInMemoryEventBus(log)
	cancellationCoordinator := fulfillmentapp.NewCancellationCoordinator(txScope, log)
	eventBus.Subscribe(cancellationCoordinator)
	log.Info("Event handlers registered",
		zap.Strings("cancellation_events", cancellationCoordinator.EventTypes()),
	)

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	inventoryService.SetEventPublisher(eventBus)
	checkoutService.SetEventPublisher(eventBus)
	approvalService.SetEventPublisher(eventBus)
	proxyOrderService.SetEventPublisher(eventBus)
	orderStatusService.SetEventPublisher(eventBus)

	// HTTP surface
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORS(cfg.HTTP))

	handler.NewSystemHandler(db, cfg.App.Name, version).RegisterRoutes(engine)

	r := router.NewRouter(engine,
		router.WithAPIVersion("v1"),
		router.WithAuth(middleware.Auth(jwtService, log)),
	)
	r.Register(
		handler.NewStoreHandler(storeService),
		handler.NewInventoryHandler(inventoryService),
		handler.NewCheckoutHandler(checkoutService),
		handler.NewOrderHandler(orderStatusService, approvalService),
		handler.NewProxyOrderHandler(proxyOrderService),
	)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}

	log.Info("Server stopped")
}
