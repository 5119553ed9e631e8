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

	syncapp "github.com/kkbridge/backend/internal/application/sync"
	"github.com/kkbridge/backend/internal/domain/integration"
	"github.com/kkbridge/backend/internal/infrastructure/config"
	"github.com/kkbridge/backend/internal/infrastructure/invoicing"
	"github.com/kkbridge/backend/internal/infrastructure/logger"
	"github.com/kkbridge/backend/internal/infrastructure/marketplace"
	"github.com/kkbridge/backend/internal/infrastructure/scheduler"
	"github.com/kkbridge/backend/internal/infrastructure/storefront"
	"github.com/kkbridge/backend/internal/infrastructure/telemetry"
	"github.com/kkbridge/backend/internal/interfaces/http/handler"
	"github.com/kkbridge/backend/internal/interfaces/http/middleware"
	"github.com/kkbridge/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting KK Bridge",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Initialize platform adapters
	kuantoKusta, err := marketplace.NewKuantoKustaAdapter(&marketplace.KuantoKustaConfig{
		APIBaseURL:     cfg.Marketplace.APIBaseURL,
		APIKey:         cfg.Marketplace.APIKey,
		TimeoutSeconds: cfg.Marketplace.TimeoutSeconds,
	})
	if err != nil {
		log.Fatal("Failed to initialize marketplace adapter", zap.Error(err))
	}

	shopify, err := storefront.NewShopifyAdapter(&storefront.ShopifyConfig{
		ShopDomain:     cfg.Storefront.ShopDomain,
		AccessToken:    cfg.Storefront.AccessToken,
		APIVersion:     cfg.Storefront.APIVersion,
		TimeoutSeconds: cfg.Storefront.TimeoutSeconds,
	})
	if err != nil {
		log.Fatal("Failed to initialize storefront adapter", zap.Error(err))
	}

	moloni, err := invoicing.NewMoloniAdapter(&invoicing.MoloniConfig{
		APIBaseURL:     cfg.Invoicing.APIBaseURL,
		DeveloperID:    cfg.Invoicing.DeveloperID,
		ClientSecret:   cfg.Invoicing.ClientSecret,
		Username:       cfg.Invoicing.Username,
		Password:       cfg.Invoicing.Password,
		CompanyID:      cfg.Invoicing.CompanyID,
		TimeoutSeconds: cfg.Invoicing.TimeoutSeconds,
	})
	if err != nil {
		log.Fatal("Failed to initialize invoicing adapter", zap.Error(err))
	}

	// Initialize application services
	orderSyncService := syncapp.NewOrderSyncService(kuantoKusta, shopify, log)
	statusSyncService := syncapp.NewStatusSyncService(kuantoKusta, shopify, moloni, log)
	shipmentService := syncapp.NewShipmentService(kuantoKusta, shopify, log)

	// Start the periodic sync trigger (if enabled)
	syncTrigger := scheduler.NewSyncTrigger(scheduler.SyncTriggerConfig{
		Enabled:            cfg.Scheduler.Enabled,
		OrderSyncInterval:  cfg.Scheduler.OrderSyncInterval,
		StatusSyncInterval: cfg.Scheduler.StatusSyncInterval,
		Window:             integration.SyncWindow(cfg.Scheduler.Window),
	}, orderSyncService, statusSyncService, log)
	if err := syncTrigger.Start(context.Background()); err != nil {
		log.Fatal("Failed to start sync trigger", zap.Error(err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := syncTrigger.Stop(stopCtx); err != nil {
			log.Error("Error stopping sync trigger", zap.Error(err))
		}
	}()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Tracing - Create a span per request, tag it, mark errors
	// 4. Logger - Log requests with trace correlation
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Health check endpoint (outside API versioning)
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Setup API routes
	syncHandler := handler.NewSyncHandler(orderSyncService, statusSyncService, shipmentService, log)
	systemHandler := handler.NewSystemHandler()

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(syncHandler).
		Register(systemHandler)
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
