// Package main is the entry point for the order management API server.
package main

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/mytheresa/go-order-management/app/categories"
	"github.com/mytheresa/go-order-management/app/clients"
	"github.com/mytheresa/go-order-management/app/orders"
	"github.com/mytheresa/go-order-management/app/products"
	"github.com/mytheresa/go-order-management/app/reports"
	"github.com/mytheresa/go-order-management/app/router"
	"github.com/mytheresa/go-order-management/app/snapshot"
	"github.com/mytheresa/go-order-management/cache"
	"github.com/mytheresa/go-order-management/config"
	"github.com/mytheresa/go-order-management/database"
	"github.com/mytheresa/go-order-management/events"
	"github.com/mytheresa/go-order-management/models"
	"github.com/mytheresa/go-order-management/observability"
)

func main() {
	if err := run(); err != nil {
		stdlog.Fatalf("Application failed: %v", err)
	}
}

func run() error {
	ctx := context.Background()

	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger := observability.NewLogger(cfg.Env)
	defer logger.Sync()

	var shutdowns []func(context.Context) error
	if cfg.OtelEndpoint != "" {
		export := observability.ExportConfig{Endpoint: cfg.OtelEndpoint, AuthHeader: cfg.OtelAuthHeader}

		logShutdown, err := observability.SetupLoggingSDK(ctx, export)
		if err != nil {
			return err
		}
		_, traceShutdown, err := observability.SetupTracingSDK(ctx, export)
		if err != nil {
			return err
		}
		shutdowns = append(shutdowns, traceShutdown, logShutdown)
		logger = observability.WithOTelBridge(logger)
		logger.Info("OpenTelemetry export enabled", zap.String("endpoint", cfg.OtelEndpoint))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := observability.Shutdown(ctx, shutdowns...); err != nil {
			logger.Error("telemetry shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("addr", cfg.Addr()),
	)

	db, err := database.Connect(ctx, cfg.DSN(), cfg.IsDev(), logger)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.Migrate(db, logger); err != nil {
		return err
	}
	if cfg.IsDev() {
		if err := database.Seed(ctx, db, logger); err != nil {
			return err
		}
	}

	var reportCache reports.Cache
	if addr := cfg.RedisAddr(); addr != "" {
		client, err := cache.Connect(ctx, addr, cfg.RedisPassword, logger)
		if err != nil {
			return err
		}
		defer client.Close()
		reportCache = cache.NewReportCache(client, cfg.ReportCacheTTL, logger)
	} else {
		logger.Warn("redis not configured, report caching disabled")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.KafkaBroker != "" {
		kp, err := events.NewKafkaPublisher(cfg.KafkaBroker, cfg.OrderEventsTopic, observability.ServiceName, otel.GetTracerProvider(), logger)
		if err != nil {
			return err
		}
		publisher = kp
	} else {
		logger.Warn("kafka not configured, order events disabled")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("failed to close event publisher", zap.Error(err))
		}
	}()

	ordersRepo := models.NewOrdersRepository(db)
	productsRepo := models.NewProductsRepository(db)
	clientsRepo := models.NewClientsRepository(db)
	categoriesRepo := models.NewCategoriesRepository(db)
	reportsRepo := models.NewReportsRepository(db)

	reportHandler := reports.NewReportHandler(reportsRepo, reportCache, logger)
	service := orders.NewOrderService(ordersRepo, publisher, reportHandler, logger, otel.Tracer(observability.ServiceName))

	r := router.New(router.Handlers{
		Orders:     orders.NewOrderHandler(ordersRepo, service, logger),
		Products:   products.NewProductHandler(productsRepo, logger),
		Clients:    clients.NewClientHandler(clientsRepo, logger),
		Categories: categories.NewCategoryHandler(categoriesRepo, logger),
		Reports:    reportHandler,
		Snapshot:   snapshot.NewSnapshotHandler(productsRepo, ordersRepo, clientsRepo, logger),
	}, cfg.CORSAllowedOrigins, logger)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", cfg.Addr()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
