package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/dealpay/payment-service/internal/adapters/postgres"
	"github.com/dealpay/payment-service/internal/adapters/stripe"
	"github.com/dealpay/payment-service/internal/config"
	paymenthandler "github.com/dealpay/payment-service/internal/handlers/payment"
	webhookhandler "github.com/dealpay/payment-service/internal/handlers/webhook"
	paymentsvc "github.com/dealpay/payment-service/internal/services/payment"
	reconcilesvc "github.com/dealpay/payment-service/internal/services/reconcile"
	"github.com/dealpay/payment-service/pkg/middleware"
	"github.com/dealpay/payment-service/pkg/observability"
	"github.com/dealpay/payment-service/pkg/resilience"
	"github.com/dealpay/payment-service/pkg/security"
	"github.com/dealpay/payment-service/pkg/shutdown"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	zapLogger, err := initLogger(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync() //nolint:errcheck

	logger := security.NewZapLogger(zapLogger)

	ctx := context.Background()

	if err := resolveProcessorSecrets(ctx, cfg, zapLogger); err != nil {
		zapLogger.Fatal("Failed to resolve processor secrets", zap.Error(err))
	}

	// Database pool
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.ConnectionString())
	if err != nil {
		zapLogger.Fatal("Invalid database configuration", zap.Error(err))
	}
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		zapLogger.Fatal("Failed to create database pool", zap.Error(err))
	}

	pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	if err := pool.Ping(pingCtx); err != nil {
		cancelPing()
		zapLogger.Fatal("Database unreachable", zap.Error(err))
	}
	cancelPing()
	zapLogger.Info("Database pool established",
		zap.String("host", cfg.Database.Host),
		zap.Int32("max_conns", cfg.Database.MaxConns),
	)

	// Dependency wiring
	timeouts := resilience.DefaultTimeoutConfig()

	dbExecutor := postgres.NewDBExecutor(pool)
	dealRepo := postgres.NewDealRepository(dbExecutor)
	intentRepo := postgres.NewIntentRepository(dbExecutor)
	paymentRepo := postgres.NewPaymentRepository(dbExecutor)

	gateway := stripe.NewGateway(cfg.Processor.SecretKey, cfg.Processor.WebhookSecret, zapLogger)

	paymentService := paymentsvc.NewService(dbExecutor, dealRepo, intentRepo, gateway, logger, timeouts)
	reconcileService := reconcilesvc.NewService(dealRepo, intentRepo, paymentRepo, gateway, logger, timeouts)

	paymentHandler := paymenthandler.NewHandler(paymentService, logger, timeouts)
	webhookHandler := webhookhandler.NewHandler(reconcileService, logger, timeouts)

	intentLimiter := middleware.NewRateLimiter(cfg.Server.IntentRateLimit, cfg.Server.IntentRateBurst)

	healthChecker := observability.NewHealthChecker(pool)

	// Routes
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/deals", paymentHandler.CreateDeal)
	mux.HandleFunc("/api/v1/payment-intents", intentLimiter.HTTPHandlerFunc(paymentHandler.CreateIntent))
	mux.HandleFunc("/api/v1/payment-intents/verify", paymentHandler.VerifyIntent)
	mux.HandleFunc("/webhooks/payment", webhookHandler.HandleWebhook)
	mux.HandleFunc("/health", healthChecker.HealthHandler())

	apiServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      observability.HTTPMetricsMiddleware(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 65 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	metricsServer := observability.StartMetricsServer(
		fmt.Sprintf("%d", cfg.Server.MetricsPort), healthChecker, zapLogger)

	// Shutdown order is LIFO: servers stop accepting first, the pool
	// closes last
	shutdownManager := shutdown.NewManager(zapLogger, 30*time.Second)
	shutdownManager.RegisterNoErr("database-pool", pool.Close)
	shutdownManager.RegisterNoErr("rate-limiter", intentLimiter.Shutdown)
	shutdownManager.RegisterHTTPServer("metrics-server", metricsServer)
	shutdownManager.RegisterHTTPServer("api-server", apiServer)

	go func() {
		zapLogger.Info("API server listening", zap.String("addr", apiServer.Addr))
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("API server error", zap.Error(err))
		}
	}()

	shutdownManager.WaitForShutdown()
}

func initLogger(cfg config.LoggerConfig) (*zap.Logger, error) {
	if cfg.Development {
		return zap.NewDevelopment()
	}

	zapCfg := zap.NewProductionConfig()
	if err := zapCfg.Level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	return zapCfg.Build()
}
