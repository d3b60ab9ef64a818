package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wallet-gateway/internal/clients/gateway"
	redisclient "wallet-gateway/internal/clients/redis"
	"wallet-gateway/internal/config"
	wallethandlers "wallet-gateway/internal/handlers/wallet"
	"wallet-gateway/internal/middleware"
	"wallet-gateway/internal/services/claims"
	"wallet-gateway/internal/services/metrics"
	"wallet-gateway/internal/services/reconcile"
	"wallet-gateway/internal/services/signing"
	"wallet-gateway/internal/services/slo"
	"wallet-gateway/internal/services/tracing"
	"wallet-gateway/internal/services/wallet"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metricsService := metrics.NewService(prometheus.DefaultRegisterer)
	tracingService := tracing.NewService(cfg.Tracing.ServiceName, cfg.Tracing.Enabled)

	// Gateway transport
	privateKey, err := signing.LoadPrivateKey(cfg.Gateway.MerchantPrivateKeyPath)
	if err != nil {
		logger.Fatal("failed to load merchant private key", zap.Error(err))
	}
	gatewayKey, err := signing.LoadPublicKey(cfg.Gateway.GatewayPublicKeyPath)
	if err != nil {
		logger.Fatal("failed to load gateway public key", zap.Error(err))
	}

	gatewayClient, err := gateway.NewClient(
		gateway.Credential{
			ClientID:         cfg.Gateway.ClientID,
			PrivateKey:       privateKey,
			BaseURL:          cfg.Gateway.URL,
			GatewayPublicKey: gatewayKey,
		},
		gateway.Config{
			Timeout: cfg.Gateway.HTTPTimeout,
			Breaker: gateway.BreakerConfig{
				FailureThreshold: cfg.Gateway.BreakerFailureThreshold,
				OpenTimeout:      cfg.Gateway.BreakerOpenTimeout,
			},
		},
		logger,
		gateway.WithTracer(tracingService.Tracer()),
		gateway.WithMetrics(metricsService),
	)
	if err != nil {
		logger.Fatal("failed to build gateway client", zap.Error(err))
	}

	walletService := wallet.NewService(gatewayClient, metricsService, logger)
	checkout := wallet.NewCheckout(wallet.CheckoutConfig{
		PublicBaseURL:   cfg.Server.PublicBaseURL,
		Currency:        cfg.Payment.Currency,
		PaymentExpiry:   cfg.Payment.Expiry,
		InboxDefaultURL: cfg.Payment.InboxDefaultURL,
	})

	codec, err := claims.NewCodec([]byte(cfg.Claims.Key))
	if err != nil {
		logger.Fatal("failed to build claims codec", zap.Error(err))
	}

	// Refund reconciliation, with the review stream when Redis is configured
	reconcileOpts := []reconcile.Option{
		reconcile.WithMetrics(metricsService),
		reconcile.WithTracer(tracingService),
	}
	var rdb *redisclient.Client
	if cfg.Redis.Enabled() {
		rdb, err = redisclient.NewClient(ctx, cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()

		publisher := redisclient.NewReviewPublisher(rdb, cfg.Redis.ReviewStream, metricsService, logger)
		reconcileOpts = append(reconcileOpts, reconcile.WithPublisher(publisher))
	} else {
		logger.Warn("redis not configured, indeterminate refunds are only logged")
	}

	reconciler := reconcile.NewReconciler(walletService, reconcile.Config{
		MaxAttempts: cfg.Reconcile.MaxAttempts,
		Interval:    cfg.Reconcile.Interval,
	}, logger, reconcileOpts...)

	handlers := &wallethandlers.Handlers{
		Auth:         wallethandlers.NewAuthHandler(walletService, codec, metricsService, logger),
		Payment:      wallethandlers.NewPaymentHandler(walletService, checkout, reconciler, logger),
		Agreement:    wallethandlers.NewAgreementHandler(walletService, checkout, logger),
		Notification: wallethandlers.NewNotificationHandler(walletService, checkout, logger),
	}

	// HTTP router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationMiddleware(tracingService, logger))
	router.Use(middleware.MetricsMiddleware(metricsService))
	objectives := slo.DefaultObjectives()
	objectives[slo.RefundRoute] = refundBudget(cfg)
	router.Use(middleware.SLOMiddleware(slo.NewServiceWith(objectives), metricsService, logger))

	router.GET("/healthz", healthHandler(rdb))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterRoutes(router, middleware.ClaimsAuthMiddleware(codec, metricsService, logger))

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: writeTimeout(cfg),
	}

	go func() {
		logger.Info("wallet gateway starting",
			zap.String("addr", server.Addr),
			zap.String("gateway_url", cfg.Gateway.URL),
			zap.Bool("review_stream", cfg.Redis.Enabled()),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}
	cancel()
}

func buildLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	zc.Level = level
	zc.Encoding = cfg.Encoding
	if cfg.Encoding == "console" {
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	return zc.Build()
}

// refundBudget is the worst case for a refund reconciled inline: the refund
// call plus every inquiry hitting the gateway timeout, with the waits between.
func refundBudget(cfg *config.Config) time.Duration {
	attempts := time.Duration(cfg.Reconcile.MaxAttempts)
	return (attempts+1)*cfg.Gateway.HTTPTimeout + (attempts-1)*cfg.Reconcile.Interval
}

func writeTimeout(cfg *config.Config) time.Duration {
	if budget := refundBudget(cfg); budget > cfg.Server.WriteTimeout {
		return budget
	}
	return cfg.Server.WriteTimeout
}

func healthHandler(rdb *redisclient.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := gin.H{"status": "ok"}
		if rdb != nil {
			if err := rdb.Ping(c.Request.Context()); err != nil {
				status["status"] = "degraded"
				status["redis"] = "unreachable"
				c.JSON(http.StatusServiceUnavailable, status)
				return
			}
			status["redis"] = "ok"
		}
		c.JSON(http.StatusOK, status)
	}
}
