package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	appRateLimit "github.com/NeuralTrust/AdmissionGate/pkg/app/ratelimit"
	"github.com/NeuralTrust/AdmissionGate/pkg/config"
	domain "github.com/NeuralTrust/AdmissionGate/pkg/domain/ratelimit"
	handlers "github.com/NeuralTrust/AdmissionGate/pkg/handlers/http"
	wsHandlers "github.com/NeuralTrust/AdmissionGate/pkg/handlers/websocket"
	infraLogger "github.com/NeuralTrust/AdmissionGate/pkg/infra/logger"
	"github.com/NeuralTrust/AdmissionGate/pkg/infra/prometheus"
	"github.com/NeuralTrust/AdmissionGate/pkg/middleware"
	"github.com/NeuralTrust/AdmissionGate/pkg/server"
	"github.com/NeuralTrust/AdmissionGate/pkg/server/router"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout = 10 * time.Second
	denyLogEvery    = time.Second
	denyLogBurst    = 10
)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, closeLogger, err := infraLogger.NewLogger(infraLogger.Config{
		Level: cfg.Log.Level,
		File:  cfg.Log.File,
	})
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer closeLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		prometheus.Initialize(prometheus.MetricsConfig{Enabled: true})
	}

	store, closeStore, err := buildStore(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Error("failed to initialize counter store")
		return
	}
	defer closeStore()

	registry, err := appRateLimit.NewPolicyRegistry()
	if err != nil {
		logger.WithError(err).Error("invalid rate limit policies")
		return
	}
	for _, p := range registry.Policies() {
		logger.WithFields(logrus.Fields{
			"category":     p.Category.String(),
			"window":       p.Window.String(),
			"max_requests": p.MaxRequests,
			"failure_mode": string(p.FailureMode),
		}).Info("admission policy loaded")
	}

	limiter := appRateLimit.NewLimiter(
		logger,
		registry,
		appRateLimit.NewKeyBuilder(domain.CategoryGeneralAPI),
		store,
		&appRateLimit.LimiterOpts{StoreTimeout: cfg.RateLimit.StoreTimeout},
	)

	rateLimits := middleware.NewRateLimitFactory(logger, registry, limiter, middleware.RateLimitConfig{
		TrustForwardedFor: cfg.Server.TrustForwardedFor,
		DenySampler:       infraLogger.NewSampler(denyLogEvery, denyLogBurst),
	})

	middlewareTransport := middleware.NewTransport(
		middleware.NewPanicRecoverMiddleware(logger),
		middleware.NewRequestIDMiddleware(),
	)

	handlerTransport := handlers.HandlerTransport{
		LoginHandler:          handlers.NewLoginHandler(logger),
		CreateReportHandler:   handlers.NewCreateReportHandler(logger),
		GetMarketDataHandler:  handlers.NewGetMarketDataHandler(),
		CreateAnalysisHandler: handlers.NewCreateAnalysisHandler(logger),
		APIHandler:            handlers.NewAPIHandler(),
	}
	wsHandlerTransport := wsHandlers.HandlerTransport{
		MarketStreamHandler: wsHandlers.NewMarketStreamHandler(logger),
	}

	proxyServer, err := server.NewProxyServer(server.ProxyServerDI{
		Config: cfg,
		Logger: logger,
		Routers: []router.ServerRouter{
			router.NewProxyRouter(middlewareTransport, rateLimits, handlerTransport, wsHandlerTransport),
		},
	})
	if err != nil {
		logger.WithError(err).Error("failed to build proxy server")
		return
	}

	servers := []server.Server{proxyServer}
	if cfg.Metrics.Enabled {
		servers = append(servers, server.NewMetricsServer(cfg, logger))
	} else {
		logger.Info("prometheus metrics are disabled by configuration")
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(srv.Run)
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down servers")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		var errs []error
		for _, srv := range servers {
			errs = append(errs, srv.Shutdown(shutdownCtx))
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("server stopped with error")
		return
	}
	logger.Info("server gracefully stopped")
}
