package router

import (
	"fmt"
	"net/http"
	"time"

	domain "github.com/NeuralTrust/AdmissionGate/pkg/domain/ratelimit"
	handlers "github.com/NeuralTrust/AdmissionGate/pkg/handlers/http"
	wsHandlers "github.com/NeuralTrust/AdmissionGate/pkg/handlers/websocket"
	"github.com/NeuralTrust/AdmissionGate/pkg/middleware"
	"github.com/NeuralTrust/AdmissionGate/pkg/version"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

const (
	HealthPath     = "/health"
	PingPath       = "/__/ping"
	VersionPath    = "/__/version"
	LoginPath      = "/api/auth/login"
	MarketPath     = "/api/market/*"
	ReportsPath    = "/api/reports"
	AnalysisPath   = "/api/analysis"
	APIPath        = "/api/*"
	MarketWSPath   = "/ws/market"
	wsHandshakeTTL = 15 * time.Second
)

type proxyRouter struct {
	middlewareTransport *middleware.Transport
	rateLimits          *middleware.RateLimitFactory
	handlerTransport    handlers.HandlerTransport
	wsHandlerTransport  wsHandlers.HandlerTransport
}

func NewProxyRouter(
	middlewareTransport *middleware.Transport,
	rateLimits *middleware.RateLimitFactory,
	handlerTransport handlers.HandlerTransport,
	wsHandlerTransport wsHandlers.HandlerTransport,
) ServerRouter {
	return &proxyRouter{
		middlewareTransport: middlewareTransport,
		rateLimits:          rateLimits,
		handlerTransport:    handlerTransport,
		wsHandlerTransport:  wsHandlerTransport,
	}
}

func (r *proxyRouter) BuildRoutes(router *fiber.App) error {
	h := r.handlerTransport
	if h.LoginHandler == nil || h.CreateReportHandler == nil || h.GetMarketDataHandler == nil ||
		h.CreateAnalysisHandler == nil || h.APIHandler == nil || r.wsHandlerTransport.MarketStreamHandler == nil {
		return ErrMissingHandler
	}

	limits := make(map[domain.Category]fiber.Handler)
	for _, category := range []domain.Category{
		domain.CategoryGeneralAPI,
		domain.CategoryAuthentication,
		domain.CategoryRealtimeConnection,
		domain.CategoryReportGeneration,
		domain.CategoryMarketData,
		domain.CategoryAnalysis,
	} {
		mw, err := r.rateLimits.For(category)
		if err != nil {
			return fmt.Errorf("route registration: %w", err)
		}
		limits[category] = mw.Middleware()
	}

	router.Get(HealthPath, func(ctx *fiber.Ctx) error {
		return ctx.Status(http.StatusOK).JSON(fiber.Map{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	router.Get(PingPath, func(ctx *fiber.Ctx) error {
		return ctx.Status(http.StatusOK).JSON(fiber.Map{
			"message": "pong",
		})
	})

	router.Get(VersionPath, func(ctx *fiber.Ctx) error {
		return ctx.Status(http.StatusOK).JSON(version.GetInfo())
	})

	if r.middlewareTransport != nil {
		router.Use(r.middlewareTransport.GetMiddlewares()...)
	}

	router.Get(MarketWSPath,
		limits[domain.CategoryRealtimeConnection],
		func(c *fiber.Ctx) error {
			if !websocket.IsWebSocketUpgrade(c) {
				return fiber.ErrUpgradeRequired
			}
			return c.Next()
		},
		websocket.New(r.wsHandlerTransport.MarketStreamHandler.Handle, websocket.Config{
			HandshakeTimeout: wsHandshakeTTL,
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
		}),
	)

	router.Post(LoginPath, limits[domain.CategoryAuthentication], h.LoginHandler.Handle)
	router.Post(ReportsPath, limits[domain.CategoryReportGeneration], h.CreateReportHandler.Handle)
	router.Get(MarketPath, limits[domain.CategoryMarketData], h.GetMarketDataHandler.Handle)
	router.Post(AnalysisPath, limits[domain.CategoryAnalysis], h.CreateAnalysisHandler.Handle)
	router.All(APIPath, limits[domain.CategoryGeneralAPI], h.APIHandler.Handle)

	return nil
}
