package middleware

import (
	"errors"
	"fmt"

	appRateLimit "github.com/NeuralTrust/AdmissionGate/pkg/app/ratelimit"
	domain "github.com/NeuralTrust/AdmissionGate/pkg/domain/ratelimit"
	"github.com/NeuralTrust/AdmissionGate/pkg/handlers/http/response"
	"github.com/NeuralTrust/AdmissionGate/pkg/infra/logger"
	"github.com/NeuralTrust/AdmissionGate/pkg/infra/prometheus"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const (
	OutcomeAllowed    = "allowed"
	OutcomeDenied     = "denied"
	OutcomeFailOpen   = "fail_open"
	OutcomeFailClosed = "fail_closed"
)

type RateLimitConfig struct {
	// TrustForwardedFor makes the first X-Forwarded-For hop the client
	// identity. Only safe behind a proxy that sets the header.
	TrustForwardedFor bool
	// DenySampler throttles denial logs. Nil logs every denial.
	DenySampler *logger.Sampler
}

// RateLimitFactory builds one admission middleware per policy category. It is
// used at route registration so an unknown category stops the process before
// it serves traffic.
type RateLimitFactory struct {
	logger   *logrus.Logger
	registry appRateLimit.PolicyRegistry
	limiter  appRateLimit.Limiter
	cfg      RateLimitConfig
}

func NewRateLimitFactory(
	logger *logrus.Logger,
	registry appRateLimit.PolicyRegistry,
	limiter appRateLimit.Limiter,
	cfg RateLimitConfig,
) *RateLimitFactory {
	return &RateLimitFactory{
		logger:   logger,
		registry: registry,
		limiter:  limiter,
		cfg:      cfg,
	}
}

func (f *RateLimitFactory) For(category domain.Category) (Middleware, error) {
	policy, err := f.registry.Get(category)
	if err != nil {
		return nil, fmt.Errorf("failed to build rate limit middleware: %w", err)
	}
	return &rateLimitMiddleware{
		logger:  f.logger,
		limiter: f.limiter,
		policy:  policy,
		cfg:     f.cfg,
	}, nil
}

type rateLimitMiddleware struct {
	logger  *logrus.Logger
	limiter appRateLimit.Limiter
	policy  domain.Policy
	cfg     RateLimitConfig
}

func (m *rateLimitMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := appRateLimit.Request{
			ClientAddress: m.clientAddress(c),
			Path:          c.Path(),
			Category:      m.policy.Category,
		}

		decision, err := m.limiter.Decide(c.UserContext(), req)
		if err != nil {
			return m.handleError(c, err)
		}

		if !decision.Allowed {
			m.record(OutcomeDenied)
			m.logDenied(c, decision)
			return response.RateLimited(c, decision)
		}

		m.record(OutcomeAllowed)
		response.WriteBudgetHeaders(c, decision)
		return c.Next()
	}
}

func (m *rateLimitMiddleware) clientAddress(c *fiber.Ctx) string {
	var forwardedFor string
	if m.cfg.TrustForwardedFor {
		forwardedFor = c.Get(fiber.HeaderXForwardedFor)
	}
	return appRateLimit.ClientAddress(forwardedFor, c.Context().RemoteAddr().String())
}

func (m *rateLimitMiddleware) handleError(c *fiber.Ctx, err error) error {
	var unavailable *domain.StoreUnavailableError
	if !errors.As(err, &unavailable) {
		m.logger.WithError(err).WithField("category", m.policy.Category.String()).
			Error("admission decision failed")
		return response.InternalError(c)
	}

	if unavailable.Policy.FailsOpen() {
		m.record(OutcomeFailOpen)
		return c.Next()
	}
	m.record(OutcomeFailClosed)
	return response.Unavailable(c)
}

func (m *rateLimitMiddleware) logDenied(c *fiber.Ctx, d domain.Decision) {
	ok, suppressed := m.cfg.DenySampler.Allow()
	if !ok {
		return
	}
	fields := logrus.Fields{
		"key":         d.Key.String(),
		"category":    d.Policy.Category.String(),
		"path":        c.Path(),
		"limit":       d.Limit,
		"retry_after": d.RetryAfterSeconds(),
	}
	if id := RequestID(c); id != "" {
		fields["request_id"] = id
	}
	if suppressed > 0 {
		fields["suppressed"] = suppressed
	}
	m.logger.WithFields(fields).Warn("rate limit exceeded")
}

func (m *rateLimitMiddleware) record(outcome string) {
	if !prometheus.Config.Enabled {
		return
	}
	prometheus.AdmissionDecisionsTotal.WithLabelValues(m.policy.Category.String(), outcome).Inc()
}
