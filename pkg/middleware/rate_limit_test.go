package middleware

import (
	"errors"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	appRateLimit "github.com/NeuralTrust/AdmissionGate/pkg/app/ratelimit"
	domain "github.com/NeuralTrust/AdmissionGate/pkg/domain/ratelimit"
	"github.com/NeuralTrust/AdmissionGate/pkg/domain/ratelimit/mocks"
	handlers "github.com/NeuralTrust/AdmissionGate/pkg/handlers/http"
	"github.com/NeuralTrust/AdmissionGate/pkg/handlers/http/response"
	"github.com/NeuralTrust/AdmissionGate/pkg/infra/logger"
	infraRateLimit "github.com/NeuralTrust/AdmissionGate/pkg/infra/ratelimit"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testCategory domain.Category = "test-api"

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

type testGate struct {
	app     *fiber.App
	factory *RateLimitFactory
	clock   *testClock
	hook    *test.Hook
}

func newTestGate(t *testing.T, store domain.CounterStore, cfg RateLimitConfig, policies ...domain.Policy) *testGate {
	t.Helper()
	registry, err := appRateLimit.NewPolicyRegistry(policies...)
	require.NoError(t, err)

	log, hook := test.NewNullLogger()
	clock := &testClock{now: time.UnixMilli(1_700_000_000_000)}
	limiter := appRateLimit.NewLimiter(log, registry, appRateLimit.NewKeyBuilder(), store, &appRateLimit.LimiterOpts{
		TimeProvider: clock.Now,
	})

	return &testGate{
		app:     fiber.New(),
		factory: NewRateLimitFactory(log, registry, limiter, cfg),
		clock:   clock,
		hook:    hook,
	}
}

func (g *testGate) mount(t *testing.T, method, path string, category domain.Category, handler fiber.Handler) {
	t.Helper()
	mw, err := g.factory.For(category)
	require.NoError(t, err)
	g.app.Add(method, path, mw.Middleware(), handler)
}

func (g *testGate) do(t *testing.T, method, path, client string) (*httpResult, error) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(`{"username":"alice","password":"secret"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if client != "" {
		req.Header.Set(fiber.HeaderXForwardedFor, client)
	}
	resp, err := g.app.Test(req)
	if err != nil {
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &httpResult{status: resp.StatusCode, header: resp.Header.Get, body: string(body)}, nil
}

type httpResult struct {
	status int
	header func(string) string
	body   string
}

func okHandler(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusOK)
}

func testPolicy() domain.Policy {
	return domain.Policy{
		Category:    testCategory,
		Window:      time.Minute,
		MaxRequests: 60,
		DenyMessage: "Too many requests",
		FailureMode: domain.FailOpen,
	}
}

func TestRateLimitMiddleware_WindowScenario(t *testing.T) {
	gate := newTestGate(t, infraRateLimit.NewMemoryWindowStore(nil), RateLimitConfig{TrustForwardedFor: true}, testPolicy())
	gate.mount(t, fiber.MethodGet, "/api/test", testCategory, okHandler)

	resetAt := strconv.FormatInt(gate.clock.now.Add(time.Minute).UnixMilli(), 10)
	for i := 1; i <= 60; i++ {
		res, err := gate.do(t, fiber.MethodGet, "/api/test", "127.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, res.status)
		assert.Equal(t, "60", res.header(response.HeaderRateLimitLimit))
		assert.Equal(t, strconv.Itoa(60-i), res.header(response.HeaderRateLimitRemaining))
		assert.Equal(t, resetAt, res.header(response.HeaderRateLimitReset))
		gate.clock.now = gate.clock.now.Add(10 * time.Millisecond)
	}

	res, err := gate.do(t, fiber.MethodGet, "/api/test", "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, res.status)
	assert.JSONEq(t, `{"success":false,"error":{"code":"RATE_LIMIT_ERROR","message":"Too many requests"}}`, res.body)
	assert.Equal(t, "60", res.header(response.HeaderRetryAfter))
	assert.Equal(t, "0", res.header(response.HeaderRateLimitRemaining))

	// Every earlier request, the denied one included, has left the window.
	gate.clock.now = time.UnixMilli(1_700_000_000_000).Add(2 * time.Minute)
	res, err = gate.do(t, fiber.MethodGet, "/api/test", "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.status)
	assert.Equal(t, "59", res.header(response.HeaderRateLimitRemaining))
}

func TestRateLimitMiddleware_AuthenticationNeverReachesHandler(t *testing.T) {
	gate := newTestGate(t, infraRateLimit.NewMemoryWindowStore(nil), RateLimitConfig{TrustForwardedFor: true})
	log, _ := test.NewNullLogger()
	login := handlers.NewLoginHandler(log)
	gate.mount(t, fiber.MethodPost, "/api/auth/login", domain.CategoryAuthentication, login.Handle)

	for i := 0; i < 5; i++ {
		res, err := gate.do(t, fiber.MethodPost, "/api/auth/login", "203.0.113.9")
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, res.status)
	}

	res, err := gate.do(t, fiber.MethodPost, "/api/auth/login", "203.0.113.9")
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, res.status)
	assert.JSONEq(t,
		`{"success":false,"error":{"code":"RATE_LIMIT_ERROR","message":"Too many authentication attempts, please try again later"}}`,
		res.body)
	assert.Equal(t, "3600", res.header(response.HeaderRetryAfter))
	assert.Equal(t, int64(5), login.Attempts())
}

func TestRateLimitMiddleware_ClientsAreIsolated(t *testing.T) {
	gate := newTestGate(t, infraRateLimit.NewMemoryWindowStore(nil), RateLimitConfig{TrustForwardedFor: true})
	gate.mount(t, fiber.MethodPost, "/api/auth/login", domain.CategoryAuthentication, okHandler)

	for i := 0; i < 6; i++ {
		_, err := gate.do(t, fiber.MethodPost, "/api/auth/login", "198.51.100.1")
		require.NoError(t, err)
	}

	res, err := gate.do(t, fiber.MethodPost, "/api/auth/login", "198.51.100.2, 10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.status)
	assert.Equal(t, "4", res.header(response.HeaderRateLimitRemaining))
}

func TestRateLimitMiddleware_UntrustedForwardedFor(t *testing.T) {
	gate := newTestGate(t, infraRateLimit.NewMemoryWindowStore(nil), RateLimitConfig{TrustForwardedFor: false})
	gate.mount(t, fiber.MethodPost, "/api/auth/login", domain.CategoryAuthentication, okHandler)

	// Rotating the header does not mint a fresh budget.
	for i := 0; i < 5; i++ {
		res, err := gate.do(t, fiber.MethodPost, "/api/auth/login", "198.51.100."+strconv.Itoa(i))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, res.status)
	}
	res, err := gate.do(t, fiber.MethodPost, "/api/auth/login", "198.51.100.99")
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, res.status)
}

func TestRateLimitMiddleware_FailOpen(t *testing.T) {
	store := mocks.NewCounterStore(t)
	store.On("RecordAndCount", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(domain.WindowState{}, errors.New("connection refused"))

	gate := newTestGate(t, store, RateLimitConfig{TrustForwardedFor: true})
	gate.mount(t, fiber.MethodGet, "/api/market/*", domain.CategoryMarketData, okHandler)

	res, err := gate.do(t, fiber.MethodGet, "/api/market/quotes", "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.status)
	assert.Empty(t, res.header(response.HeaderRateLimitRemaining))
	assert.Empty(t, res.header(response.HeaderRateLimitLimit))

	require.NotNil(t, gate.hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, gate.hook.LastEntry().Level)
}

func TestRateLimitMiddleware_FailClosed(t *testing.T) {
	store := mocks.NewCounterStore(t)
	store.On("RecordAndCount", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(domain.WindowState{}, errors.New("i/o timeout"))

	gate := newTestGate(t, store, RateLimitConfig{TrustForwardedFor: true})
	called := false
	gate.mount(t, fiber.MethodPost, "/api/analysis", domain.CategoryAnalysis, func(c *fiber.Ctx) error {
		called = true
		return c.SendStatus(fiber.StatusOK)
	})

	res, err := gate.do(t, fiber.MethodPost, "/api/analysis", "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, res.status)
	assert.JSONEq(t,
		`{"success":false,"error":{"code":"RATE_LIMIT_UNAVAILABLE","message":"Service temporarily unavailable"}}`,
		res.body)
	assert.False(t, called)
}

func TestRateLimitFactory_UnknownCategory(t *testing.T) {
	gate := newTestGate(t, infraRateLimit.NewMemoryWindowStore(nil), RateLimitConfig{})

	mw, err := gate.factory.For("uploads")
	assert.Nil(t, mw)
	require.Error(t, err)
	assert.True(t, domain.IsConfigurationError(err))
}

func TestRateLimitMiddleware_DenialLogsAreSampled(t *testing.T) {
	gate := newTestGate(t, infraRateLimit.NewMemoryWindowStore(nil), RateLimitConfig{
		TrustForwardedFor: true,
		DenySampler:       logger.NewSampler(time.Hour, 1),
	})
	gate.mount(t, fiber.MethodPost, "/api/auth/login", domain.CategoryAuthentication, okHandler)

	for i := 0; i < 10; i++ {
		_, err := gate.do(t, fiber.MethodPost, "/api/auth/login", "127.0.0.1")
		require.NoError(t, err)
	}

	warnings := 0
	for _, entry := range gate.hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			warnings++
			assert.Equal(t, "rate limit exceeded", entry.Message)
			assert.Equal(t, "authentication", entry.Data["category"])
		}
	}
	assert.Equal(t, 1, warnings)
}

func TestPanicRecoverMiddleware(t *testing.T) {
	log, hook := test.NewNullLogger()
	app := fiber.New()
	app.Use(NewPanicRecoverMiddleware(log).Middleware())
	app.Get("/boom", func(c *fiber.Ctx) error {
		panic("boom")
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "HTTP server panic recovered", hook.LastEntry().Message)
}

func TestRequestIDMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(NewRequestIDMiddleware().Middleware())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(RequestID(c))
	})

	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "req-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "req-123", string(body))
	assert.Equal(t, "req-123", resp.Header.Get("X-Request-Id"))

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Len(t, resp.Header.Get("X-Request-Id"), 36)
}

func TestTransport_GetMiddlewares(t *testing.T) {
	log, _ := test.NewNullLogger()
	transport := NewTransport(NewPanicRecoverMiddleware(log))
	transport.RegisterMiddleware(NewPanicRecoverMiddleware(log))

	assert.Len(t, transport.GetMiddlewares(), 2)
}
