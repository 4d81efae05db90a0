package ratelimit

import (
	"context"
	"time"

	domain "github.com/NeuralTrust/AdmissionGate/pkg/domain/ratelimit"
	"github.com/sirupsen/logrus"
)

const DefaultStoreTimeout = 250 * time.Millisecond

type Request struct {
	ClientAddress string
	Path          string
	Category      domain.Category
}

type Limiter interface {
	Decide(ctx context.Context, req Request) (domain.Decision, error)
}

type LimiterOpts struct {
	TimeProvider func() time.Time
	StoreTimeout time.Duration
}

// limiter holds no mutable state; every counter lives in the injected store,
// which must be built once and shared by all requests.
type limiter struct {
	logger       *logrus.Logger
	registry     PolicyRegistry
	keys         KeyBuilder
	store        domain.CounterStore
	timeProvider func() time.Time
	storeTimeout time.Duration
}

func NewLimiter(
	logger *logrus.Logger,
	registry PolicyRegistry,
	keys KeyBuilder,
	store domain.CounterStore,
	opts *LimiterOpts,
) Limiter {
	timeProvider := time.Now
	storeTimeout := DefaultStoreTimeout
	if opts != nil && opts.TimeProvider != nil {
		timeProvider = opts.TimeProvider
	}
	if opts != nil && opts.StoreTimeout > 0 {
		storeTimeout = opts.StoreTimeout
	}
	return &limiter{
		logger:       logger,
		registry:     registry,
		keys:         keys,
		store:        store,
		timeProvider: timeProvider,
		storeTimeout: storeTimeout,
	}
}

func (l *limiter) Decide(ctx context.Context, req Request) (domain.Decision, error) {
	policy, err := l.registry.Get(req.Category)
	if err != nil {
		return domain.Decision{}, err
	}

	key := l.keys.Build(req.ClientAddress, req.Path, req.Category)
	now := l.timeProvider()
	decision := domain.Decision{
		Limit:     policy.MaxRequests,
		DecidedAt: now,
		Key:       key,
		Policy:    policy,
	}

	storeCtx, cancel := context.WithTimeout(ctx, l.storeTimeout)
	defer cancel()

	state, err := l.store.RecordAndCount(storeCtx, key, now, policy.Window, policy.MaxRequests)
	if err != nil {
		l.logger.WithFields(logrus.Fields{
			"key":          key.String(),
			"category":     policy.Category.String(),
			"failure_mode": string(policy.FailureMode),
		}).WithError(err).Error("rate limit counter store failed")
		return decision, domain.NewStoreUnavailableError(key, policy, err)
	}

	decision.Allowed = state.Count <= int64(policy.MaxRequests)
	decision.Remaining = remaining(policy.MaxRequests, state.Count)
	decision.ResetAt = state.ResetAt
	return decision, nil
}

func remaining(limit int, count int64) int {
	left := int64(limit) - count
	if left < 0 {
		return 0
	}
	return int(left)
}
