package ratelimit

import (
	"context"
	"time"

	domain "github.com/NeuralTrust/AdmissionGate/pkg/domain/ratelimit"
	"github.com/NeuralTrust/AdmissionGate/pkg/infra/breaker"
)

var _ domain.CounterStore = (*BreakerStore)(nil)

// BreakerStore stops calling a failing store until the breaker half-opens.
// While open every call fails fast and the limiter applies the policy's
// failure mode.
type BreakerStore struct {
	next    domain.CounterStore
	breaker breaker.CircuitBreaker
}

func NewBreakerStore(next domain.CounterStore, cb breaker.CircuitBreaker) *BreakerStore {
	return &BreakerStore{next: next, breaker: cb}
}

func (s *BreakerStore) RecordAndCount(
	ctx context.Context,
	key domain.LimitKey,
	now time.Time,
	window time.Duration,
	limit int,
) (domain.WindowState, error) {
	var state domain.WindowState
	err := s.breaker.Execute(func() error {
		var err error
		state, err = s.next.RecordAndCount(ctx, key, now, window, limit)
		return err
	})
	if err != nil {
		return domain.WindowState{}, err
	}
	return state, nil
}
