package ratelimit

import (
	"context"
	"time"

	domain "github.com/NeuralTrust/AdmissionGate/pkg/domain/ratelimit"
	"github.com/NeuralTrust/AdmissionGate/pkg/infra/prometheus"
)

var _ domain.CounterStore = (*InstrumentedStore)(nil)

type InstrumentedStore struct {
	next    domain.CounterStore
	backend string
}

func NewInstrumentedStore(next domain.CounterStore, backend string) *InstrumentedStore {
	return &InstrumentedStore{next: next, backend: backend}
}

func (s *InstrumentedStore) RecordAndCount(
	ctx context.Context,
	key domain.LimitKey,
	now time.Time,
	window time.Duration,
	limit int,
) (domain.WindowState, error) {
	start := time.Now()
	state, err := s.next.RecordAndCount(ctx, key, now, window, limit)
	if prometheus.Config.Enabled {
		prometheus.AdmissionStoreLatency.
			WithLabelValues(s.backend).
			Observe(float64(time.Since(start).Microseconds()) / 1000)
		if err != nil {
			prometheus.AdmissionStoreErrors.WithLabelValues(s.backend).Inc()
		}
	}
	return state, err
}
