package ratelimit

import (
	"context"
	"time"

	domain "github.com/NeuralTrust/AdmissionGate/pkg/domain/ratelimit"
)

var _ domain.CounterStore = (*FixedWindowStore)(nil)

type fixedWindow struct {
	count       int64
	windowStart time.Time
}

// FixedWindowStore counts per key in windows that start at the key's first
// request. It is cheaper than the sliding log but lets up to twice the budget
// through around a window boundary.
type FixedWindowStore struct {
	table        *entryTable[fixedWindow]
	timeProvider func() time.Time
}

func NewFixedWindowStore(opts *MemoryStoreOpts) *FixedWindowStore {
	timeProvider := time.Now
	if opts != nil && opts.TimeProvider != nil {
		timeProvider = opts.TimeProvider
	}
	return &FixedWindowStore{
		table:        newEntryTable[fixedWindow](),
		timeProvider: timeProvider,
	}
}

func (s *FixedWindowStore) RecordAndCount(
	ctx context.Context,
	key domain.LimitKey,
	now time.Time,
	window time.Duration,
	_ int,
) (domain.WindowState, error) {
	if err := ctx.Err(); err != nil {
		return domain.WindowState{}, err
	}

	var state domain.WindowState
	s.table.update(key, func(e *entry[fixedWindow]) {
		w := e.state
		if w.windowStart.IsZero() || !now.Before(w.windowStart.Add(window)) {
			w = fixedWindow{windowStart: now}
		}
		w.count++
		e.state = w
		e.expiresAt = w.windowStart.Add(window)

		state = domain.WindowState{
			Count:   w.count,
			ResetAt: e.expiresAt,
		}
	})
	return state, nil
}

func (s *FixedWindowStore) Sweep() int {
	return s.table.sweep(s.timeProvider())
}

func (s *FixedWindowStore) StartJanitor(ctx context.Context, every time.Duration) {
	startJanitor(ctx, s, every)
}

func (s *FixedWindowStore) Len() int {
	return s.table.len()
}
