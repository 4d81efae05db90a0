package ratelimit

import (
	"context"
	"sort"
	"time"

	domain "github.com/NeuralTrust/AdmissionGate/pkg/domain/ratelimit"
)

var _ domain.CounterStore = (*MemoryWindowStore)(nil)

type MemoryStoreOpts struct {
	TimeProvider func() time.Time
}

// MemoryWindowStore is the in-process sliding window log. It honours the same
// contract as the Redis store, which makes it the backend of choice for
// single instance deployments and for tests driven by a fixed clock.
//
// A key retains at most limit events. Once the limit-th newest event is in
// the window every attempt is denied regardless of older ones, so flooding a
// key costs no more memory than staying within its budget.
type MemoryWindowStore struct {
	table        *entryTable[slidingLog]
	timeProvider func() time.Time
}

type slidingLog struct {
	events  []time.Time
	resetAt time.Time
}

func NewMemoryWindowStore(opts *MemoryStoreOpts) *MemoryWindowStore {
	timeProvider := time.Now
	if opts != nil && opts.TimeProvider != nil {
		timeProvider = opts.TimeProvider
	}
	return &MemoryWindowStore{
		table:        newEntryTable[slidingLog](),
		timeProvider: timeProvider,
	}
}

func (s *MemoryWindowStore) RecordAndCount(
	ctx context.Context,
	key domain.LimitKey,
	now time.Time,
	window time.Duration,
	limit int,
) (domain.WindowState, error) {
	if err := ctx.Err(); err != nil {
		return domain.WindowState{}, err
	}
	if limit < 1 {
		limit = 1
	}

	var state domain.WindowState
	s.table.update(key, func(e *entry[slidingLog]) {
		events := evictBefore(e.state.events, now.Add(-window))
		events = insertSorted(events, now)
		count := len(events)

		// Callers can reach the store out of clock order; the reset never
		// moves backwards for a key.
		resetAt := events[0].Add(window)
		if resetAt.Before(e.state.resetAt) {
			resetAt = e.state.resetAt
		}

		events = retainNewest(events, limit)
		e.state = slidingLog{events: events, resetAt: resetAt}
		e.expiresAt = events[len(events)-1].Add(window)

		state = domain.WindowState{
			Count:   int64(count),
			ResetAt: resetAt,
		}
	})
	return state, nil
}

// Sweep evicts every key whose newest event is older than its window.
func (s *MemoryWindowStore) Sweep() int {
	return s.table.sweep(s.timeProvider())
}

func (s *MemoryWindowStore) StartJanitor(ctx context.Context, every time.Duration) {
	startJanitor(ctx, s, every)
}

func (s *MemoryWindowStore) Len() int {
	return s.table.len()
}

// evictBefore drops events at or before cutoff. An event exactly one window
// old has expired.
func evictBefore(events []time.Time, cutoff time.Time) []time.Time {
	i := sort.Search(len(events), func(i int) bool {
		return events[i].After(cutoff)
	})
	if i == 0 {
		return events
	}
	n := copy(events, events[i:])
	return events[:n]
}

// retainNewest keeps the limit newest events and releases the backing array
// once it is mostly unused.
func retainNewest(events []time.Time, limit int) []time.Time {
	if len(events) > limit {
		n := copy(events, events[len(events)-limit:])
		events = events[:n]
	}
	if cap(events) > 4*len(events) && cap(events) > 16 {
		events = append(make([]time.Time, 0, len(events)), events...)
	}
	return events
}

func insertSorted(events []time.Time, at time.Time) []time.Time {
	i := sort.Search(len(events), func(i int) bool {
		return events[i].After(at)
	})
	events = append(events, time.Time{})
	copy(events[i+1:], events[i:])
	events[i] = at
	return events
}
