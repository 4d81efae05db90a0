package ratelimit

import (
	"context"
	"time"
)

// WindowState is what a store reports back after recording an attempt.
type WindowState struct {
	Count   int64
	ResetAt time.Time
}

// CounterStore records an attempt for key at now and returns the up to date
// count for the window ending at now. Every call records, including attempts
// that end up denied. limit is the policy budget: events older than the
// limit-th newest never change a decision, so a store may discard them.
type CounterStore interface {
	RecordAndCount(ctx context.Context, key LimitKey, now time.Time, window time.Duration, limit int) (WindowState, error)
}
