package ratelimit

import "time"

// Decision is computed fresh for every request and never persisted.
type Decision struct {
	Allowed   bool
	Remaining int
	Limit     int
	ResetAt   time.Time
	DecidedAt time.Time
	Key       LimitKey
	Policy    Policy
}

// RetryAfterSeconds is the whole number of seconds a denied client should
// wait, rounded up and never below one.
func (d Decision) RetryAfterSeconds() int {
	wait := d.ResetAt.Sub(d.DecidedAt)
	if wait <= 0 {
		return 1
	}
	seconds := int((wait + time.Second - 1) / time.Second)
	if seconds < 1 {
		return 1
	}
	return seconds
}

// Err returns ErrLimitExceeded for a denied decision and nil otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return ErrLimitExceeded
}
