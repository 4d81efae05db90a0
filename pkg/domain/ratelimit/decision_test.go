package ratelimit_test

import (
	"errors"
	"testing"
	"time"

	"github.com/NeuralTrust/AdmissionGate/pkg/domain/ratelimit"
	"github.com/stretchr/testify/assert"
)

func TestDecision_RetryAfterSeconds(t *testing.T) {
	now := time.UnixMilli(1740730536000)

	tests := []struct {
		name    string
		resetAt time.Time
		want    int
	}{
		{name: "full window", resetAt: now.Add(time.Minute), want: 60},
		{name: "rounds up partial seconds", resetAt: now.Add(59*time.Second + time.Millisecond), want: 60},
		{name: "sub second wait", resetAt: now.Add(10 * time.Millisecond), want: 1},
		{name: "reset already passed", resetAt: now.Add(-time.Second), want: 1},
		{name: "reset equals now", resetAt: now, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ratelimit.Decision{ResetAt: tt.resetAt, DecidedAt: now}
			assert.Equal(t, tt.want, d.RetryAfterSeconds())
		})
	}
}

func TestDecision_Err(t *testing.T) {
	assert.NoError(t, ratelimit.Decision{Allowed: true}.Err())
	assert.ErrorIs(t, ratelimit.Decision{Allowed: false}.Err(), ratelimit.ErrLimitExceeded)
}

func TestStoreUnavailableError(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := ratelimit.NewStoreUnavailableError("ratelimit:1.2.3.4:authentication", ratelimit.Policy{
		Category:    ratelimit.CategoryAuthentication,
		FailureMode: ratelimit.FailClosed,
	}, cause)

	assert.ErrorIs(t, err, ratelimit.ErrStoreUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "ratelimit:1.2.3.4:authentication")

	var storeErr *ratelimit.StoreUnavailableError
	assert.True(t, errors.As(err, &storeErr))
	assert.False(t, storeErr.Policy.FailsOpen())
}

func TestConfigurationError(t *testing.T) {
	err := ratelimit.NewConfigurationError("unknown", "not registered")
	assert.True(t, ratelimit.IsConfigurationError(err))
	assert.False(t, ratelimit.IsConfigurationError(errors.New("other")))
	assert.Equal(t, "rate limit policy 'unknown': not registered", err.Error())
}
