package ratelimit

import (
	"errors"
	"fmt"
)

var (
	ErrLimitExceeded    = errors.New("rate limit exceeded")
	ErrStoreUnavailable = errors.New("counter store unavailable")
)

// ConfigurationError reports an unknown or invalid policy. It is a startup
// error and must never surface while serving requests.
type ConfigurationError struct {
	Category Category
	Reason   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("rate limit policy '%s': %s", e.Category, e.Reason)
}

func NewConfigurationError(category Category, reason string) error {
	return &ConfigurationError{
		Category: category,
		Reason:   reason,
	}
}

func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// StoreUnavailableError wraps any failure of the counter store. It carries the
// policy so callers can apply its FailureMode.
type StoreUnavailableError struct {
	Key    LimitKey
	Policy Policy
	Err    error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("counter store unavailable for key '%s': %v", e.Key, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

func (e *StoreUnavailableError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

func NewStoreUnavailableError(key LimitKey, policy Policy, err error) error {
	return &StoreUnavailableError{
		Key:    key,
		Policy: policy,
		Err:    err,
	}
}
