package mocks

import (
	"context"
	"fmt"
	"time"

	"github.com/NeuralTrust/AdmissionGate/pkg/domain/ratelimit"
	"github.com/stretchr/testify/mock"
)

type MockCounterStore struct {
	mock.Mock
}

func NewCounterStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCounterStore {
	m := &MockCounterStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCounterStore) RecordAndCount(
	ctx context.Context,
	key ratelimit.LimitKey,
	now time.Time,
	window time.Duration,
	limit int,
) (ratelimit.WindowState, error) {
	args := m.Called(ctx, key, now, window, limit)
	state, ok := args.Get(0).(ratelimit.WindowState)
	if !ok && args.Get(0) != nil {
		return ratelimit.WindowState{}, fmt.Errorf("expected ratelimit.WindowState, got %T", args.Get(0))
	}
	return state, args.Error(1)
}
