package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream down")

func newTestBreaker(now *time.Time) *CircuitBreaker {
	cb := NewCircuitBreaker(Config{
		FailureThreshold:    2,
		SuccessThreshold:    1,
		Timeout:             10 * time.Second,
		HalfOpenMaxRequests: 1,
	})
	cb.now = func() time.Time { return *now }
	return cb
}

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cb := newTestBreaker(&now)

	fail := func() error { return errUpstream }

	assert.ErrorIs(t, cb.Execute(fail), errUpstream)
	assert.Equal(t, StateClosed, cb.GetState())

	assert.ErrorIs(t, cb.Execute(fail), errUpstream)
	assert.Equal(t, StateOpen, cb.GetState())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitBreakerOpen)
	assert.False(t, called)
}

func TestCircuitBreakerRecoversThroughHalfOpen(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cb := newTestBreaker(&now)

	for i := 0; i < 2; i++ {
		_ = cb.Execute(func() error { return errUpstream })
	}
	require.Equal(t, StateOpen, cb.GetState())

	now = now.Add(11 * time.Second)
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cb := newTestBreaker(&now)

	for i := 0; i < 2; i++ {
		_ = cb.Execute(func() error { return errUpstream })
	}
	now = now.Add(11 * time.Second)

	assert.ErrorIs(t, cb.Execute(func() error { return errUpstream }), errUpstream)
	assert.Equal(t, StateOpen, cb.GetState())
}

func TestCircuitBreakerSuccessResetsFailures(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cb := newTestBreaker(&now)

	_ = cb.Execute(func() error { return errUpstream })
	require.NoError(t, cb.Execute(func() error { return nil }))
	_ = cb.Execute(func() error { return errUpstream })

	assert.Equal(t, StateClosed, cb.GetState())
}
