// SPDX-License-Identifier: MIT

package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

var errUpstream = errors.New("upstream down")

func TestBreakerOpensAfterThreshold(t *testing.T) {
	clk := &fakeClock{now: time.Now()}
	cb := NewCircuitBreaker("test-upstream", 3, 30*time.Second, WithClock(clk))

	for i := 0; i < 3; i++ {
		err := cb.Execute(func() error { return errUpstream })
		require.ErrorIs(t, err, errUpstream)
	}
	assert.Equal(t, string(StateOpen), cb.State())

	err := cb.Execute(func() error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen, "open breaker rejects without invoking fn")
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	clk := &fakeClock{now: time.Now()}
	cb := NewCircuitBreaker("test-upstream", 1, 10*time.Second, WithClock(clk))

	require.Error(t, cb.Execute(func() error { return errUpstream }))
	require.Equal(t, string(StateOpen), cb.State())

	clk.Advance(11 * time.Second)

	// Successful probe closes the breaker again.
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, string(StateClosed), cb.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	clk := &fakeClock{now: time.Now()}
	cb := NewCircuitBreaker("test-upstream", 1, 10*time.Second, WithClock(clk))

	require.Error(t, cb.Execute(func() error { return errUpstream }))
	clk.Advance(11 * time.Second)

	require.ErrorIs(t, cb.Execute(func() error { return errUpstream }), errUpstream)
	assert.Equal(t, string(StateOpen), cb.State())
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker("test-upstream", 2, time.Minute)

	require.Error(t, cb.Execute(func() error { return errUpstream }))
	require.NoError(t, cb.Execute(func() error { return nil }))
	require.Error(t, cb.Execute(func() error { return errUpstream }))

	assert.Equal(t, string(StateClosed), cb.State(), "non-consecutive failures must not trip the breaker")
}
