package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newTestBreaker(threshold int, reset time.Duration) (*Breaker, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
	b := NewBreaker(threshold, reset)
	b.now = clock.Now
	return b, clock
}

func TestBreakerState_String(t *testing.T) {
	tests := []struct {
		state    BreakerState
		expected string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half_open"},
		{BreakerState(42), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.state.String())
		})
	}
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b, _ := newTestBreaker(3, time.Minute)
	boom := errors.New("boom")

	for range 2 {
		assert.ErrorIs(t, b.Call(func() error { return boom }), boom)
		assert.Equal(t, StateClosed, b.State())
	}

	assert.ErrorIs(t, b.Call(func() error { return boom }), boom)
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())

	called := false
	err := b.Call(func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.False(t, called)
}

func TestBreaker_SuccessResetsFailures(t *testing.T) {
	b, _ := newTestBreaker(2, time.Minute)

	b.RecordFailure()
	assert.Equal(t, 1, b.Failures())
	b.RecordSuccess()
	assert.Equal(t, 0, b.Failures())

	b.RecordFailure()
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpenAfterResetTimeout(t *testing.T) {
	b, clock := newTestBreaker(1, 30*time.Second)

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())

	clock.now = clock.now.Add(29 * time.Second)
	assert.Equal(t, StateOpen, b.State())

	clock.now = clock.now.Add(time.Second)
	assert.Equal(t, StateHalfOpen, b.State())
	assert.True(t, b.Allow())

	// a failed trial reopens straight away
	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())

	clock.now = clock.now.Add(30 * time.Second)
	assert.NoError(t, b.Call(func() error { return nil }))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerSet_PerStationAndPrune(t *testing.T) {
	set := newBreakerSet(1, time.Minute)
	a, b := uuid.New(), uuid.New()

	set.get(a).RecordFailure()
	assert.Equal(t, StateOpen, set.get(a).State())
	assert.Equal(t, StateClosed, set.get(b).State())

	set.prune([]uuid.UUID{b})
	assert.Equal(t, StateClosed, set.get(a).State(), "pruned station starts fresh")
}
