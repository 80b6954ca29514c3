package scheduler

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// BreakerState is the state of a station's circuit breaker
type BreakerState int

const (
	// StateClosed lets advances through
	StateClosed BreakerState = iota
	// StateOpen skips the station until the reset timeout passes
	StateOpen
	// StateHalfOpen lets one trial advance through
	StateHalfOpen
)

// String returns the string representation of BreakerState
func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrBreakerOpen is returned by Call while a station is being skipped
var ErrBreakerOpen = errors.New("station circuit breaker is open")

// Breaker stops the scheduler from hammering a station whose advances keep
// failing. After threshold consecutive failures the station is skipped until
// resetTimeout has passed, then a single trial decides whether it recovers.
type Breaker struct {
	threshold    int
	resetTimeout time.Duration
	now          func() time.Time

	mu          sync.Mutex
	state       BreakerState
	failures    int
	lastFailure time.Time
}

// NewBreaker creates a closed breaker
func NewBreaker(threshold int, resetTimeout time.Duration) *Breaker {
	if threshold < 1 {
		threshold = 1
	}
	return &Breaker{
		threshold:    threshold,
		resetTimeout: resetTimeout,
		now:          time.Now,
		state:        StateClosed,
	}
}

// Call runs fn unless the breaker is open, recording its outcome
func (b *Breaker) Call(fn func() error) error {
	if !b.Allow() {
		return ErrBreakerOpen
	}

	err := fn()
	if err != nil {
		b.RecordFailure()
		return err
	}
	b.RecordSuccess()
	return nil
}

// Allow reports whether an attempt may go ahead, moving an expired open
// breaker to half-open
func (b *Breaker) Allow() bool {
	return b.State() != StateOpen
}

// RecordSuccess closes the breaker
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.state = StateClosed
}

// RecordFailure counts a failure; a failed half-open trial reopens at once
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = b.now()
	if b.state == StateHalfOpen || b.failures >= b.threshold {
		b.state = StateOpen
	}
}

// State returns the current state
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen && b.now().Sub(b.lastFailure) >= b.resetTimeout {
		b.state = StateHalfOpen
		b.failures = 0
	}
	return b.state
}

// Failures returns the consecutive failure count
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// breakerSet holds one breaker per station
type breakerSet struct {
	threshold    int
	resetTimeout time.Duration
	now          func() time.Time

	mu       sync.Mutex
	breakers map[uuid.UUID]*Breaker
}

func newBreakerSet(threshold int, resetTimeout time.Duration) *breakerSet {
	return &breakerSet{
		threshold:    threshold,
		resetTimeout: resetTimeout,
		now:          time.Now,
		breakers:     make(map[uuid.UUID]*Breaker),
	}
}

func (s *breakerSet) get(stationID uuid.UUID) *Breaker {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.breakers[stationID]
	if !ok {
		b = NewBreaker(s.threshold, s.resetTimeout)
		b.now = s.now
		s.breakers[stationID] = b
	}
	return b
}

// prune drops breakers of stations that are no longer active
func (s *breakerSet) prune(active []uuid.UUID) {
	keep := make(map[uuid.UUID]struct{}, len(active))
	for _, id := range active {
		keep[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.breakers {
		if _, ok := keep[id]; !ok {
			delete(s.breakers, id)
		}
	}
}
