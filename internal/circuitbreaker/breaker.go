package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	Closed   State = iota // calls pass through
	Open                  // calls are rejected immediately
	HalfOpen              // a single trial call is in flight
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	}
	return "unknown"
}

// ErrOpen is returned when the breaker rejects a call.
var ErrOpen = errors.New("circuit breaker is open")

// Option configures a Breaker.
type Option func(*Breaker)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) { b.now = now }
}

// WithStateChange registers a callback invoked (outside the lock) on every transition.
func WithStateChange(fn func(name string, from, to State)) Option {
	return func(b *Breaker) { b.onChange = fn }
}

// WithFailureFilter decides which errors count against the breaker. Errors for
// which fn returns false are passed through but treated as successes.
func WithFailureFilter(fn func(error) bool) Option {
	return func(b *Breaker) { b.isFailure = fn }
}

// Breaker trips after a run of consecutive failures and, once resetTimeout
// has passed, lets exactly one trial call through before closing again.
type Breaker struct {
	name         string
	maxFailures  int
	resetTimeout time.Duration
	now          func() time.Time
	onChange     func(name string, from, to State)
	isFailure    func(error) bool

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
}

// New creates a Breaker that opens after maxFailures consecutive errors and
// attempts recovery after resetTimeout.
func New(name string, maxFailures int, resetTimeout time.Duration, opts ...Option) *Breaker {
	b := &Breaker{
		name:         name,
		maxFailures:  max(maxFailures, 1),
		resetTimeout: resetTimeout,
		now:          time.Now,
		isFailure:    func(err error) bool { return err != nil },
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Execute runs fn unless the breaker is open. While half-open, concurrent
// callers other than the trial call get ErrOpen.
func (b *Breaker) Execute(fn func() error) error {
	if err := b.admit(); err != nil {
		return err
	}

	err := fn()
	b.record(err != nil && b.isFailure(err))
	return err
}

// State returns the current state of the breaker.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	switch b.state {
	case HalfOpen:
		b.mu.Unlock()
		return ErrOpen
	case Open:
		if b.now().Sub(b.openedAt) < b.resetTimeout {
			b.mu.Unlock()
			return ErrOpen
		}
		b.transition(HalfOpen)
		return nil
	}
	b.mu.Unlock()
	return nil
}

func (b *Breaker) record(failed bool) {
	b.mu.Lock()
	if !failed {
		b.failures = 0
		if b.state != Closed {
			b.transition(Closed)
			return
		}
		b.mu.Unlock()
		return
	}

	b.failures++
	if b.state == HalfOpen || b.failures >= b.maxFailures {
		b.openedAt = b.now()
		if b.state != Open {
			b.transition(Open)
			return
		}
	}
	b.mu.Unlock()
}

// transition must be called with b.mu held; it releases the lock.
func (b *Breaker) transition(to State) {
	from := b.state
	b.state = to
	cb := b.onChange
	b.mu.Unlock()
	if cb != nil {
		cb(b.name, from, to)
	}
}
