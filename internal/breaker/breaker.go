// Package breaker implements the per-dependency circuit breaker described
// in spec §4.8 and §5: closed/open/half-open states, a consecutive-failure
// threshold, and a reset timeout after which a single trial call is let
// through. No example repo in the pack carries a dedicated breaker
// component, so this follows the mutex-guarded state-struct idiom manifold
// uses throughout (skills.Cache, agentd's specialist registry) rather than
// importing a third-party breaker library the corpus never reaches for.
package breaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is one of the three circuit states.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

// ErrOpen is returned by Allow/Call when the circuit is open and the reset
// timeout has not yet elapsed.
var ErrOpen = errors.New("breaker: circuit open")

// Breaker tracks consecutive failures for one dependency (e.g. one chat
// model, one vector store). It is safe for concurrent use.
type Breaker struct {
	mu sync.Mutex

	threshold    int
	resetTimeout time.Duration

	state       State
	failures    int
	openedAt    time.Time
	halfOpenTry bool
}

// New builds a Breaker with the given consecutive-failure threshold and
// reset timeout. threshold <= 0 defaults to 5, resetTimeout <= 0 defaults
// to 60s, matching spec §4.8's defaults.
func New(threshold int, resetTimeout time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if resetTimeout <= 0 {
		resetTimeout = 60 * time.Second
	}
	return &Breaker{threshold: threshold, resetTimeout: resetTimeout, state: StateClosed}
}

// State reports the breaker's current state without mutating it.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Allow reports whether a call may proceed, transitioning open->half-open
// once the reset timeout has elapsed. At most one half-open trial call is
// admitted at a time.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(b.openedAt) < b.resetTimeout {
			return false
		}
		b.state = StateHalfOpen
		b.halfOpenTry = true
		return true
	case StateHalfOpen:
		if b.halfOpenTry {
			return false
		}
		b.halfOpenTry = true
		return true
	default:
		return true
	}
}

// RecordSuccess closes the circuit and resets the failure count.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.halfOpenTry = false
}

// RecordFailure increments the failure count, opening the circuit once the
// threshold is reached, or immediately re-opening it on a failed half-open
// trial.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.state = StateOpen
		b.openedAt = time.Now()
		b.halfOpenTry = false
		return
	}
	b.failures++
	if b.failures >= b.threshold {
		b.state = StateOpen
		b.openedAt = time.Now()
		b.halfOpenTry = false
	}
}

// Call runs fn if the breaker allows it, recording success/failure and
// translating an open circuit into ErrOpen.
func (b *Breaker) Call(ctx context.Context, fn func(context.Context) error) error {
	if !b.Allow() {
		return ErrOpen
	}
	err := fn(ctx)
	if err != nil {
		b.RecordFailure()
		return err
	}
	b.RecordSuccess()
	return nil
}

// Registry holds one Breaker per named dependency, created lazily on first
// use with shared defaults.
type Registry struct {
	mu           sync.Mutex
	breakers     map[string]*Breaker
	threshold    int
	resetTimeout time.Duration
}

// NewRegistry builds a Registry whose breakers share the given defaults.
func NewRegistry(threshold int, resetTimeout time.Duration) *Registry {
	return &Registry{breakers: make(map[string]*Breaker), threshold: threshold, resetTimeout: resetTimeout}
}

// Get returns the named breaker, creating it on first access.
func (r *Registry) Get(name string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.breakers[name]
	if !ok {
		b = New(r.threshold, r.resetTimeout)
		r.breakers[name] = b
	}
	return b
}
