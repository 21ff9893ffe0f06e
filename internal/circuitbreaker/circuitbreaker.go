// Package circuitbreaker implements the three-state circuit breaker used in
// two distinct places: inside each adapter (guarding an upstream data
// source) and, with a separate registry, inside the wave scheduler
// (guarding against a module that repeatedly panics). Both uses share this
// same type; only the registries differ.
package circuitbreaker

import (
	"fmt"
	"sync"
	"time"
)

// State is one of the three circuit breaker states.
type State string

const (
	Closed   State = "closed"
	Open     State = "open"
	HalfOpen State = "half_open"
)

// Config parameterizes a breaker's thresholds.
type Config struct {
	FailureThreshold   int
	RecoveryTimeout    time.Duration
	HalfOpenProbeCount int
	SuccessThreshold   int
}

// DefaultConfig mirrors the scheduler-local defaults (threshold 5, 60s
// recovery) also used as the adapter runtime's default.
func DefaultConfig() Config {
	return Config{
		FailureThreshold:   5,
		RecoveryTimeout:    60 * time.Second,
		HalfOpenProbeCount: 1,
		SuccessThreshold:   1,
	}
}

// OpenError is returned by Allow when the breaker rejects a call.
type OpenError struct {
	Name       string
	RecoverIn  time.Duration
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("circuit breaker %q is open, recovers in %s", e.Name, e.RecoverIn)
}

// Breaker is a mutex-guarded circuit breaker. Allow() is the single
// read-modify-write checkpoint; every transition is one critical section.
type Breaker struct {
	mu              sync.Mutex
	name            string
	cfg             Config
	state           State
	failureCount    int
	successCount    int
	halfOpenProbes  int
	lastFailureTime time.Time
}

// New constructs a closed breaker.
func New(name string, cfg Config) *Breaker {
	return &Breaker{name: name, cfg: cfg, state: Closed}
}

// Allow is the single checkpoint a caller uses before attempting a
// protected call. It performs any due Open->HalfOpen transition as a side
// effect.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		return nil
	case Open:
		if time.Since(b.lastFailureTime) >= b.cfg.RecoveryTimeout {
			b.state = HalfOpen
			b.successCount = 0
			b.halfOpenProbes = 0
		} else {
			recoverIn := b.cfg.RecoveryTimeout - time.Since(b.lastFailureTime)
			return &OpenError{Name: b.name, RecoverIn: recoverIn}
		}
		fallthrough
	case HalfOpen:
		if b.halfOpenProbes >= b.cfg.HalfOpenProbeCount {
			recoverIn := b.cfg.RecoveryTimeout - time.Since(b.lastFailureTime)
			if recoverIn < 0 {
				recoverIn = 0
			}
			return &OpenError{Name: b.name, RecoverIn: recoverIn}
		}
		b.halfOpenProbes++
		return nil
	}
	return nil
}

// RecordSuccess reports a successful call outcome.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		if b.failureCount > 0 {
			b.failureCount--
		}
	case HalfOpen:
		b.successCount++
		if b.successCount >= b.cfg.SuccessThreshold {
			b.state = Closed
			b.failureCount = 0
			b.successCount = 0
			b.halfOpenProbes = 0
		}
	case Open:
		// A success while open should not occur (Allow would have
		// rejected the call); ignored defensively.
	}
}

// RecordFailure reports a failed call outcome.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		b.failureCount++
		if b.failureCount >= b.cfg.FailureThreshold {
			b.state = Open
			b.lastFailureTime = time.Now()
		}
	case HalfOpen:
		b.state = Open
		b.lastFailureTime = time.Now()
		b.successCount = 0
		b.halfOpenProbes = 0
	case Open:
		b.lastFailureTime = time.Now()
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset forces the breaker back to closed, clearing all counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Closed
	b.failureCount = 0
	b.successCount = 0
	b.halfOpenProbes = 0
}

// Registry holds one breaker per name (adapter name, or module id),
// created lazily on first use. A registry is process-wide scope for one of
// the two circuit-breaker concerns (adapter-level or scheduler-level); the
// two concerns use two separate Registry instances.
type Registry struct {
	mu       sync.Mutex
	breakers map[string]*Breaker
	cfg      Config
}

// NewRegistry constructs a registry whose breakers all share cfg.
func NewRegistry(cfg Config) *Registry {
	return &Registry{breakers: map[string]*Breaker{}, cfg: cfg}
}

// Get returns the breaker for name, creating it if necessary.
func (r *Registry) Get(name string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[name]; ok {
		return b
	}
	b := New(name, r.cfg)
	r.breakers[name] = b
	return b
}

// States returns a snapshot of every known breaker's state, keyed by name.
func (r *Registry) States() map[string]State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]State, len(r.breakers))
	for name, b := range r.breakers {
		out[name] = b.State()
	}
	return out
}

// ResetAll resets every breaker in the registry to closed.
func (r *Registry) ResetAll() {
	r.mu.Lock()
	breakers := make([]*Breaker, 0, len(r.breakers))
	for _, b := range r.breakers {
		breakers = append(breakers, b)
	}
	r.mu.Unlock()
	for _, b := range breakers {
		b.Reset()
	}
}
