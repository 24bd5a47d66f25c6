package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitOpenError reports circuit-open status with a concrete retry delay.
type CircuitOpenError struct {
	Name       string
	RetryAfter time.Duration
}

func (e *CircuitOpenError) Error() string {
	retryAfter := e.RetryAfter
	if retryAfter < 0 {
		retryAfter = 0
	}
	if e.Name == "" {
		return fmt.Sprintf("%v: retry in %s", ErrCircuitOpen, retryAfter)
	}
	return fmt.Sprintf("%v for %s: retry in %s", ErrCircuitOpen, e.Name, retryAfter)
}

func (e *CircuitOpenError) Is(target error) bool {
	return target == ErrCircuitOpen
}

type CircuitBreakerState string

const (
	CircuitClosed   CircuitBreakerState = "closed"
	CircuitOpen     CircuitBreakerState = "open"
	CircuitHalfOpen CircuitBreakerState = "half_open"
)

// CircuitBreakerConfig tunes the state machine. Zero values get safe
// defaults: threshold 3, one probe, 10s open window.
type CircuitBreakerConfig struct {
	Name              string
	FailureThreshold  int
	SuccessThreshold  int
	OpenTimeout       time.Duration
	HalfOpenMaxFlight int
}

// CircuitBreaker trips after consecutive failures so callers fail fast while
// the protected dependency is down, then probes it with limited traffic once
// the open window elapses.
type CircuitBreaker struct {
	mu  sync.Mutex
	cfg CircuitBreakerConfig

	state     CircuitBreakerState
	failures  int
	successes int
	openUntil time.Time
	probes    int
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 1
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 10 * time.Second
	}
	if cfg.HalfOpenMaxFlight <= 0 {
		cfg.HalfOpenMaxFlight = 1
	}
	return &CircuitBreaker{cfg: cfg, state: CircuitClosed}
}

// State reports the current state, promoting open to half-open when the
// window has elapsed.
func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.tick(time.Now())
	return cb.state
}

// Execute runs fn under breaker control. When the circuit is open it returns
// a *CircuitOpenError (matches ErrCircuitOpen) without calling fn.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.admit(); err != nil {
		return err
	}

	err := fn(ctx)
	cb.settle(err)
	return err
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()
	cb.tick(now)

	switch cb.state {
	case CircuitOpen:
		return cb.rejection(now)
	case CircuitHalfOpen:
		if cb.probes >= cb.cfg.HalfOpenMaxFlight {
			return cb.rejection(now)
		}
		cb.probes++
	}
	return nil
}

// settle records the call outcome. User cancellation says nothing about the
// dependency's health, so it neither counts for nor against.
func (cb *CircuitBreaker) settle(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitHalfOpen && cb.probes > 0 {
		cb.probes--
	}
	if errors.Is(err, context.Canceled) {
		return
	}

	switch {
	case err != nil && cb.state == CircuitHalfOpen:
		cb.trip()
	case err != nil:
		cb.failures++
		if cb.failures >= cb.cfg.FailureThreshold {
			cb.trip()
		}
	case cb.state == CircuitHalfOpen:
		cb.successes++
		if cb.successes >= cb.cfg.SuccessThreshold {
			cb.reset(CircuitClosed)
		}
	default:
		cb.failures = 0
	}
}

// tick promotes open to half-open once the window has elapsed. Caller holds mu.
func (cb *CircuitBreaker) tick(now time.Time) {
	if cb.state == CircuitOpen && !now.Before(cb.openUntil) {
		cb.reset(CircuitHalfOpen)
	}
}

func (cb *CircuitBreaker) trip() {
	cb.reset(CircuitOpen)
	cb.openUntil = time.Now().Add(cb.cfg.OpenTimeout)
}

func (cb *CircuitBreaker) reset(state CircuitBreakerState) {
	cb.state = state
	cb.failures = 0
	cb.successes = 0
	cb.probes = 0
}

func (cb *CircuitBreaker) rejection(now time.Time) error {
	remaining := cb.openUntil.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	return &CircuitOpenError{Name: cb.cfg.Name, RetryAfter: remaining}
}
