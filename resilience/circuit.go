package resilience

import (
	"context"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means the circuit is operating normally.
	StateClosed State = iota
	// StateOpen means the circuit is blocking all requests.
	StateOpen
	// StateHalfOpen means the circuit is admitting trial requests.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Gauge maps the state onto the circuit_breaker.state gauge:
// closed 0, half-open 0.5, open 1.
func (s State) Gauge() float64 {
	switch s {
	case StateOpen:
		return 1
	case StateHalfOpen:
		return 0.5
	default:
		return 0
	}
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures in the closed
	// state that opens the circuit.
	// Default: 5
	FailureThreshold int

	// RecoveryTimeout is how long after the last failure the open circuit
	// admits a trial request.
	// Default: 60 seconds
	RecoveryTimeout time.Duration

	// SuccessThreshold is the number of consecutive half-open successes
	// that close the circuit.
	// Default: 2
	SuccessThreshold int

	// Disabled makes Allow always succeed and ignores recorded outcomes.
	Disabled bool

	// OnStateChange is called after every transition, in order, with the
	// breaker's lock held. It must not call back into the breaker.
	OnStateChange func(from, to State)

	// IsFailure determines if an error from Execute counts as a failure.
	// Default: all non-nil errors are failures.
	IsFailure func(err error) bool
}

// CircuitBreaker implements the circuit breaker pattern.
//
// Transitions out of the open state are lazy: nothing happens until the
// next Allow (or State) call observes that RecoveryTimeout has elapsed.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu              sync.Mutex
	state           State
	failures        int
	successes       int
	lastFailure     time.Time
	lastStateChange time.Time
}

type transition struct{ from, to State }

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.RecoveryTimeout <= 0 {
		config.RecoveryTimeout = 60 * time.Second
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 2
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool { return err != nil }
	}

	return &CircuitBreaker{
		config:          config,
		state:           StateClosed,
		lastStateChange: time.Now(),
	}
}

// Allow reports whether a request may proceed. An open circuit whose
// recovery timeout has elapsed moves to half-open and admits the caller.
func (cb *CircuitBreaker) Allow() bool {
	if cb.config.Disabled {
		return true
	}

	cb.mu.Lock()
	state, tr := cb.currentStateLocked()
	cb.notify(tr)
	cb.mu.Unlock()
	return state != StateOpen
}

// RecordSuccess records a successful call.
func (cb *CircuitBreaker) RecordSuccess() {
	if cb.config.Disabled {
		return
	}

	cb.mu.Lock()
	var tr []transition
	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			tr = append(tr, cb.setStateLocked(StateClosed))
		}
	}
	cb.notify(tr)
	cb.mu.Unlock()
}

// RecordFailure records a failed call.
func (cb *CircuitBreaker) RecordFailure() {
	if cb.config.Disabled {
		return
	}

	cb.mu.Lock()
	var tr []transition
	cb.lastFailure = time.Now()
	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.config.FailureThreshold {
			tr = append(tr, cb.setStateLocked(StateOpen))
		}
	case StateHalfOpen:
		tr = append(tr, cb.setStateLocked(StateOpen))
	}
	cb.notify(tr)
	cb.mu.Unlock()
}

// Execute runs op if the circuit admits it and records the outcome.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	if !cb.Allow() {
		return ErrCircuitOpen
	}

	err := op(ctx)
	if cb.config.IsFailure(err) {
		cb.RecordFailure()
	} else {
		cb.RecordSuccess()
	}
	return err
}

// State returns the current circuit state, applying the lazy
// open to half-open transition.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	state, tr := cb.currentStateLocked()
	cb.notify(tr)
	cb.mu.Unlock()
	return state
}

// Reset resets the circuit breaker to closed state.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	var tr []transition
	if cb.state != StateClosed {
		tr = append(tr, cb.setStateLocked(StateClosed))
	}
	cb.failures = 0
	cb.successes = 0
	cb.notify(tr)
	cb.mu.Unlock()
}

func (cb *CircuitBreaker) currentStateLocked() (State, []transition) {
	if cb.state == StateOpen && time.Since(cb.lastFailure) >= cb.config.RecoveryTimeout {
		return StateHalfOpen, []transition{cb.setStateLocked(StateHalfOpen)}
	}
	return cb.state, nil
}

// setStateLocked moves to state and zeroes both accumulators.
func (cb *CircuitBreaker) setStateLocked(state State) transition {
	tr := transition{from: cb.state, to: state}
	cb.state = state
	cb.failures = 0
	cb.successes = 0
	cb.lastStateChange = time.Now()
	return tr
}

func (cb *CircuitBreaker) notify(trs []transition) {
	if cb.config.OnStateChange == nil {
		return
	}
	for _, tr := range trs {
		cb.config.OnStateChange(tr.from, tr.to)
	}
}

// Metrics returns current circuit breaker metrics.
func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	cb.mu.Lock()
	state, tr := cb.currentStateLocked()
	m := CircuitBreakerMetrics{
		State:           state,
		Failures:        cb.failures,
		Successes:       cb.successes,
		LastFailure:     cb.lastFailure,
		LastStateChange: cb.lastStateChange,
	}
	cb.notify(tr)
	cb.mu.Unlock()
	return m
}

// CircuitBreakerMetrics contains circuit breaker statistics.
type CircuitBreakerMetrics struct {
	State           State     `json:"state"`
	Failures        int       `json:"failures"`
	Successes       int       `json:"successes"`
	LastFailure     time.Time `json:"last_failure"`
	LastStateChange time.Time `json:"last_state_change"`
}
