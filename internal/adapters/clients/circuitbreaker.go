package clients

import (
	"sync"
	"time"
)

// State is the circuit breaker state.
type State int

// Closed passes everything, Open blocks until the cool-down elapses and
// HalfOpen lets a few probes through.
const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

var stateNames = [...]string{
	StateClosed:   "closed",
	StateOpen:     "open",
	StateHalfOpen: "half-open",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}

	return stateNames[s]
}

// CircuitBreakerConfig configures a CircuitBreaker.
type CircuitBreakerConfig struct {
	// MaxFailures consecutive failures open the circuit.
	MaxFailures int

	// Timeout is how long the circuit stays open before probing.
	Timeout time.Duration

	// HalfOpenLimit caps concurrent probes and is also the number of probe
	// successes that close the circuit.
	HalfOpenLimit int
}

// Counts is a snapshot of the breaker.
type Counts struct {
	State       State
	Failures    int
	LastFailure time.Time
}

// CircuitBreaker stops sync ticks from hammering a feed that is down. Any
// failure while half-open reopens the circuit.
type CircuitBreaker struct {
	cfg           CircuitBreakerConfig
	now           func() time.Time
	onStateChange func(from, to State)

	mu          sync.Mutex
	state       State
	failures    int
	successes   int
	probes      int
	lastFailure time.Time
}

// NewCircuitBreaker returns a closed breaker. Limits below one become one.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	cfg.MaxFailures = max(cfg.MaxFailures, 1)
	cfg.HalfOpenLimit = max(cfg.HalfOpenLimit, 1)

	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

// OnStateChange registers fn to run in its own goroutine on each transition.
func (cb *CircuitBreaker) OnStateChange(fn func(from, to State)) {
	cb.mu.Lock()
	cb.onStateChange = fn
	cb.mu.Unlock()
}

// Allow reports whether a request may go out. An open circuit whose
// cool-down has passed turns half-open and admits the caller as its first
// probe.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen {
		if cb.now().Sub(cb.lastFailure) < cb.cfg.Timeout {
			return false
		}

		cb.setState(StateHalfOpen)
	}

	if cb.state == StateClosed {
		return true
	}

	if cb.probes >= cb.cfg.HalfOpenLimit {
		return false
	}

	cb.probes++

	return true
}

// RecordSuccess clears the failure streak, or counts a probe success.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != StateHalfOpen {
		cb.failures = 0
		return
	}

	cb.probes--
	cb.successes++

	if cb.successes >= cb.cfg.HalfOpenLimit {
		cb.setState(StateClosed)
	}
}

// RecordFailure extends the failure streak and opens the circuit once the
// streak reaches MaxFailures.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastFailure = cb.now()

	if cb.state == StateHalfOpen {
		cb.probes--
		cb.setState(StateOpen)

		return
	}

	cb.failures++

	if cb.state == StateClosed && cb.failures >= cb.cfg.MaxFailures {
		cb.setState(StateOpen)
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	return cb.Counts().State
}

// Counts returns a snapshot of the breaker.
func (cb *CircuitBreaker) Counts() Counts {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return Counts{State: cb.state, Failures: cb.failures, LastFailure: cb.lastFailure}
}

// setState requires cb.mu.
func (cb *CircuitBreaker) setState(to State) {
	from := cb.state
	if from == to {
		return
	}

	cb.state = to
	cb.failures, cb.successes = 0, 0

	if to == StateHalfOpen {
		cb.probes = 0
	}

	if fn := cb.onStateChange; fn != nil {
		go fn(from, to)
	}
}
