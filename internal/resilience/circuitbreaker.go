// Package resilience keeps generation working when an upstream backend is
// down.
//
// [CircuitBreaker] guards a single text or speech generation backend: after
// too many consecutive failures it stops forwarding calls for a cooldown
// period, then probes the backend before trusting it again. [FallbackGroup]
// composes several backends of one provider kind, each behind its own
// breaker, so a failing primary is bypassed in favour of healthy fallbacks.
// [TextgenFallback] and [SpeechgenFallback] are the two concrete compositions
// the server wires up.
//
// All types are safe for concurrent use.
package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by [CircuitBreaker.Execute] when the backend is
// in cooldown and the call was rejected without being attempted.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State represents the current operating mode of a [CircuitBreaker].
type State int

const (
	// StateClosed forwards every call to the backend.
	StateClosed State = iota

	// StateOpen rejects calls with [ErrCircuitOpen] for the duration of the
	// cooldown. Entered after too many consecutive backend failures.
	StateOpen

	// StateHalfOpen admits a limited number of probe calls after the cooldown.
	// Enough successes close the breaker; a single failure re-opens it.
	StateHalfOpen
)

// String returns the human-readable name of the state.
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

// CircuitBreakerConfig holds tuning knobs for a [CircuitBreaker].
type CircuitBreakerConfig struct {
	// Name labels the guarded backend in log messages (e.g. "gemini",
	// "openai").
	Name string

	// MaxFailures is how many consecutive failures trip the breaker.
	// Default: 5.
	MaxFailures int

	// ResetTimeout is the cooldown after tripping, before probing resumes.
	// Default: 30s.
	ResetTimeout time.Duration

	// HalfOpenMax is how many probe calls are admitted per half-open window,
	// and also how many must succeed to close the breaker. Default: 3.
	HalfOpenMax int
}

// CircuitBreaker tracks the health of one generation backend and sheds calls
// while the backend is considered down.
type CircuitBreaker struct {
	name       string
	failLimit  int
	cooldown   time.Duration
	probeLimit int

	mu       sync.Mutex
	state    State
	failures int       // consecutive failures while closed
	openedAt time.Time // when the breaker last tripped
	probes   int       // probe calls admitted in the current half-open window
	probeOK  int       // successful probes in the current window
}

// NewCircuitBreaker creates a [CircuitBreaker] with the supplied configuration.
// Zero-value config fields are replaced with the documented defaults.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	cb := &CircuitBreaker{
		name:       cfg.Name,
		failLimit:  cfg.MaxFailures,
		cooldown:   cfg.ResetTimeout,
		probeLimit: cfg.HalfOpenMax,
	}
	if cb.failLimit <= 0 {
		cb.failLimit = 5
	}
	if cb.cooldown <= 0 {
		cb.cooldown = 30 * time.Second
	}
	if cb.probeLimit <= 0 {
		cb.probeLimit = 3
	}
	return cb
}

// Execute runs fn against the backend if the breaker allows it. During
// cooldown it returns [ErrCircuitOpen] without calling fn; in the half-open
// window only the probe budget gets through.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	probe, admitErr := cb.admit()
	if admitErr != nil {
		return admitErr
	}

	err := fn()
	cb.settle(err, probe)
	return err
}

// admit decides whether a call may proceed and reports whether it counts as a
// half-open probe.
func (cb *CircuitBreaker) admit() (probe bool, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen {
		if time.Since(cb.openedAt) < cb.cooldown {
			return false, ErrCircuitOpen
		}
		cb.state = StateHalfOpen
		cb.probes = 0
		cb.probeOK = 0
		slog.Info("backend cooldown over, probing", "backend", cb.name)
	}

	if cb.state == StateHalfOpen {
		if cb.probes >= cb.probeLimit {
			// Probe budget spent; wait for the window to resolve.
			return false, ErrCircuitOpen
		}
		cb.probes++
		return true, nil
	}
	return false, nil
}

// settle records the outcome of an admitted call.
func (cb *CircuitBreaker) settle(callErr error, probe bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if callErr != nil {
		cb.openedAt = time.Now()
		if probe {
			// One bad probe is enough; back to cooldown.
			cb.state = StateOpen
			slog.Warn("backend still failing, breaker re-opened", "backend", cb.name)
			return
		}
		cb.failures++
		if cb.failures >= cb.failLimit {
			cb.state = StateOpen
			slog.Warn("backend breaker opened",
				"backend", cb.name, "consecutive_failures", cb.failures)
		}
		return
	}

	if probe {
		cb.probeOK++
		if cb.probeOK >= cb.probeLimit {
			cb.state = StateClosed
			cb.failures = 0
			slog.Info("backend recovered, breaker closed", "backend", cb.name)
		}
		return
	}
	cb.failures = 0
}

// State returns the current [State]. A tripped breaker whose cooldown has
// elapsed reports [StateHalfOpen]; the stored transition happens on the next
// [CircuitBreaker.Execute].
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && time.Since(cb.openedAt) >= cb.cooldown {
		return StateHalfOpen
	}
	return cb.state
}

// Reset forces the breaker back to [StateClosed] and clears all counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = StateClosed
	cb.failures = 0
	cb.probes = 0
	cb.probeOK = 0
	slog.Info("backend breaker manually reset", "backend", cb.name)
}
