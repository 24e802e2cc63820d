package resilience

import (
	"fmt"
	"sync"
	"time"
)

// CircuitState represents the state of the circuit breaker.
type CircuitState int

const (
	// StateClosed allows all requests through.
	StateClosed CircuitState = iota
	// StateOpen blocks all requests.
	StateOpen
	// StateHalfOpen allows a limited number of probe requests through.
	StateHalfOpen
)

func (s CircuitState) String() string {
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

// MetricsCollector receives circuit breaker lifecycle events. Kept as an
// interface so a caller can wire this to whatever metrics system it uses
// without this package depending on one.
type MetricsCollector interface {
	RecordSuccess(name string)
	RecordFailure(name string)
	RecordStateChange(name string, from, to CircuitState)
	RecordRejection(name string)
}

type noopMetrics struct{}

func (noopMetrics) RecordSuccess(string)                                 {}
func (noopMetrics) RecordFailure(string)                                 {}
func (noopMetrics) RecordStateChange(string, CircuitState, CircuitState) {}
func (noopMetrics) RecordRejection(string)                               {}

// CircuitBreakerConfig configures a CircuitBreaker. In this module it
// throttles how often the orchestrator keeps dispatching an injected
// failure (exception or statuscode) whose match/percentage keeps firing on
// every invocation, rather than protecting against a genuinely unreliable
// downstream dependency — the teacher's original use case.
type CircuitBreakerConfig struct {
	Name string

	// VolumeThreshold is the minimum number of requests evaluated before
	// the error rate is considered meaningful.
	VolumeThreshold int

	// ErrorThreshold is the failure rate in [0, 1] that trips the breaker.
	ErrorThreshold float64

	// SleepWindow is how long the breaker stays open before allowing a
	// half-open probe.
	SleepWindow time.Duration

	// HalfOpenRequests is how many probe requests are allowed through
	// while half-open before the breaker decides to close or reopen.
	HalfOpenRequests int

	// SuccessThreshold is the fraction of half-open probes that must
	// succeed to close the breaker again.
	SuccessThreshold float64

	// WindowSize and BucketCount configure the sliding window used to
	// compute the closed-state error rate.
	WindowSize  time.Duration
	BucketCount int

	Logger  Logger
	Metrics MetricsCollector
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		Name:             "default",
		VolumeThreshold:  10,
		ErrorThreshold:   0.5,
		SleepWindow:      30 * time.Second,
		HalfOpenRequests: 5,
		SuccessThreshold: 0.6,
		WindowSize:       60 * time.Second,
		BucketCount:      10,
		Logger:           NoOpLogger{},
		Metrics:          noopMetrics{},
	}
}

func (c *CircuitBreakerConfig) applyDefaults() {
	if c.WindowSize == 0 {
		c.WindowSize = 60 * time.Second
	}
	if c.BucketCount == 0 {
		c.BucketCount = 10
	}
	if c.Logger == nil {
		c.Logger = NoOpLogger{}
	}
	if c.Metrics == nil {
		c.Metrics = noopMetrics{}
	}
	if c.SuccessThreshold == 0 {
		c.SuccessThreshold = 0.6
	}
	if c.HalfOpenRequests == 0 {
		c.HalfOpenRequests = 5
	}
	if c.Name == "" {
		c.Name = "default"
	}
}

func (c *CircuitBreakerConfig) validate() error {
	if c.ErrorThreshold < 0 || c.ErrorThreshold > 1 {
		return fmt.Errorf("error threshold must be in [0, 1], got %v", c.ErrorThreshold)
	}
	if c.SuccessThreshold < 0 || c.SuccessThreshold > 1 {
		return fmt.Errorf("success threshold must be in [0, 1], got %v", c.SuccessThreshold)
	}
	if c.VolumeThreshold < 0 {
		return fmt.Errorf("volume threshold must be non-negative, got %d", c.VolumeThreshold)
	}
	return nil
}

// CircuitBreaker tracks recent outcomes in a sliding window and trips from
// closed to open once the error rate crosses ErrorThreshold with enough
// volume, recovering through a half-open probing state.
type CircuitBreaker struct {
	config *CircuitBreakerConfig

	mu             sync.Mutex
	state          CircuitState
	stateChangedAt time.Time

	window *SlidingWindow

	halfOpenAllowed  int32
	halfOpenSuccess  int32
	halfOpenFailures int32

	listeners []func(name string, from, to CircuitState)
}

// NewCircuitBreaker builds a CircuitBreaker, applying defaults to any
// zero-valued config fields and validating the result.
func NewCircuitBreaker(config *CircuitBreakerConfig) (*CircuitBreaker, error) {
	if config == nil {
		config = DefaultConfig()
	}
	config.applyDefaults()
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid circuit breaker config: %w", err)
	}

	return &CircuitBreaker{
		config:         config,
		state:          StateClosed,
		stateChangedAt: time.Now(),
		window:         NewSlidingWindow(config.WindowSize, config.BucketCount),
	}, nil
}

// OnStateChange registers a listener invoked on every state transition.
func (cb *CircuitBreaker) OnStateChange(fn func(name string, from, to CircuitState)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.listeners = append(cb.listeners, fn)
}

// State reports the current state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// CanExecute reports whether a call should be allowed through right now,
// transitioning open→half-open when the sleep window has elapsed.
func (cb *CircuitBreaker) CanExecute() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true

	case StateOpen:
		if time.Since(cb.stateChangedAt) >= cb.config.SleepWindow {
			cb.transitionLocked(StateHalfOpen)
			cb.halfOpenAllowed = 0
			cb.halfOpenSuccess = 0
			cb.halfOpenFailures = 0
		} else {
			cb.config.Metrics.RecordRejection(cb.config.Name)
			return false
		}
		fallthrough

	case StateHalfOpen:
		if cb.halfOpenAllowed >= int32(cb.config.HalfOpenRequests) {
			cb.config.Metrics.RecordRejection(cb.config.Name)
			return false
		}
		cb.halfOpenAllowed++
		return true

	default:
		return false
	}
}

// Execute runs fn if CanExecute allows it, recording the outcome.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.CanExecute() {
		if cb.State() == StateHalfOpen {
			return fmt.Errorf("circuit breaker %q is half-open: %w", cb.config.Name, ErrTooManyProbes)
		}
		return fmt.Errorf("circuit breaker %q is open: %w", cb.config.Name, ErrCircuitOpen)
	}

	err := fn()
	if err != nil {
		cb.RecordFailure()
		return err
	}
	cb.RecordSuccess()
	return nil
}

// RecordSuccess records a successful call.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.config.Metrics.RecordSuccess(cb.config.Name)

	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateHalfOpen:
		cb.halfOpenSuccess++
		total := cb.halfOpenSuccess + cb.halfOpenFailures
		if total >= int32(cb.config.HalfOpenRequests) {
			rate := float64(cb.halfOpenSuccess) / float64(total)
			if rate >= cb.config.SuccessThreshold {
				cb.transitionLocked(StateClosed)
				cb.window.Reset()
			} else {
				cb.transitionLocked(StateOpen)
			}
		}
	default:
		cb.window.RecordSuccess()
	}
}

// RecordFailure records a failed call, evaluating whether the closed-state
// error rate now exceeds the threshold.
func (cb *CircuitBreaker) RecordFailure() {
	cb.config.Metrics.RecordFailure(cb.config.Name)

	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateHalfOpen:
		cb.halfOpenFailures++
		cb.transitionLocked(StateOpen)

	case StateClosed:
		cb.window.RecordFailure()
		total, failures := cb.window.Counts()
		if total >= cb.config.VolumeThreshold {
			rate := float64(failures) / float64(total)
			if rate >= cb.config.ErrorThreshold {
				cb.transitionLocked(StateOpen)
			}
		}
	}
}

func (cb *CircuitBreaker) transitionLocked(to CircuitState) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	cb.stateChangedAt = time.Now()

	cb.config.Metrics.RecordStateChange(cb.config.Name, from, to)
	cb.config.Logger.Info("circuit breaker state changed", map[string]interface{}{
		"name": cb.config.Name,
		"from": from.String(),
		"to":   to.String(),
	})

	for _, listener := range cb.listeners {
		listener(cb.config.Name, from, to)
	}
}
