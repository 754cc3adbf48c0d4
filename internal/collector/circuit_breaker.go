package collector

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrCircuitOpen is returned when the circuit breaker is in open state
// and rejects requests to the data API.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig holds the configuration for the circuit breaker.
type CircuitBreakerConfig struct {
	// MaxFailures is the number of consecutive failed batches required to trip the circuit.
	// Default: 3
	MaxFailures uint32

	// Timeout is the duration the circuit stays open before transitioning to half-open.
	// Default: 30 seconds
	Timeout time.Duration

	// HalfOpenMaxSuccesses is the number of consecutive successes required in half-open
	// state to close the circuit again.
	// Default: 1
	HalfOpenMaxSuccesses uint32
}

// DefaultCircuitBreakerConfig returns the default breaker settings.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		MaxFailures:          3,
		Timeout:              30 * time.Second,
		HalfOpenMaxSuccesses: 1,
	}
}

// CircuitBreakerMetrics holds metrics about circuit breaker operations.
// TotalRequests counts batches the breaker let through; Rejected counts
// batches refused while the circuit was open.
type CircuitBreakerMetrics struct {
	TotalRequests        uint64
	TotalSuccesses       uint64
	TotalFailures        uint64
	Rejected             uint64
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (m CircuitBreakerMetrics) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddUint64("requests", m.TotalRequests)
	enc.AddUint64("successes", m.TotalSuccesses)
	enc.AddUint64("failures", m.TotalFailures)
	enc.AddUint64("rejected", m.Rejected)
	enc.AddUint32("consecutive_failures", m.ConsecutiveFailures)
	return nil
}

// CircuitBreaker wraps gobreaker to stop hammering the data API once it is
// consistently failing.
//
// When closed, requests pass through normally. After MaxFailures consecutive
// failures the circuit opens and rejects all requests. After Timeout it
// transitions to half-open and allows test requests.
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
	config  CircuitBreakerConfig
	mu      sync.RWMutex
	metrics CircuitBreakerMetrics
}

// NewCircuitBreaker creates a circuit breaker. Zero fields of config take
// their defaults. State changes are logged at Warn.
func NewCircuitBreaker(config CircuitBreakerConfig, logger *zap.Logger) *CircuitBreaker {
	defaults := DefaultCircuitBreakerConfig()
	if config.MaxFailures == 0 {
		config.MaxFailures = defaults.MaxFailures
	}
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.HalfOpenMaxSuccesses == 0 {
		config.HalfOpenMaxSuccesses = defaults.HalfOpenMaxSuccesses
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cb := &CircuitBreaker{config: config}
	cb.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "RandomDataAPI",
		MaxRequests: config.HalfOpenMaxSuccesses,
		Interval:    0, // Don't clear counts periodically
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return cb
}

// Execute runs fn through the circuit breaker.
// If the circuit is open, it returns ErrCircuitOpen immediately.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() (interface{}, error)) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := cb.breaker.Execute(func() (interface{}, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return fn()
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			cb.reject()
			return nil, ErrCircuitOpen
		}
		cb.record(false)
		return result, err
	}
	cb.record(true)
	return result, nil
}

// State returns the current state of the circuit breaker.
// Possible values: "closed", "open", "half-open"
func (cb *CircuitBreaker) State() string {
	switch cb.breaker.State() {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateOpen:
		return "open"
	case gobreaker.StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Metrics returns the current metrics for the circuit breaker.
func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	counts := cb.breaker.Counts()
	return CircuitBreakerMetrics{
		TotalRequests:        cb.metrics.TotalRequests,
		TotalSuccesses:       cb.metrics.TotalSuccesses,
		TotalFailures:        cb.metrics.TotalFailures,
		Rejected:             cb.metrics.Rejected,
		ConsecutiveSuccesses: counts.ConsecutiveSuccesses,
		ConsecutiveFailures:  counts.ConsecutiveFailures,
	}
}

func (cb *CircuitBreaker) record(success bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.metrics.TotalRequests++
	if success {
		cb.metrics.TotalSuccesses++
	} else {
		cb.metrics.TotalFailures++
	}
}

func (cb *CircuitBreaker) reject() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.metrics.Rejected++
}
