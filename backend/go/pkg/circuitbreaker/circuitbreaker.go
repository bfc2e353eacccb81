package circuitbreaker

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"MedMemory/backend/go/internal/config"
)

// State represents the state of the circuit breaker.
type State int

const (
	// Closed lets every call through.
	Closed State = iota
	// Open rejects calls until the timeout has elapsed.
	Open
	// HalfOpen lets trial calls through to probe recovery.
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "Closed"
	case Open:
		return "Open"
	case HalfOpen:
		return "Half-Open"
	default:
		return "Unknown"
	}
}

// ErrCircuitOpen is returned without calling the guarded function while the
// breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreaker guards calls to a flaky dependency.
type CircuitBreaker interface {
	// Execute runs fn unless the breaker is open.
	Execute(fn func() error) error
	State() State
}

type breaker struct {
	failureThreshold uint32
	successThreshold uint32
	timeout          time.Duration
	now              func() time.Time

	mu        sync.Mutex
	state     State
	failures  uint32
	successes uint32
	openedAt  time.Time
}

// New creates a breaker that opens after failureThreshold consecutive failures,
// stays open for timeout, and closes again after successThreshold consecutive
// half-open successes.
func New(failureThreshold, successThreshold uint32, timeout time.Duration) CircuitBreaker {
	return newBreaker(failureThreshold, successThreshold, timeout, time.Now)
}

// FromConfig builds a breaker from cfg. It returns nil when cfg is disabled.
func FromConfig(cfg config.CircuitBreakerConfig) (CircuitBreaker, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, fmt.Errorf("create circuit breaker: %w", err)
	}
	return New(cfg.FailureThreshold, cfg.SuccessThreshold, timeout), nil
}

func newBreaker(failureThreshold, successThreshold uint32, timeout time.Duration, now func() time.Time) *breaker {
	if failureThreshold == 0 {
		failureThreshold = 1
	}
	if successThreshold == 0 {
		successThreshold = 1
	}
	return &breaker{
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		timeout:          timeout,
		now:              now,
		state:            Closed,
	}
}

func (b *breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance()
	return b.state
}

func (b *breaker) Execute(fn func() error) error {
	b.mu.Lock()
	b.advance()
	if b.state == Open {
		b.mu.Unlock()
		return ErrCircuitOpen
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.onFailure()
		return err
	}
	b.onSuccess()
	return nil
}

// advance moves an expired open breaker to half-open. Callers hold mu.
func (b *breaker) advance() {
	if b.state == Open && b.now().Sub(b.openedAt) >= b.timeout {
		b.state = HalfOpen
		b.successes = 0
	}
}

func (b *breaker) onSuccess() {
	switch b.state {
	case HalfOpen:
		b.successes++
		if b.successes >= b.successThreshold {
			b.state = Closed
			b.failures, b.successes = 0, 0
		}
	case Closed:
		b.failures = 0
	}
}

func (b *breaker) onFailure() {
	switch b.state {
	case HalfOpen:
		b.trip()
	case Closed:
		b.failures++
		if b.failures >= b.failureThreshold {
			b.trip()
		}
	}
}

func (b *breaker) trip() {
	b.state = Open
	b.openedAt = b.now()
	b.failures, b.successes = 0, 0
}
