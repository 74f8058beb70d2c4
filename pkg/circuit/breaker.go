package circuit

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State represents circuit breaker state
type State int

const (
	StateClosed   State = iota // calls pass through
	StateOpen                  // calls fail fast
	StateHalfOpen              // probing whether the backend recovered
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// Errors
var (
	ErrCircuitOpen     = errors.New("circuit breaker is open")
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

// Config defines circuit breaker configuration
type Config struct {
	Threshold        int           // Failures before opening circuit
	Timeout          time.Duration // Time to wait before half-open
	SuccessThreshold int           // Successes needed to close from half-open
	MaxHalfOpen      int           // Max concurrent requests in half-open
}

// DefaultConfig suits an SMTP relay: a handful of consecutive failures opens
// the circuit for a minute.
func DefaultConfig() Config {
	return Config{
		Threshold:        5,
		Timeout:          time.Minute,
		SuccessThreshold: 1,
		MaxHalfOpen:      1,
	}
}

// Breaker guards calls to a flaky dependency.
type Breaker struct {
	mu               sync.Mutex
	state            State
	failures         int
	successes        int
	halfOpenRequests int
	openedAt         time.Time
	config           Config
	logger           *zap.Logger
	name             string
	now              func() time.Time
	onChange         func(name string, from, to State)
}

// Option customises a Breaker.
type Option func(*Breaker)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) { b.now = now }
}

// OnStateChange registers a callback run on every transition, under the breaker lock.
func OnStateChange(fn func(name string, from, to State)) Option {
	return func(b *Breaker) { b.onChange = fn }
}

// NewBreaker creates a new circuit breaker
func NewBreaker(name string, config Config, logger *zap.Logger, opts ...Option) *Breaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxHalfOpen <= 0 {
		config.MaxHalfOpen = 1
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 1
	}

	b := &Breaker{
		state:  StateClosed,
		config: config,
		logger: logger,
		name:   name,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Execute runs fn if the circuit allows it and records the outcome.
// A cancelled context is returned without counting as a failure.
func (b *Breaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.Allow(); err != nil {
		return err
	}

	err := fn(ctx)
	if err != nil && ctx.Err() != nil {
		b.release()
		return err
	}
	b.Record(err)
	return err
}

// Allow checks if a request should be allowed
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.config.Timeout {
			return ErrCircuitOpen
		}
		b.transitionTo(StateHalfOpen)
		b.halfOpenRequests = 1
		return nil

	case StateHalfOpen:
		if b.halfOpenRequests >= b.config.MaxHalfOpen {
			return ErrTooManyRequests
		}
		b.halfOpenRequests++
		return nil
	}
	return nil
}

// release gives back a half-open slot without recording a result.
func (b *Breaker) release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateHalfOpen && b.halfOpenRequests > 0 {
		b.halfOpenRequests--
	}
}

// Record records the result of a request
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.recordFailure()
	} else {
		b.recordSuccess()
	}
}

// must hold lock
func (b *Breaker) recordFailure() {
	b.failures++
	b.successes = 0

	switch b.state {
	case StateClosed:
		if b.failures >= b.config.Threshold {
			b.transitionTo(StateOpen)
		}
	case StateHalfOpen:
		b.transitionTo(StateOpen)
	}
}

// must hold lock
func (b *Breaker) recordSuccess() {
	b.failures = 0

	if b.state == StateHalfOpen {
		b.successes++
		if b.successes >= b.config.SuccessThreshold {
			b.transitionTo(StateClosed)
		}
	}
}

// must hold lock
func (b *Breaker) transitionTo(newState State) {
	oldState := b.state
	b.state = newState
	b.halfOpenRequests = 0

	switch newState {
	case StateClosed:
		b.failures = 0
		b.successes = 0
	case StateOpen:
		b.openedAt = b.now()
	}

	b.logger.Info("Circuit breaker state changed",
		zap.String("name", b.name),
		zap.String("from", oldState.String()),
		zap.String("to", newState.String()),
		zap.Int("failures", b.failures),
	)

	if b.onChange != nil {
		b.onChange(b.name, oldState, newState)
	}
}

// State returns current state
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Stats returns circuit breaker statistics
func (b *Breaker) Stats() map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	return map[string]interface{}{
		"name":      b.name,
		"state":     b.state.String(),
		"failures":  b.failures,
		"opened_at": b.openedAt,
		"threshold": b.config.Threshold,
		"timeout":   b.config.Timeout.String(),
	}
}

// Reset resets the circuit breaker to closed state
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateClosed {
		b.transitionTo(StateClosed)
	}
	b.failures = 0
	b.successes = 0
}
