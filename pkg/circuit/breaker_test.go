package circuit

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(config Config) (*Breaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return NewBreaker("smtp", config, zap.NewNop(), WithClock(clock.Now)), clock
}

func TestNewBreaker(t *testing.T) {
	breaker := NewBreaker("smtp", DefaultConfig(), nil)

	if breaker.State() != StateClosed {
		t.Errorf("Expected initial state CLOSED, got %s", breaker.State().String())
	}
}

func TestBreaker_TransitionToOpen(t *testing.T) {
	breaker, _ := newTestBreaker(Config{Threshold: 3, Timeout: time.Second})

	for i := 0; i < 3; i++ {
		breaker.Record(errors.New("dial tcp: connection refused"))
	}

	if breaker.State() != StateOpen {
		t.Errorf("Expected state OPEN after 3 failures, got %s", breaker.State().String())
	}
	if err := breaker.Allow(); err != ErrCircuitOpen {
		t.Errorf("Expected ErrCircuitOpen, got %v", err)
	}
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	breaker, _ := newTestBreaker(Config{Threshold: 2, Timeout: time.Second})

	breaker.Record(errors.New("fail"))
	breaker.Record(nil)
	breaker.Record(errors.New("fail"))

	if breaker.State() != StateClosed {
		t.Errorf("Expected state CLOSED, got %s", breaker.State().String())
	}
}

func TestBreaker_HalfOpenAndClose(t *testing.T) {
	var transitions []State
	clock := &fakeClock{t: time.Unix(0, 0)}
	breaker := NewBreaker("smtp", Config{Threshold: 1, Timeout: time.Minute, SuccessThreshold: 1, MaxHalfOpen: 1}, nil,
		WithClock(clock.Now),
		OnStateChange(func(_ string, _, to State) { transitions = append(transitions, to) }),
	)

	breaker.Record(errors.New("fail"))
	clock.Advance(59 * time.Second)
	if err := breaker.Allow(); err != ErrCircuitOpen {
		t.Fatalf("Expected ErrCircuitOpen before timeout, got %v", err)
	}

	clock.Advance(time.Second)
	if err := breaker.Allow(); err != nil {
		t.Fatalf("Expected Allow() to succeed after timeout, got %v", err)
	}
	if breaker.State() != StateHalfOpen {
		t.Fatalf("Expected state HALF_OPEN, got %s", breaker.State().String())
	}
	if err := breaker.Allow(); err != ErrTooManyRequests {
		t.Errorf("Expected ErrTooManyRequests for second trial request, got %v", err)
	}

	breaker.Record(nil)
	if breaker.State() != StateClosed {
		t.Errorf("Expected state CLOSED after trial request success, got %s", breaker.State().String())
	}

	want := []State{StateOpen, StateHalfOpen, StateClosed}
	if len(transitions) != len(want) {
		t.Fatalf("Expected transitions %v, got %v", want, transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("Transition %d: expected %s, got %s", i, want[i], transitions[i])
		}
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	breaker, clock := newTestBreaker(Config{Threshold: 1, Timeout: time.Second})

	breaker.Record(errors.New("fail"))
	clock.Advance(time.Second)
	_ = breaker.Allow()
	breaker.Record(errors.New("still failing"))

	if breaker.State() != StateOpen {
		t.Errorf("Expected state OPEN, got %s", breaker.State().String())
	}
}

func TestBreaker_Execute(t *testing.T) {
	breaker, _ := newTestBreaker(Config{Threshold: 1, Timeout: time.Hour})
	ctx := context.Background()

	if err := breaker.Execute(ctx, func(context.Context) error { return nil }); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	sendErr := errors.New("535 authentication failed")
	if err := breaker.Execute(ctx, func(context.Context) error { return sendErr }); err != sendErr {
		t.Errorf("Expected send error, got %v", err)
	}

	called := false
	err := breaker.Execute(ctx, func(context.Context) error { called = true; return nil })
	if err != ErrCircuitOpen || called {
		t.Errorf("Expected fail fast without calling fn, got err=%v called=%v", err, called)
	}
}

func TestBreaker_ExecuteCancelledContext(t *testing.T) {
	breaker, _ := newTestBreaker(Config{Threshold: 1, Timeout: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := breaker.Execute(ctx, func(context.Context) error { return nil }); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if breaker.State() != StateClosed {
		t.Errorf("Expected cancellation not to trip the breaker, got %s", breaker.State().String())
	}
}

func TestBreaker_Reset(t *testing.T) {
	breaker, _ := newTestBreaker(Config{Threshold: 1, Timeout: time.Hour})

	breaker.Record(errors.New("error"))
	if breaker.State() != StateOpen {
		t.Fatal("Expected state OPEN")
	}

	breaker.Reset()
	if breaker.State() != StateClosed {
		t.Errorf("Expected state CLOSED after reset, got %s", breaker.State().String())
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state    State
		expected string
	}{
		{StateClosed, "CLOSED"},
		{StateOpen, "OPEN"},
		{StateHalfOpen, "HALF_OPEN"},
		{State(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.expected {
			t.Errorf("State(%d).String() = %s, want %s", tt.state, got, tt.expected)
		}
	}
}
