package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestNewCircuitBreaker_Defaults(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{})

	if cb.State() != StateClosed {
		t.Errorf("Initial state = %v, want closed", cb.State())
	}
	if cb.config.FailureThreshold != 5 {
		t.Errorf("FailureThreshold = %d, want 5", cb.config.FailureThreshold)
	}
	if cb.config.RecoveryTimeout != 60*time.Second {
		t.Errorf("RecoveryTimeout = %v, want 60s", cb.config.RecoveryTimeout)
	}
	if cb.config.SuccessThreshold != 2 {
		t.Errorf("SuccessThreshold = %d, want 2", cb.config.SuccessThreshold)
	}
}

func TestCircuitBreaker_OpensAtThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 3,
		RecoveryTimeout:  time.Minute,
	})

	for i := 0; i < 2; i++ {
		cb.RecordFailure()
		if cb.State() != StateClosed {
			t.Fatalf("after %d failures, state = %v, want closed", i+1, cb.State())
		}
		if !cb.Allow() {
			t.Fatalf("closed circuit denied request after %d failures", i+1)
		}
	}

	cb.RecordFailure()
	if cb.State() != StateOpen {
		t.Fatalf("after 3 failures, state = %v, want open", cb.State())
	}
	if cb.Allow() {
		t.Error("open circuit admitted a request before recovery timeout")
	}

	m := cb.Metrics()
	if m.Failures != 0 || m.Successes != 0 {
		t.Errorf("counters after opening = %d/%d, want 0/0", m.Failures, m.Successes)
	}
}

func TestCircuitBreaker_SuccessForgivesFailuresWhileClosed(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3})

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	cb.RecordFailure()

	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed (success reset the count)", cb.State())
	}
	if got := cb.Metrics().Failures; got != 2 {
		t.Errorf("Failures = %d, want 2", got)
	}
}

func TestCircuitBreaker_LazyHalfOpen(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		RecoveryTimeout:  20 * time.Millisecond,
	})

	cb.RecordFailure()
	if cb.Allow() {
		t.Fatal("expected denial right after opening")
	}

	time.Sleep(30 * time.Millisecond)

	if !cb.Allow() {
		t.Fatal("first check after recovery timeout should admit")
	}
	if cb.State() != StateHalfOpen {
		t.Errorf("state = %v, want half-open", cb.State())
	}
	if !cb.Allow() {
		t.Error("half-open circuit should keep admitting trial requests")
	}
}

func TestCircuitBreaker_HalfOpenClosesAfterSuccessThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		RecoveryTimeout:  10 * time.Millisecond,
		SuccessThreshold: 2,
	})

	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	cb.Allow()

	cb.RecordSuccess()
	if cb.State() != StateHalfOpen {
		t.Fatalf("after 1 success, state = %v, want half-open", cb.State())
	}
	cb.RecordSuccess()
	if cb.State() != StateClosed {
		t.Errorf("after 2 successes, state = %v, want closed", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		RecoveryTimeout:  30 * time.Millisecond,
		SuccessThreshold: 3,
	})

	cb.RecordFailure()
	time.Sleep(40 * time.Millisecond)
	cb.Allow()
	cb.RecordSuccess()
	cb.RecordSuccess()
	cb.RecordFailure()

	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}
	// The failure clock restarted, so the circuit stays open for a full
	// recovery timeout again.
	time.Sleep(10 * time.Millisecond)
	if cb.Allow() {
		t.Error("re-opened circuit admitted before a fresh recovery timeout")
	}
}

func TestCircuitBreaker_FailureWhileOpenRefreshesClock(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		RecoveryTimeout:  40 * time.Millisecond,
	})

	cb.RecordFailure()
	time.Sleep(25 * time.Millisecond)
	cb.RecordFailure()
	time.Sleep(25 * time.Millisecond)

	if cb.Allow() {
		t.Error("failure while open should restart the recovery clock")
	}
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	var (
		mu          sync.Mutex
		transitions []string
	)
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		RecoveryTimeout:  10 * time.Millisecond,
		SuccessThreshold: 1,
		OnStateChange: func(from, to State) {
			mu.Lock()
			defer mu.Unlock()
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	cb.Allow()
	cb.RecordSuccess()

	want := []string{"closed->open", "open->half-open", "half-open->closed"}
	mu.Lock()
	defer mu.Unlock()
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition[%d] = %q, want %q", i, transitions[i], want[i])
		}
	}
}

func TestCircuitBreaker_Disabled(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		Disabled:         true,
	})

	for i := 0; i < 5; i++ {
		cb.RecordFailure()
	}
	if !cb.Allow() {
		t.Error("disabled breaker denied a request")
	}
	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed", cb.State())
	}
}

func TestCircuitBreaker_Execute(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 2,
		RecoveryTimeout:  time.Minute,
	})
	ctx := context.Background()
	testErr := errors.New("upstream down")

	for i := 0; i < 2; i++ {
		if err := cb.Execute(ctx, func(context.Context) error { return testErr }); !errors.Is(err, testErr) {
			t.Fatalf("Execute() = %v, want %v", err, testErr)
		}
	}

	err := cb.Execute(ctx, func(context.Context) error {
		t.Error("op should not run while open")
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Execute() when open = %v, want ErrCircuitOpen", err)
	}
}

func TestCircuitBreaker_IsFailure(t *testing.T) {
	ignored := errors.New("bad request")
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		IsFailure:        func(err error) bool { return err != nil && !errors.Is(err, ignored) },
	})

	_ = cb.Execute(context.Background(), func(context.Context) error { return ignored })

	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed for ignored error", cb.State())
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1})
	cb.RecordFailure()
	cb.Reset()

	if cb.State() != StateClosed {
		t.Errorf("state after Reset = %v, want closed", cb.State())
	}
	if !cb.Allow() {
		t.Error("reset breaker denied a request")
	}
}

func TestCircuitBreaker_Concurrent(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1000})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cb.Allow()
			if i%2 == 0 {
				cb.RecordFailure()
			} else {
				cb.RecordSuccess()
			}
			_ = cb.Metrics()
		}(i)
	}
	wg.Wait()

	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed", cb.State())
	}
}

func TestState_Gauge(t *testing.T) {
	tests := []struct {
		state State
		want  float64
		name  string
	}{
		{StateClosed, 0, "closed"},
		{StateHalfOpen, 0.5, "half-open"},
		{StateOpen, 1, "open"},
	}
	for _, tt := range tests {
		if got := tt.state.Gauge(); got != tt.want {
			t.Errorf("%v.Gauge() = %v, want %v", tt.state, got, tt.want)
		}
		if got := tt.state.String(); got != tt.name {
			t.Errorf("String() = %q, want %q", got, tt.name)
		}
	}
	if State(99).String() != "unknown" {
		t.Error("unknown state should stringify as unknown")
	}
}
