package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewTimeout_Default(t *testing.T) {
	timeout := NewTimeout(TimeoutConfig{})

	if timeout.Config().Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", timeout.Config().Timeout)
	}
}

func TestTimeout_ExecuteValue(t *testing.T) {
	timeout := NewTimeout(TimeoutConfig{Timeout: time.Second})

	v, err := ExecuteValue(context.Background(), timeout, func(context.Context) (int, error) {
		return 42, nil
	})
	if err != nil || v != 42 {
		t.Errorf("ExecuteValue() = %d, %v; want 42, nil", v, err)
	}
}

func TestTimeout_PropagatesError(t *testing.T) {
	timeout := NewTimeout(TimeoutConfig{Timeout: time.Second})
	testErr := errors.New("test error")

	err := timeout.Execute(context.Background(), func(context.Context) error {
		return testErr
	})
	if !errors.Is(err, testErr) {
		t.Errorf("Execute() = %v, want %v", err, testErr)
	}
}

func TestTimeout_Expires(t *testing.T) {
	timeout := NewTimeout(TimeoutConfig{Timeout: 20 * time.Millisecond})

	start := time.Now()
	_, err := ExecuteValue(context.Background(), timeout, func(ctx context.Context) (string, error) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Second):
			return "late", nil
		}
	})

	if !errors.Is(err, ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("timeout did not return promptly")
	}
}

func TestTimeout_ParentCancellation(t *testing.T) {
	timeout := NewTimeout(TimeoutConfig{Timeout: time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := timeout.Execute(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestExecuteWithTimeout(t *testing.T) {
	err := ExecuteWithTimeout(context.Background(), 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
}
