package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fixed(name string, r Result) Checker {
	return NewCheckerFunc(name, func(context.Context) Result { return r })
}

func TestNewAggregator_Defaults(t *testing.T) {
	if got := NewAggregator().config.Timeout; got != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", got)
	}
	if got := NewAggregator(AggregatorConfig{Timeout: time.Second}).config.Timeout; got != time.Second {
		t.Errorf("Timeout = %v, want 1s", got)
	}
}

func TestAggregator_RegisterOrder(t *testing.T) {
	agg := NewAggregator()
	agg.Register(fixed("b", Healthy("")))
	agg.Register(fixed("a", Healthy("")))
	agg.Register(fixed("b", Degraded("")))

	names := agg.Names()
	if len(names) != 2 || names[0] != "b" || names[1] != "a" {
		t.Errorf("Names() = %v, want [b a]", names)
	}

	agg.Unregister("b")
	agg.Unregister("missing")
	if names := agg.Names(); len(names) != 1 || names[0] != "a" {
		t.Errorf("Names() after Unregister = %v, want [a]", names)
	}
}

func TestAggregator_RunWorstStatus(t *testing.T) {
	tests := []struct {
		name    string
		results []Result
		want    Status
	}{
		{"none", nil, StatusHealthy},
		{"all healthy", []Result{Healthy(""), Healthy("")}, StatusHealthy},
		{"one degraded", []Result{Healthy(""), Degraded("")}, StatusDegraded},
		{"one unhealthy", []Result{Degraded(""), Unhealthy("", nil)}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewAggregator()
			for i, r := range tt.results {
				agg.Register(fixed(string(rune('a'+i)), r))
			}

			report := agg.Run(context.Background())
			if report.Status != tt.want {
				t.Errorf("Status = %v, want %v", report.Status, tt.want)
			}
			if len(report.Checks) != len(tt.results) {
				t.Errorf("Checks = %d, want %d", len(report.Checks), len(tt.results))
			}
		})
	}
}

func TestAggregator_Timeout(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{Timeout: 20 * time.Millisecond})
	agg.Register(NewCheckerFunc("slow", func(ctx context.Context) Result {
		time.Sleep(200 * time.Millisecond)
		return Healthy("late")
	}))
	agg.Register(fixed("fast", Healthy("ok")))

	start := time.Now()
	report := agg.Run(context.Background())

	if time.Since(start) > 150*time.Millisecond {
		t.Error("Run should not wait for a timed-out checker")
	}
	slow := report.Checks["slow"]
	if slow.Status != StatusUnhealthy || !errors.Is(slow.Error, ErrCheckTimeout) {
		t.Errorf("slow = %+v, want unhealthy timeout", slow)
	}
	if report.Checks["fast"].Status != StatusHealthy {
		t.Error("fast checker should be healthy")
	}
}

func TestAggregator_Check(t *testing.T) {
	agg := NewAggregator()
	agg.Register(fixed("one", Degraded("slow")))

	r, err := agg.Check(context.Background(), "one")
	if err != nil || r.Status != StatusDegraded {
		t.Errorf("Check(one) = %+v, %v", r, err)
	}
	if r.Duration <= 0 && r.Timestamp.IsZero() {
		t.Error("Check should stamp the result")
	}
	if _, err := agg.Check(context.Background(), "two"); !errors.Is(err, ErrCheckerNotFound) {
		t.Errorf("Check(two) = %v, want ErrCheckerNotFound", err)
	}
}
