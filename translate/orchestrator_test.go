package translate

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jonwraymond/gptshell/cache"
	"github.com/jonwraymond/gptshell/observe"
	"github.com/jonwraymond/gptshell/provider"
	"github.com/jonwraymond/gptshell/resilience"
	"github.com/jonwraymond/gptshell/validate"
)

const lsAnswer = `{"command":"ls -la","explanation":"list files","warning":null,"safe":true}`

type countingProvider struct {
	name  string
	calls atomic.Int32
	fn    func(call int, req provider.Request) (string, error)
}

func (p *countingProvider) Name() string { return p.name }

func (p *countingProvider) Complete(ctx context.Context, req provider.Request) (string, error) {
	n := int(p.calls.Add(1))
	return p.fn(n, req)
}

func answer(text string) *countingProvider {
	return &countingProvider{name: "fake", fn: func(int, provider.Request) (string, error) { return text, nil }}
}

func failing(err error) *countingProvider {
	return &countingProvider{name: "broken", fn: func(int, provider.Request) (string, error) { return "", err }}
}

func testConfig(primary provider.Provider) Config {
	return Config{
		Primary:     primary,
		Model:       "primary-model",
		CallTimeout: time.Second,
		RateLimit:   resilience.RateLimiterConfig{Rate: 1000, Burst: 1000},
		Retry: resilience.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   time.Millisecond,
			MaxDelay:    2 * time.Millisecond,
		},
		Breaker: resilience.CircuitBreakerConfig{FailureThreshold: 5, RecoveryTimeout: time.Minute},
	}
}

func newTestOrchestrator(t *testing.T, cfg Config) *Orchestrator {
	t.Helper()
	o, err := New(cfg)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	return o
}

var tc = Context{WorkingDir: "/home/user", OS: "Linux"}

func TestNew_RequiresPrimary(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrNoPrimary) {
		t.Errorf("New() = %v, want ErrNoPrimary", err)
	}
}

func TestNew_RejectsNilFallback(t *testing.T) {
	cfg := testConfig(answer(lsAnswer))
	cfg.Fallbacks = []Fallback{{Name: "empty"}}
	if _, err := New(cfg); err == nil {
		t.Error("New() with nil fallback provider should fail")
	}
}

func TestTranslate_PrimaryThenCache(t *testing.T) {
	m := observe.NewMetrics(nil)
	primary := answer(lsAnswer)
	cfg := testConfig(primary)
	cfg.Cache = cache.NewLRU(cache.LRUConfig{Capacity: 10})
	cfg.Metrics = m
	o := newTestOrchestrator(t, cfg)
	ctx := context.Background()

	first := o.Translate(ctx, "list files", tc)
	if first.Outcome != OutcomePrimary {
		t.Fatalf("first Outcome = %s, want primary", first.Outcome)
	}
	if first.Translation.Command != "ls -la" || !first.Translation.Safe {
		t.Errorf("Translation = %+v", first.Translation)
	}
	if first.Provider != "fake" || first.Fingerprint == "" {
		t.Errorf("Provider = %q, Fingerprint = %q", first.Provider, first.Fingerprint)
	}

	second := o.Translate(ctx, "  list   files ", tc)
	if second.Outcome != OutcomeCache {
		t.Fatalf("second Outcome = %s, want cache", second.Outcome)
	}
	if second.Fingerprint != first.Fingerprint {
		t.Error("whitespace variants should share a fingerprint")
	}
	if second.Translation.Command != "ls -la" {
		t.Errorf("cached Command = %q", second.Translation.Command)
	}
	if got := primary.calls.Load(); got != 1 {
		t.Errorf("primary calls = %d, want 1", got)
	}

	s := m.Snapshot()
	if s.Counter(MetricRequests) != 2 {
		t.Errorf("%s = %d, want 2", MetricRequests, s.Counter(MetricRequests))
	}
	if s.Counter(MetricOutcome(OutcomePrimary)) != 1 || s.Counter(MetricOutcome(OutcomeCache)) != 1 {
		t.Errorf("outcome counters = %v", s.Counters)
	}
	if s.Histograms[MetricLatency].Count != 2 {
		t.Errorf("%s count = %d, want 2", MetricLatency, s.Histograms[MetricLatency].Count)
	}
}

func TestTranslate_ContextChangesFingerprint(t *testing.T) {
	primary := answer(lsAnswer)
	cfg := testConfig(primary)
	cfg.Cache = cache.NewLRU(cache.LRUConfig{Capacity: 10})
	o := newTestOrchestrator(t, cfg)
	ctx := context.Background()

	o.Translate(ctx, "list files", tc)
	res := o.Translate(ctx, "list files", Context{WorkingDir: "/tmp", OS: "Linux"})

	if res.Outcome != OutcomePrimary {
		t.Errorf("Outcome = %s, want primary for a different directory", res.Outcome)
	}
	if primary.calls.Load() != 2 {
		t.Errorf("primary calls = %d, want 2", primary.calls.Load())
	}
}

func TestTranslate_RequestCarriesSettings(t *testing.T) {
	var got provider.Request
	primary := &countingProvider{name: "p", fn: func(_ int, req provider.Request) (string, error) {
		got = req
		return lsAnswer, nil
	}}
	cfg := testConfig(primary)
	cfg.Temperature = 0.3
	o := newTestOrchestrator(t, cfg)

	o.Translate(context.Background(), "list files", tc)

	if got.Model != "primary-model" || got.MaxTokens != 500 || got.Temperature != 0.3 {
		t.Errorf("request = %+v", got)
	}
	if got.System != provider.SystemPrompt {
		t.Error("request should carry the default system prompt")
	}
	if got.Context != tc || got.Text != "list files" {
		t.Errorf("request context/text = %+v / %q", got.Context, got.Text)
	}
}

func TestTranslate_RetryRecovers(t *testing.T) {
	m := observe.NewMetrics(nil)
	primary := &countingProvider{name: "flaky", fn: func(call int, _ provider.Request) (string, error) {
		if call == 1 {
			return "", errors.New("connection reset")
		}
		return lsAnswer, nil
	}}
	cfg := testConfig(primary)
	cfg.Metrics = m
	o := newTestOrchestrator(t, cfg)

	res := o.Translate(context.Background(), "list files", tc)

	if res.Outcome != OutcomePrimary {
		t.Fatalf("Outcome = %s, want primary", res.Outcome)
	}
	s := m.Snapshot()
	if s.Counter(MetricRetryAttempt) != 1 || s.Counter(MetricRetrySuccess) != 1 {
		t.Errorf("retry counters = %v", s.Counters)
	}
	if o.Breaker().Metrics().Failures != 0 {
		t.Error("a recovered request should not count as a breaker failure")
	}
}

func TestTranslate_UnparseableIsRetriedThenFallback(t *testing.T) {
	m := observe.NewMetrics(nil)
	primary := answer("I'm sorry, I can't do that.")
	fb := answer(`{"command":"pwd","safe":true}`)
	cfg := testConfig(primary)
	cfg.Fallbacks = []Fallback{{Name: "backup", Model: "small", Provider: fb}}
	cfg.Cache = cache.NewLRU(cache.LRUConfig{Capacity: 10})
	cfg.Metrics = m
	o := newTestOrchestrator(t, cfg)

	res := o.Translate(context.Background(), "where am i", tc)

	if res.Outcome != OutcomeFallback || res.Provider != "backup" {
		t.Fatalf("Outcome = %s (%s), want fallback (backup)", res.Outcome, res.Provider)
	}
	if primary.calls.Load() != 3 {
		t.Errorf("primary calls = %d, want 3 attempts", primary.calls.Load())
	}
	if m.Snapshot().Counter(MetricRetryExhausted) != 1 {
		t.Errorf("%s = %d, want 1", MetricRetryExhausted, m.Snapshot().Counter(MetricRetryExhausted))
	}
	if o.Breaker().Metrics().Failures != 1 {
		t.Errorf("breaker failures = %d, want 1 per exhausted request", o.Breaker().Metrics().Failures)
	}

	// Fallback answers are not cached.
	again := o.Translate(context.Background(), "where am i", tc)
	if again.Outcome == OutcomeCache {
		t.Error("fallback result should not be served from cache")
	}
}

func TestTranslate_NonRetryableErrorSingleAttempt(t *testing.T) {
	primary := failing(&provider.StatusError{StatusCode: 401, Body: "bad key"})
	o := newTestOrchestrator(t, testConfig(primary))

	res := o.Translate(context.Background(), "list files", tc)

	if res.Outcome != OutcomeDegraded {
		t.Fatalf("Outcome = %s, want degraded", res.Outcome)
	}
	if primary.calls.Load() != 1 {
		t.Errorf("primary calls = %d, want 1", primary.calls.Load())
	}
	var status *provider.StatusError
	if !errors.As(res.Err, &status) || status.StatusCode != 401 {
		t.Errorf("Err = %v, want the 401 status error", res.Err)
	}
	var exhausted *resilience.RetryExhaustedError
	if errors.As(res.Err, &exhausted) {
		t.Errorf("Err = %v, want no RetryExhaustedError for a single attempt", res.Err)
	}
	if got := o.Breaker().Metrics().Failures; got != 1 {
		t.Errorf("breaker failures = %d, want 1", got)
	}
}

func TestTranslate_OpenBreakerSkipsPrimary(t *testing.T) {
	primary := answer(lsAnswer)
	fb := answer(`{"command":"ls","safe":true}`)
	cfg := testConfig(primary)
	cfg.Fallbacks = []Fallback{{Name: "backup", Provider: fb}}
	o := newTestOrchestrator(t, cfg)

	for i := 0; i < 5; i++ {
		o.Breaker().RecordFailure()
	}
	if o.Breaker().State() != resilience.StateOpen {
		t.Fatalf("State = %s, want open", o.Breaker().State())
	}

	res := o.Translate(context.Background(), "list files", tc)

	if res.Outcome != OutcomeFallback {
		t.Fatalf("Outcome = %s, want fallback", res.Outcome)
	}
	if primary.calls.Load() != 0 {
		t.Errorf("primary calls = %d, want 0 while open", primary.calls.Load())
	}
}

func TestTranslate_CacheHitDoesNotTouchOpenBreaker(t *testing.T) {
	primary := answer(lsAnswer)
	cfg := testConfig(primary)
	cfg.Cache = cache.NewLRU(cache.LRUConfig{Capacity: 10})
	o := newTestOrchestrator(t, cfg)
	ctx := context.Background()

	o.Translate(ctx, "list files", tc)
	for i := 0; i < 5; i++ {
		o.Breaker().RecordFailure()
	}

	res := o.Translate(ctx, "list files", tc)
	if res.Outcome != OutcomeCache {
		t.Errorf("Outcome = %s, want cache even with the breaker open", res.Outcome)
	}
}

func TestTranslate_AllFailDegraded(t *testing.T) {
	var buf bytes.Buffer
	primary := failing(errors.New("upstream down"))
	fb1 := failing(errors.New("fallback 1 down"))
	fb2 := answer("not json at all")
	cfg := testConfig(primary)
	cfg.Fallbacks = []Fallback{
		{Name: "one", Provider: fb1},
		{Name: "two", Provider: fb2},
	}
	cfg.Logger = observe.NewLoggerWithWriter("debug", &buf)
	o := newTestOrchestrator(t, cfg)

	res := o.Translate(context.Background(), "list files", tc)

	if res.Outcome != OutcomeDegraded {
		t.Fatalf("Outcome = %s, want degraded", res.Outcome)
	}
	tr := res.Translation
	if tr == nil || tr.Command != "" || tr.Safe {
		t.Fatalf("Translation = %+v, want empty unsafe command", tr)
	}
	if tr.Explanation != DegradedExplanation || tr.WarningText() != DegradedWarning {
		t.Errorf("Translation = %+v", tr)
	}
	if !errors.Is(res.Err, ErrAllProvidersFailed) {
		t.Errorf("Err = %v, want ErrAllProvidersFailed", res.Err)
	}
	if !errors.Is(res.Err, resilience.ErrRetryExhausted) {
		t.Errorf("Err = %v, want to include the primary's exhaustion", res.Err)
	}
	if res.OK() {
		t.Error("degraded result should not be OK")
	}
	if fb1.calls.Load() != 1 || fb2.calls.Load() != 1 {
		t.Errorf("fallback calls = %d, %d; want one each", fb1.calls.Load(), fb2.calls.Load())
	}
	if !bytes.Contains(buf.Bytes(), []byte("translation degraded")) {
		t.Error("degraded result should be logged")
	}
}

func TestTranslate_AnswerWithoutCommandIsRetried(t *testing.T) {
	m := observe.NewMetrics(nil)
	c := cache.NewLRU(cache.LRUConfig{Capacity: 10})
	primary := &countingProvider{name: "fake", fn: func(call int, _ provider.Request) (string, error) {
		if call == 1 {
			return "Use find with -exec rm {} ; like so:\n{}", nil
		}
		return lsAnswer, nil
	}}
	cfg := testConfig(primary)
	cfg.Cache = c
	cfg.Metrics = m
	o := newTestOrchestrator(t, cfg)

	res := o.Translate(context.Background(), "list files", tc)
	if res.Outcome != OutcomePrimary || res.Translation.Command != "ls -la" {
		t.Fatalf("Translate() = %s %+v, want primary ls -la", res.Outcome, res.Translation)
	}
	if got := primary.calls.Load(); got != 2 {
		t.Errorf("primary calls = %d, want 2", got)
	}
	if got := m.Snapshot().Counter(MetricRetryAttempt); got != 1 {
		t.Errorf("%s = %d, want 1", MetricRetryAttempt, got)
	}
}

func TestTranslate_AnswerWithoutCommandIsNeverCached(t *testing.T) {
	c := cache.NewLRU(cache.LRUConfig{Capacity: 10})
	primary := answer("Use find with -exec rm {} ; like so:\n{}")
	cfg := testConfig(primary)
	cfg.Cache = c
	o := newTestOrchestrator(t, cfg)
	ctx := context.Background()

	first := o.Translate(ctx, "delete tmp files", tc)
	if first.Outcome != OutcomeDegraded {
		t.Fatalf("first Outcome = %s, want degraded", first.Outcome)
	}
	if !errors.Is(first.Err, provider.ErrNoResult) {
		t.Errorf("Err = %v, want ErrNoResult", first.Err)
	}
	if got := primary.calls.Load(); got != 3 {
		t.Errorf("primary calls = %d, want 3 (every attempt used)", got)
	}
	if c.Len() != 0 {
		t.Errorf("cache Len() = %d, want 0", c.Len())
	}
	if got := o.Breaker().Metrics().Failures; got != 1 {
		t.Errorf("breaker failures = %d, want 1", got)
	}

	second := o.Translate(ctx, "delete tmp files", tc)
	if second.Outcome == OutcomeCache {
		t.Error("second request served from cache, want a fresh attempt")
	}
	if got := primary.calls.Load(); got != 6 {
		t.Errorf("primary calls = %d, want 6", got)
	}
}

func TestTranslate_FallbacksInOrderStopAtFirstSuccess(t *testing.T) {
	var mu sync.Mutex
	var order []string
	record := func(name string, reply string, err error) *countingProvider {
		return &countingProvider{name: name, fn: func(int, provider.Request) (string, error) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return reply, err
		}}
	}

	primary := record("primary", "", errors.New("down"))
	a := record("a", "", errors.New("a down"))
	b := record("b", `{"command":"ls","explanation":"from b","safe":true}`, nil)
	c := record("c", `{"command":"ls","explanation":"from c","safe":true}`, nil)

	cfg := testConfig(primary)
	cfg.Retry.MaxAttempts = 1
	cfg.Fallbacks = []Fallback{
		{Name: "a", Provider: a},
		{Name: "b", Provider: b},
		{Name: "c", Provider: c},
	}
	o := newTestOrchestrator(t, cfg)

	res := o.Translate(context.Background(), "list files", tc)
	if res.Outcome != OutcomeFallback || res.Provider != "b" {
		t.Fatalf("Translate() = %s from %q, want fallback from b", res.Outcome, res.Provider)
	}
	if res.Translation.Explanation != "from b" {
		t.Errorf("Explanation = %q, want from b", res.Translation.Explanation)
	}

	mu.Lock()
	defer mu.Unlock()
	if got, want := strings.Join(order, " "), "primary a b"; got != want {
		t.Errorf("call order = %q, want %q", got, want)
	}
	if c.calls.Load() != 0 {
		t.Errorf("fallback c called %d times, want 0", c.calls.Load())
	}
}

func TestTranslate_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	m := observe.NewMetrics(nil)
	var transitions []resilience.State
	var mu sync.Mutex

	primary := failing(errors.New("down"))
	cfg := testConfig(primary)
	cfg.Retry.MaxAttempts = 1
	cfg.Breaker.FailureThreshold = 2
	cfg.Breaker.OnStateChange = func(_, to resilience.State) {
		mu.Lock()
		transitions = append(transitions, to)
		mu.Unlock()
	}
	cfg.Metrics = m
	o := newTestOrchestrator(t, cfg)
	ctx := context.Background()

	o.Translate(ctx, "a", tc)
	o.Translate(ctx, "b", tc)
	o.Translate(ctx, "c", tc)

	if primary.calls.Load() != 2 {
		t.Errorf("primary calls = %d, want 2 before opening", primary.calls.Load())
	}
	if gauge, _ := m.Snapshot().Gauge(MetricBreakerState); gauge != 1 {
		t.Errorf("%s = %v, want 1 (open)", MetricBreakerState, gauge)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(transitions) != 1 || transitions[0] != resilience.StateOpen {
		t.Errorf("user OnStateChange saw %v, want [open]", transitions)
	}
}

func TestTranslate_HalfOpenTrialCloses(t *testing.T) {
	primary := answer(lsAnswer)
	cfg := testConfig(primary)
	cfg.Breaker = resilience.CircuitBreakerConfig{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		RecoveryTimeout:  20 * time.Millisecond,
	}
	o := newTestOrchestrator(t, cfg)

	o.Breaker().RecordFailure()
	time.Sleep(30 * time.Millisecond)

	res := o.Translate(context.Background(), "list files", tc)
	if res.Outcome != OutcomePrimary {
		t.Fatalf("Outcome = %s, want primary trial", res.Outcome)
	}
	if o.Breaker().State() != resilience.StateClosed {
		t.Errorf("State = %s, want closed after a successful trial", o.Breaker().State())
	}
}

func TestTranslate_RateLimited(t *testing.T) {
	primary := answer(lsAnswer)
	c := cache.NewLRU(cache.LRUConfig{Capacity: 10})
	cfg := testConfig(primary)
	cfg.RateLimit = resilience.RateLimiterConfig{Rate: 0.001, Burst: 1}
	cfg.Cache = c
	o := newTestOrchestrator(t, cfg)
	ctx := context.Background()

	if res := o.Translate(ctx, "list files", tc); res.Outcome != OutcomePrimary {
		t.Fatalf("first Outcome = %s, want primary", res.Outcome)
	}
	cacheBefore := c.Stats()
	breakerBefore := o.Breaker().Metrics()

	res := o.Translate(ctx, "list files", tc)
	if res.Outcome != OutcomeRateLimited {
		t.Fatalf("second Outcome = %s, want rate_limited", res.Outcome)
	}
	if res.Translation != nil {
		t.Error("rate-limited result should carry no translation")
	}
	if !errors.Is(res.Err, resilience.ErrRateLimitExceeded) {
		t.Errorf("Err = %v, want ErrRateLimitExceeded", res.Err)
	}
	if got := c.Stats(); got != cacheBefore {
		t.Errorf("cache Stats() = %+v, want unchanged %+v", got, cacheBefore)
	}
	breakerAfter := o.Breaker().Metrics()
	if breakerAfter.State != breakerBefore.State ||
		breakerAfter.Failures != breakerBefore.Failures ||
		breakerAfter.Successes != breakerBefore.Successes {
		t.Errorf("breaker = %+v, want unchanged %+v", breakerAfter, breakerBefore)
	}
	if primary.calls.Load() != 1 {
		t.Errorf("primary calls = %d, want 1", primary.calls.Load())
	}
}

func TestTranslate_RejectedInput(t *testing.T) {
	primary := answer(lsAnswer)
	cfg := testConfig(primary)
	cfg.Validator = validate.New()
	cfg.RateLimit = resilience.RateLimiterConfig{Rate: 0.001, Burst: 1}
	o := newTestOrchestrator(t, cfg)
	ctx := context.Background()

	res := o.Translate(ctx, "list; rm -rf /", tc)
	if res.Outcome != OutcomeRejected {
		t.Fatalf("Outcome = %s, want rejected", res.Outcome)
	}
	if res.Rejection == nil || res.Rejection.Risk != validate.RiskHigh {
		t.Errorf("Rejection = %+v, want high risk", res.Rejection)
	}
	if primary.calls.Load() != 0 {
		t.Error("rejected input should not reach the provider")
	}

	// The rejected request consumed no token.
	if next := o.Translate(ctx, "list files", tc); next.Outcome != OutcomePrimary {
		t.Errorf("next Outcome = %s, want primary", next.Outcome)
	}
}

func TestTranslate_CallerCancellationLeavesBreaker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	primary := &countingProvider{name: "slow", fn: func(int, provider.Request) (string, error) {
		cancel()
		return "", errors.New("interrupted")
	}}
	fb := answer(lsAnswer)
	cfg := testConfig(primary)
	cfg.Fallbacks = []Fallback{{Name: "backup", Provider: fb}}
	o := newTestOrchestrator(t, cfg)

	res := o.Translate(ctx, "list files", tc)

	if res.Outcome != OutcomeDegraded {
		t.Fatalf("Outcome = %s, want degraded", res.Outcome)
	}
	if !errors.Is(res.Err, context.Canceled) {
		t.Errorf("Err = %v, want context.Canceled", res.Err)
	}
	if o.Breaker().Metrics().Failures != 0 {
		t.Error("caller cancellation should not count against the breaker")
	}
	if fb.calls.Load() != 0 {
		t.Error("fallbacks should not run after cancellation")
	}
}

func TestTranslate_CallTimeoutCountsAsFailure(t *testing.T) {
	primary := &countingProvider{name: "hang", fn: func(int, provider.Request) (string, error) {
		time.Sleep(200 * time.Millisecond)
		return lsAnswer, nil
	}}
	cfg := testConfig(primary)
	cfg.CallTimeout = 20 * time.Millisecond
	cfg.Retry.MaxAttempts = 1
	o := newTestOrchestrator(t, cfg)

	res := o.Translate(context.Background(), "list files", tc)

	if res.Outcome != OutcomeDegraded {
		t.Fatalf("Outcome = %s, want degraded", res.Outcome)
	}
	if !errors.Is(res.Err, resilience.ErrTimeout) {
		t.Errorf("Err = %v, want ErrTimeout", res.Err)
	}
	if o.Breaker().Metrics().Failures != 1 {
		t.Errorf("breaker failures = %d, want 1", o.Breaker().Metrics().Failures)
	}
}

func TestTranslate_Span(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	cfg := testConfig(answer(lsAnswer))
	cfg.Tracer = observe.NewTracer(tp.Tracer("test"))
	o := newTestOrchestrator(t, cfg)

	o.Translate(context.Background(), "list files", tc)

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name() != "gptshell.translate" {
		t.Errorf("span name = %q", spans[0].Name())
	}
	var outcome string
	for _, kv := range spans[0].Attributes() {
		if kv.Key == "outcome" {
			outcome = kv.Value.AsString()
		}
	}
	if outcome != string(OutcomePrimary) {
		t.Errorf("outcome attribute = %q, want primary", outcome)
	}
}

func TestTranslate_Concurrent(t *testing.T) {
	primary := answer(lsAnswer)
	cfg := testConfig(primary)
	cfg.Cache = cache.NewLRU(cache.LRUConfig{Capacity: 100})
	o := newTestOrchestrator(t, cfg)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				res := o.Translate(ctx, "list files", tc)
				if res.Outcome != OutcomePrimary && res.Outcome != OutcomeCache {
					t.Errorf("Outcome = %s", res.Outcome)
				}
			}
		}()
	}
	wg.Wait()
}

func TestResult_OK(t *testing.T) {
	tests := []struct {
		name string
		res  Result
		want bool
	}{
		{"primary", Result{Outcome: OutcomePrimary, Translation: &provider.Translation{Command: "ls"}}, true},
		{"empty command", Result{Outcome: OutcomePrimary, Translation: &provider.Translation{}}, false},
		{"degraded", Result{Outcome: OutcomeDegraded, Translation: Degraded()}, false},
		{"rate limited", Result{Outcome: OutcomeRateLimited}, false},
	}
	for _, tt := range tests {
		if got := tt.res.OK(); got != tt.want {
			t.Errorf("%s: OK() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
