package translate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jonwraymond/gptshell/cache"
	"github.com/jonwraymond/gptshell/observe"
	"github.com/jonwraymond/gptshell/provider"
	"github.com/jonwraymond/gptshell/resilience"
	"github.com/jonwraymond/gptshell/validate"
)

// Metric names emitted by Orchestrator.
const (
	MetricRequests       = "translate.requests"
	MetricLatency        = "translate.latency_ms"
	MetricFallbackFailed = "translate.fallback_failed"
	MetricBreakerState   = "circuit_breaker.state"
	MetricRetryAttempt   = "retry.attempt"
	MetricRetrySuccess   = "retry.success"
	MetricRetryExhausted = "retry.exhausted"

	cacheNamespace = "translate"
)

// MetricOutcome returns the counter name for o.
func MetricOutcome(o Outcome) string {
	return "translate." + string(o)
}

// Fallback is one entry of the ordered fallback chain.
type Fallback struct {
	// Name identifies the fallback in results and logs.
	Name string

	// Model is sent with the request.
	Model string

	Provider provider.Provider
}

// Config configures an Orchestrator.
type Config struct {
	// Primary is the provider tried first. Required.
	Primary provider.Provider

	// Model is the primary model name.
	Model string

	// System overrides the system prompt.
	// Default: provider.SystemPrompt
	System string

	// MaxTokens bounds the completion.
	// Default: 500
	MaxTokens int

	// Temperature is sent as-is; zero is a valid temperature.
	Temperature float64

	// CallTimeout bounds each provider call.
	// Default: 10s
	CallTimeout time.Duration

	// Fallbacks are tried in order when the primary fails or the breaker
	// is open.
	Fallbacks []Fallback

	// Validator screens input. Nil disables validation.
	Validator *validate.Validator

	// RateLimit configures the token bucket.
	RateLimit resilience.RateLimiterConfig

	// Breaker configures the circuit breaker around the primary.
	Breaker resilience.CircuitBreakerConfig

	// Retry configures attempts at the primary. Hooks set here run after
	// the orchestrator's own. RetryIf defaults to provider.IsRetryable.
	Retry resilience.RetryConfig

	// Cache stores primary translations. Nil disables caching.
	Cache cache.Cache

	// CacheTTL is the TTL for cached translations.
	// Default: the cache's own default
	CacheTTL time.Duration

	Metrics observe.Metrics
	Tracer  observe.Tracer
	Logger  observe.Logger
}

// Orchestrator owns the resilience state for one primary provider.
// Safe for concurrent use.
type Orchestrator struct {
	config Config

	limiter *resilience.RateLimiter
	breaker *resilience.CircuitBreaker
	retry   *resilience.Retry
	timeout *resilience.Timeout
	cache   *cache.Typed[provider.Translation]
	keyer   cache.Keyer

	metrics observe.Metrics
	tracer  observe.Tracer
	logger  observe.Logger
}

// New creates an Orchestrator.
func New(config Config) (*Orchestrator, error) {
	if config.Primary == nil {
		return nil, ErrNoPrimary
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 500
	}
	if config.CallTimeout <= 0 {
		config.CallTimeout = 10 * time.Second
	}
	if config.System == "" {
		config.System = provider.SystemPrompt
	}
	if config.Metrics == nil {
		config.Metrics = observe.NoopMetrics()
	}
	if config.Tracer == nil {
		config.Tracer = observe.NoopTracer()
	}
	if config.Logger == nil {
		config.Logger = observe.NopLogger()
	}
	for i, fb := range config.Fallbacks {
		if fb.Provider == nil {
			return nil, fmt.Errorf("translate: fallback %d (%s) has no provider", i, fb.Name)
		}
	}

	o := &Orchestrator{
		config:  config,
		metrics: config.Metrics,
		tracer:  config.Tracer,
		logger:  config.Logger.With(observe.F("component", "translate")),
		keyer:   cache.NewFingerprintKeyer(),
		timeout: resilience.NewTimeout(resilience.TimeoutConfig{Timeout: config.CallTimeout}),
		limiter: resilience.NewRateLimiter(config.RateLimit),
	}

	breakerCfg := config.Breaker
	userOnChange := breakerCfg.OnStateChange
	breakerCfg.OnStateChange = func(from, to resilience.State) {
		o.onBreakerChange(from, to)
		if userOnChange != nil {
			userOnChange(from, to)
		}
	}
	o.breaker = resilience.NewCircuitBreaker(breakerCfg)
	o.metrics.SetGauge(context.Background(), MetricBreakerState, o.breaker.State().Gauge())

	o.retry = resilience.NewRetry(o.retryConfig(config.Retry))

	if config.Cache != nil {
		o.cache = cache.NewTyped[provider.Translation](config.Cache)
	}
	return o, nil
}

func (o *Orchestrator) retryConfig(rc resilience.RetryConfig) resilience.RetryConfig {
	if rc.RetryIf == nil {
		rc.RetryIf = provider.IsRetryable
	}
	onRetry, onRecovered, onExhausted := rc.OnRetry, rc.OnRecovered, rc.OnExhausted
	ctx := context.Background()

	rc.OnRetry = func(attempt int, err error, delay time.Duration) {
		o.metrics.Increment(ctx, MetricRetryAttempt, 1)
		o.logger.Warn(ctx, "retrying primary",
			observe.F("attempt", attempt),
			observe.F("delay_ms", delay.Milliseconds()),
			observe.Err(err),
		)
		if onRetry != nil {
			onRetry(attempt, err, delay)
		}
	}
	rc.OnRecovered = func(attempt int) {
		o.metrics.Increment(ctx, MetricRetrySuccess, 1)
		o.logger.Info(ctx, "retry succeeded", observe.F("attempt", attempt))
		if onRecovered != nil {
			onRecovered(attempt)
		}
	}
	rc.OnExhausted = func(attempts int, err error) {
		o.metrics.Increment(ctx, MetricRetryExhausted, 1)
		o.logger.Error(ctx, "retry exhausted",
			observe.F("attempts", attempts),
			observe.Err(err),
		)
		if onExhausted != nil {
			onExhausted(attempts, err)
		}
	}
	return rc
}

// onBreakerChange runs with the breaker's lock held.
func (o *Orchestrator) onBreakerChange(from, to resilience.State) {
	ctx := context.Background()
	o.metrics.SetGauge(ctx, MetricBreakerState, to.Gauge())
	o.logger.Warn(ctx, "circuit breaker state changed",
		observe.F("from", from.String()),
		observe.F("to", to.String()),
	)
}

// Breaker returns the circuit breaker guarding the primary.
func (o *Orchestrator) Breaker() *resilience.CircuitBreaker { return o.breaker }

// Limiter returns the request rate limiter.
func (o *Orchestrator) Limiter() *resilience.RateLimiter { return o.limiter }

// Fingerprint returns the cache key for input in tc.
func (o *Orchestrator) Fingerprint(input string, tc Context) (string, error) {
	return o.keyer.Key(cacheNamespace, map[string]any{
		"input": cache.NormalizeInput(input),
		"context": map[string]any{
			"cwd": tc.WorkingDir,
			"os":  tc.OS,
		},
	})
}

// Translate runs input through the pipeline. It never fails: when no
// provider answers the Result is OutcomeDegraded.
func (o *Orchestrator) Translate(ctx context.Context, input string, tc Context) Result {
	start := time.Now()
	ctx, span := o.tracer.StartSpan(ctx, "translate")

	res := o.translate(ctx, input, tc)
	res.Latency = time.Since(start)

	o.metrics.Observe(ctx, MetricLatency, float64(res.Latency.Microseconds())/1000)
	o.metrics.Increment(ctx, MetricRequests, 1)
	o.metrics.Increment(ctx, MetricOutcome(res.Outcome), 1)

	span.SetAttributes(
		attribute.String("outcome", string(res.Outcome)),
		attribute.String("provider", res.Provider),
	)
	var spanErr error
	if res.Outcome == OutcomeDegraded {
		spanErr = res.Err
	}
	o.tracer.EndSpan(span, spanErr)

	o.log(ctx, input, res)
	return res
}

func (o *Orchestrator) log(ctx context.Context, input string, res Result) {
	fields := []observe.Field{
		observe.F("outcome", string(res.Outcome)),
		observe.F("latency_ms", res.Latency.Milliseconds()),
	}
	if res.Provider != "" {
		fields = append(fields, observe.F("provider", res.Provider))
	}

	switch res.Outcome {
	case OutcomeDegraded:
		o.logger.Error(ctx, "translation degraded", append(fields, observe.Err(res.Err))...)
	case OutcomeRateLimited:
		o.logger.Warn(ctx, "translation rate limited", append(fields, observe.F("input", input))...)
	case OutcomeRejected:
		o.logger.Warn(ctx, "translation rejected", append(fields,
			observe.F("reason", res.Rejection.Reason),
			observe.F("risk", string(res.Rejection.Risk)),
		)...)
	default:
		o.logger.Info(ctx, "translation served", fields...)
	}
}

func (o *Orchestrator) translate(ctx context.Context, input string, tc Context) Result {
	text := input
	if o.config.Validator != nil {
		clean, rej := o.config.Validator.Validate(input)
		if rej != nil {
			return Result{Outcome: OutcomeRejected, Rejection: rej, Err: rej}
		}
		text = clean
	}

	if !o.limiter.Allow() {
		return Result{Outcome: OutcomeRateLimited, Err: resilience.ErrRateLimitExceeded}
	}

	key, err := o.Fingerprint(text, tc)
	if err != nil {
		o.logger.Warn(ctx, "fingerprint failed; skipping cache", observe.Err(err))
		key = ""
	}
	if o.cache != nil && key != "" {
		if t, ok := o.cache.Lookup(ctx, key); ok {
			return Result{Translation: &t, Outcome: OutcomeCache, Fingerprint: key}
		}
	}

	var primaryErr error
	if o.breaker.Allow() {
		t, err := o.callPrimary(ctx, text, tc)
		if err == nil {
			o.breaker.RecordSuccess()
			if o.cache != nil && key != "" {
				if err := o.cache.Store(ctx, key, *t, o.config.CacheTTL); err != nil {
					o.logger.Warn(ctx, "cache store failed", observe.Err(err))
				}
			}
			return Result{
				Translation: t,
				Outcome:     OutcomePrimary,
				Provider:    o.config.Primary.Name(),
				Fingerprint: key,
			}
		}
		if ctx.Err() != nil {
			return o.degraded(key, ctx.Err())
		}
		o.breaker.RecordFailure()
		primaryErr = err
	} else {
		primaryErr = resilience.ErrCircuitOpen
	}

	return o.fallback(ctx, text, tc, key, primaryErr)
}

func (o *Orchestrator) request(model, text string, tc Context) provider.Request {
	return provider.Request{
		Model:       model,
		System:      o.config.System,
		Context:     tc,
		Text:        text,
		MaxTokens:   o.config.MaxTokens,
		Temperature: o.config.Temperature,
	}
}

func (o *Orchestrator) callPrimary(ctx context.Context, text string, tc Context) (*provider.Translation, error) {
	req := o.request(o.config.Model, text, tc)
	return resilience.Do(ctx, o.retry, func(ctx context.Context) (*provider.Translation, error) {
		return o.call(ctx, o.config.Primary, req)
	})
}

// call makes one timed provider call and parses the answer. Text without
// a translation counts as a failed call.
func (o *Orchestrator) call(ctx context.Context, p provider.Provider, req provider.Request) (*provider.Translation, error) {
	raw, err := resilience.ExecuteValue(ctx, o.timeout, func(ctx context.Context) (string, error) {
		return p.Complete(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	t, ok := provider.ParseTranslation(raw)
	if !ok {
		return nil, provider.ErrNoResult
	}
	return t, nil
}

func (o *Orchestrator) fallback(ctx context.Context, text string, tc Context, key string, cause error) Result {
	if len(o.config.Fallbacks) > 0 {
		o.logger.Info(ctx, "using fallback chain", observe.Err(cause))
	}

	errs := []error{cause}
	for _, fb := range o.config.Fallbacks {
		if ctx.Err() != nil {
			return o.degraded(key, ctx.Err())
		}

		t, err := o.call(ctx, fb.Provider, o.request(fb.Model, text, tc))
		if err == nil {
			return Result{
				Translation: t,
				Outcome:     OutcomeFallback,
				Provider:    fb.Name,
				Fingerprint: key,
			}
		}

		errs = append(errs, fmt.Errorf("%s: %w", fb.Name, err))
		o.metrics.Increment(ctx, MetricFallbackFailed, 1)
		o.logger.Warn(ctx, "fallback failed",
			observe.F("fallback", fb.Name),
			observe.F("model", fb.Model),
			observe.Err(err),
		)
	}

	if ctx.Err() != nil {
		return o.degraded(key, ctx.Err())
	}
	return o.degraded(key, fmt.Errorf("%w: %w", ErrAllProvidersFailed, errors.Join(errs...)))
}

func (o *Orchestrator) degraded(key string, err error) Result {
	return Result{
		Translation: Degraded(),
		Outcome:     OutcomeDegraded,
		Fingerprint: key,
		Err:         err,
	}
}
