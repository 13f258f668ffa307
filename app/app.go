package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/gptshell/auth"
	"github.com/jonwraymond/gptshell/cache"
	"github.com/jonwraymond/gptshell/config"
	"github.com/jonwraymond/gptshell/health"
	"github.com/jonwraymond/gptshell/history"
	"github.com/jonwraymond/gptshell/observe"
	"github.com/jonwraymond/gptshell/provider"
	"github.com/jonwraymond/gptshell/resilience"
	"github.com/jonwraymond/gptshell/shell"
	"github.com/jonwraymond/gptshell/taskqueue"
	"github.com/jonwraymond/gptshell/translate"
	"github.com/jonwraymond/gptshell/validate"
)

// Options carries dependencies that do not come from configuration.
type Options struct {
	// Version is reported as the service version.
	Version string

	// LogWriter receives JSON log lines.
	// Default: os.Stderr
	LogWriter io.Writer

	// HTTPClient is used for provider calls.
	// Default: an http.Client without timeout; calls are bounded by
	// llm.timeout.
	HTTPClient *http.Client

	// Runner executes commands.
	// Default: &shell.Executor{}
	Runner shell.Runner

	// Primary and Fallbacks replace the providers built from config.llm.
	Primary   provider.Provider
	Fallbacks []translate.Fallback
}

// App is a running gptshell instance.
type App struct {
	config config.Config

	obs      observe.Observer
	logger   observe.Logger
	metrics  observe.Metrics
	registry *prometheus.Registry

	translator *translate.Orchestrator
	validator  *validate.Validator
	cache      *cache.LRU
	queue      *taskqueue.Queue
	history    *history.Store
	runner     shell.Runner
	health     *health.Aggregator
	monitor    *health.Monitor
	authn      auth.Authenticator

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	loops   *errgroup.Group
}

// New validates cfg and builds every component. Nothing runs until Start.
func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	oc := cfg.ObserveConfig()
	oc.Version = opts.Version
	oc.Metrics.Registerer = registry
	oc.Logging.Writer = opts.LogWriter
	obs, err := observe.NewObserver(ctx, oc)
	if err != nil {
		return nil, fmt.Errorf("app: observer: %w", err)
	}

	a := &App{
		config:   cfg,
		obs:      obs,
		logger:   obs.Logger(),
		metrics:  obs.Metrics(),
		registry: registry,
		runner:   opts.Runner,
	}
	if a.runner == nil {
		a.runner = &shell.Executor{}
	}

	a.validator = validate.New()
	a.cache = cache.NewLRU(cache.LRUConfig{
		Capacity: cfg.Cache.MaxSize,
		Policy:   cachePolicy(cfg.Cache),
		Metrics:  a.metrics,
	})
	a.queue = taskqueue.New(taskqueue.Config{
		Workers:        cfg.Queue.Workers,
		MaxSize:        cfg.Queue.MaxSize,
		EnqueueTimeout: cfg.Queue.EnqueueTimeout,
		Metrics:        a.metrics,
		Logger:         a.logger.With(observe.F("component", "task_queue")),
	})
	a.history = history.New(history.Config{
		MaxEntries: cfg.History.MaxEntries,
		Metrics:    a.metrics,
		Logger:     a.logger.With(observe.F("component", "history")),
	})

	if err := a.buildTranslator(opts); err != nil {
		_ = obs.Shutdown(ctx)
		return nil, err
	}
	a.buildHealth()

	a.authn, err = buildAuthenticator(cfg.Auth)
	if err != nil {
		_ = obs.Shutdown(ctx)
		return nil, err
	}

	a.logger.Info(ctx, "gptshell configured",
		observe.F("model", cfg.LLM.Model),
		observe.F("provider", cfg.LLM.Provider),
		observe.F("fallbacks", len(cfg.LLM.Fallbacks)),
		observe.F("cache_enabled", cfg.Cache.Enabled),
		observe.F("auth_enabled", cfg.Auth.Enabled),
	)
	return a, nil
}

func cachePolicy(c config.CacheConfig) *cache.Policy {
	p := cache.NoCachePolicy()
	if c.Enabled {
		p = cache.Policy{DefaultTTL: c.TTL}
	}
	return &p
}

func (a *App) buildTranslator(opts Options) error {
	cfg := a.config
	primary, fallbacks := opts.Primary, opts.Fallbacks
	if primary == nil {
		var err error
		primary, fallbacks, err = buildProviders(cfg.LLM, opts.HTTPClient)
		if err != nil {
			return err
		}
		if cfg.LLM.APIKey == "" {
			a.logger.Warn(context.Background(), "primary provider has no api key; requests will fall back",
				observe.F("provider", cfg.LLM.Provider))
		}
	}

	t, err := translate.New(translate.Config{
		Primary:     primary,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		CallTimeout: cfg.LLM.Timeout,
		Fallbacks:   fallbacks,
		Validator:   a.validator,
		RateLimit: resilience.RateLimiterConfig{
			Rate:     resilience.PerMinute(cfg.RateLimit.RequestsPerMinute),
			Burst:    cfg.RateLimit.Burst,
			Disabled: !cfg.RateLimit.Enabled,
		},
		Breaker: resilience.CircuitBreakerConfig{
			FailureThreshold: cfg.Breaker.FailureThreshold,
			RecoveryTimeout:  cfg.Breaker.RecoveryTimeout,
			SuccessThreshold: cfg.Breaker.SuccessThreshold,
			Disabled:         !cfg.Breaker.Enabled,
		},
		Retry: resilience.RetryConfig{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay,
			MaxDelay:    cfg.Retry.MaxDelay,
			Multiplier:  cfg.Retry.ExponentialBase,
			Strategy:    resilience.BackoffExponential,
			Jitter:      cfg.Retry.Jitter,
		},
		Cache:    a.cache,
		CacheTTL: cfg.Cache.TTL,
		Metrics:  a.metrics,
		Tracer:   a.obs.Tracer(),
		Logger:   a.logger,
	})
	if err != nil {
		return fmt.Errorf("app: translator: %w", err)
	}
	a.translator = t
	return nil
}

func (a *App) buildHealth() {
	a.health = health.NewAggregator(health.AggregatorConfig{Timeout: a.config.Health.Timeout})
	a.health.Register(health.NewBreakerChecker("primary", a.translator.Breaker()))
	a.health.Register(health.NewCacheChecker(a.cache))
	a.health.Register(health.NewQueueChecker(a.queue))
	a.health.Register(health.NewMemoryChecker(health.MemoryCheckerConfig{}))
	a.health.Register(health.NewCheckerFunc("history", func(context.Context) health.Result {
		return health.Healthy("").WithDetails(map[string]any{
			"size":        a.history.Len(),
			"max_entries": a.config.History.MaxEntries,
		})
	}))

	a.monitor = health.NewMonitor(a.health, health.MonitorConfig{
		Interval: a.config.Health.Interval,
		Metrics:  a.metrics,
		Logger:   a.logger.With(observe.F("component", "health")),
	})
}

func buildAuthenticator(c config.AuthConfig) (auth.Authenticator, error) {
	if !c.Enabled {
		return nil, nil
	}

	var chain auth.Chain
	if len(c.APIKeys) > 0 {
		store := auth.NewMemoryKeyStore()
		for _, k := range c.APIKeys {
			principal := k.Principal
			if principal == "" {
				principal = k.ID
			}
			store.Add(auth.APIKey{
				ID:        k.ID,
				Principal: principal,
				Hash:      auth.HashAPIKey(k.Key),
				Scopes:    k.Scopes,
			})
		}
		chain = append(chain, auth.NewAPIKeyAuthenticator(auth.APIKeyConfig{}, store))
	}
	if c.JWTSecret != "" {
		chain = append(chain, auth.NewJWTAuthenticator(auth.JWTConfig{
			Secret:   []byte(c.JWTSecret),
			Issuer:   c.JWTIssuer,
			Audience: c.JWTAudience,
		}))
	}
	if len(chain) == 0 {
		return nil, errors.New("app: auth enabled without credentials")
	}
	return chain, nil
}

// Start launches the task queue workers and the periodic loops. The loops
// run until Shutdown.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return ErrShutdown
	}
	if a.started {
		return ErrAlreadyStarted
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	if err := a.queue.Start(loopCtx); err != nil {
		cancel()
		return err
	}

	g, gctx := errgroup.WithContext(loopCtx)
	if a.config.Cache.Enabled {
		g.Go(func() error { return a.sweepCache(gctx, a.config.Cache.CleanupInterval) })
	}
	g.Go(func() error { return a.monitor.Run(gctx) })
	g.Go(func() error { return a.history.RunGC(gctx, a.config.History.GCInterval) })

	a.started, a.cancel, a.loops = true, cancel, g
	a.logger.Info(ctx, "gptshell started",
		observe.F("workers", a.config.Queue.Workers),
		observe.F("health_interval", a.config.Health.Interval.String()),
	)
	return nil
}

// sweepCache removes expired entries every interval until ctx is done.
func (a *App) sweepCache(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := a.cache.CleanupExpired(ctx); n > 0 {
				a.logger.Debug(ctx, "cache sweep", observe.F("removed", n))
			}
		}
	}
}

// Shutdown stops admission to the queue, waits for running tasks, stops
// the periodic loops and flushes telemetry, all bounded by ctx. Calls
// after the first return nil.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return nil
	}
	a.stopped = true
	cancel, loops := a.cancel, a.loops
	a.mu.Unlock()

	a.logger.Info(ctx, "gptshell shutting down")

	var errs []error
	if err := a.queue.Stop(ctx); err != nil {
		errs = append(errs, err)
	}

	if cancel != nil {
		cancel()
		done := make(chan error, 1)
		go func() { done <- loops.Wait() }()
		select {
		case err := <-done:
			if err != nil {
				errs = append(errs, err)
			}
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("app: waiting for loops: %w", ctx.Err()))
		}
	}

	if err := a.obs.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("app: observer: %w", err))
	}
	return errors.Join(errs...)
}

// Translate runs input through the translation pipeline.
func (a *App) Translate(ctx context.Context, input string, tc translate.Context) translate.Result {
	return a.translator.Translate(ctx, input, tc)
}

// Health runs every health check now.
func (a *App) Health(ctx context.Context) health.Report {
	return a.health.Run(ctx)
}

// History returns up to n recent entries, oldest first.
func (a *App) History(n int) []history.Entry {
	return a.history.Recent(n)
}

// Config returns the configuration the App was built from.
func (a *App) Config() config.Config { return a.config }

// Logger returns the application logger.
func (a *App) Logger() observe.Logger { return a.logger }
