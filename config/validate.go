package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jonwraymond/gptshell/observe"
)

var validProviders = []string{ProviderOpenAI, ProviderGemini}

// Validate reports every invalid setting, joined.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if !slices.Contains(validProviders, c.LLM.Provider) {
		errs = append(errs, fmt.Errorf("%w: llm.provider %q", ErrUnknownProvider, c.LLM.Provider))
	}
	if c.LLM.Model == "" {
		bad("llm.model is required")
	}
	if c.LLM.Timeout <= 0 {
		bad("llm.timeout must be positive")
	}
	if c.LLM.MaxTokens <= 0 {
		bad("llm.max_tokens must be positive")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		bad("llm.temperature must be within [0, 2]")
	}
	for i, fb := range c.LLM.Fallbacks {
		if !slices.Contains(validProviders, fb.Provider) {
			errs = append(errs, fmt.Errorf("%w: llm.fallbacks[%d].provider %q", ErrUnknownProvider, i, fb.Provider))
		}
		if fb.Model == "" {
			bad("llm.fallbacks[%d].model is required", i)
		}
	}

	if c.Cache.Enabled {
		if c.Cache.MaxSize <= 0 {
			bad("cache.max_size must be positive")
		}
		if c.Cache.TTL <= 0 {
			bad("cache.ttl must be positive")
		}
	}
	if c.Breaker.Enabled {
		if c.Breaker.FailureThreshold <= 0 || c.Breaker.SuccessThreshold <= 0 {
			bad("circuit_breaker thresholds must be positive")
		}
		if c.Breaker.RecoveryTimeout <= 0 {
			bad("circuit_breaker.recovery_timeout must be positive")
		}
	}
	if c.Retry.MaxAttempts < 1 {
		bad("retry.max_attempts must be at least 1")
	}
	if c.Retry.BaseDelay < 0 || c.Retry.MaxDelay < c.Retry.BaseDelay {
		bad("retry delays must satisfy 0 <= base_delay <= max_delay")
	}
	if c.Retry.ExponentialBase < 1 {
		bad("retry.exponential_base must be at least 1")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerMinute <= 0 || c.RateLimit.Burst <= 0) {
		bad("rate_limit requests_per_minute and burst must be positive")
	}
	if c.Queue.Workers <= 0 || c.Queue.MaxSize <= 0 {
		bad("task_queue workers and max_size must be positive")
	}
	if c.History.MaxEntries <= 0 {
		bad("history.max_entries must be positive")
	}
	if c.Shell.Timeout <= 0 {
		bad("shell.timeout must be positive")
	}
	if c.Shell.MaxOutputLines <= 0 {
		bad("shell.max_output_lines must be positive")
	}
	if c.Server.Addr == "" {
		bad("server.addr is required")
	}

	if c.Auth.Enabled {
		if len(c.Auth.APIKeys) == 0 && c.Auth.JWTSecret == "" {
			bad("auth is enabled but neither api_keys nor jwt_secret is set")
		}
		ids := make(map[string]bool, len(c.Auth.APIKeys))
		for i, k := range c.Auth.APIKeys {
			if k.ID == "" || k.Key == "" {
				bad("auth.api_keys[%d] needs id and key", i)
			}
			if ids[k.ID] {
				bad("auth.api_keys[%d] duplicate id %q", i, k.ID)
			}
			ids[k.ID] = true
		}
	}

	oc := c.ObserveConfig()
	if err := oc.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// ObserveConfig maps the observability section onto observe.Config.
func (c Config) ObserveConfig() observe.Config {
	return observe.Config{
		ServiceName: c.Observe.ServiceName,
		Tracing: observe.TracingConfig{
			Enabled:   c.Observe.TracingExporter != "" && c.Observe.TracingExporter != "none",
			Exporter:  c.Observe.TracingExporter,
			SamplePct: c.Observe.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  c.Observe.MetricsExporter != "" && c.Observe.MetricsExporter != "none",
			Exporter: c.Observe.MetricsExporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   strings.ToLower(c.Observe.LogLevel),
		},
	}
}
