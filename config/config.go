package config

import (
	"time"

	"github.com/jonwraymond/gptshell/secret"
)

// Providers understood by the llm and fallback sections.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config is the complete gptshell configuration.
type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Cache     CacheConfig     `yaml:"cache"`
	Breaker   BreakerConfig   `yaml:"circuit_breaker"`
	Retry     RetryConfig     `yaml:"retry"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Queue     QueueConfig     `yaml:"task_queue"`
	History   HistoryConfig   `yaml:"history"`
	Shell     ShellConfig     `yaml:"shell"`
	Health    HealthConfig    `yaml:"health"`
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Observe   ObserveConfig   `yaml:"observability"`
	Secrets   SecretsConfig   `yaml:"secrets"`
}

// LLMConfig configures the primary model and its fallbacks.
type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`

	// Fallbacks are tried in order once the primary gives up.
	Fallbacks []FallbackConfig `yaml:"fallbacks"`
}

// FallbackConfig is one fallback model. An empty APIKey or BaseURL on an
// entry with the primary's provider inherits the primary's value.
type FallbackConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
}

type CacheConfig struct {
	Enabled         bool          `yaml:"enabled"`
	MaxSize         int           `yaml:"max_size"`
	TTL             time.Duration `yaml:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

type BreakerConfig struct {
	Enabled          bool          `yaml:"enabled"`
	FailureThreshold int           `yaml:"failure_threshold"`
	RecoveryTimeout  time.Duration `yaml:"recovery_timeout"`
	SuccessThreshold int           `yaml:"success_threshold"`
}

type RetryConfig struct {
	MaxAttempts     int           `yaml:"max_attempts"`
	BaseDelay       time.Duration `yaml:"base_delay"`
	MaxDelay        time.Duration `yaml:"max_delay"`
	ExponentialBase float64       `yaml:"exponential_base"`
	Jitter          bool          `yaml:"jitter"`
}

type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	Burst             int  `yaml:"burst"`
}

type QueueConfig struct {
	Workers        int           `yaml:"workers"`
	MaxSize        int           `yaml:"max_size"`
	EnqueueTimeout time.Duration `yaml:"enqueue_timeout"`
}

type HistoryConfig struct {
	MaxEntries int           `yaml:"max_entries"`
	GCInterval time.Duration `yaml:"gc_interval"`
}

type ShellConfig struct {
	Timeout        time.Duration `yaml:"timeout"`
	MaxOutputLines int           `yaml:"max_output_lines"`

	// ConfirmDangerous asks before running commands that match
	// shell.DangerousFragments even when the caller pre-approved execution.
	ConfirmDangerous bool `yaml:"confirm_dangerous"`
}

type HealthConfig struct {
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
}

type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownGrace     time.Duration `yaml:"shutdown_grace"`
}

// AuthConfig protects the HTTP API. Keys and the JWT secret may be
// secretref: references.
type AuthConfig struct {
	Enabled     bool           `yaml:"enabled"`
	APIKeys     []APIKeyConfig `yaml:"api_keys"`
	JWTSecret   string         `yaml:"jwt_secret"`
	JWTIssuer   string         `yaml:"jwt_issuer"`
	JWTAudience string         `yaml:"jwt_audience"`
}

type APIKeyConfig struct {
	ID        string   `yaml:"id"`
	Principal string   `yaml:"principal"`
	Key       string   `yaml:"key"`
	Scopes    []string `yaml:"scopes"`
}

type ObserveConfig struct {
	ServiceName     string  `yaml:"service_name"`
	LogLevel        string  `yaml:"log_level"`
	TracingExporter string  `yaml:"tracing_exporter"`
	SamplePct       float64 `yaml:"sample_pct"`
	MetricsExporter string  `yaml:"metrics_exporter"`
}

type SecretsConfig struct {
	// Strict rejects references that resolve to "".
	Strict    bool                  `yaml:"strict"`
	Providers []secret.ProviderSpec `yaml:"providers"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LLM: LLMConfig{
			Provider:    ProviderOpenAI,
			Model:       "gpt-4.1-mini",
			APIKey:      "$OPENAI_API_KEY",
			Timeout:     10 * time.Second,
			MaxTokens:   500,
			Temperature: 0.3,
			Fallbacks: []FallbackConfig{
				{Provider: ProviderOpenAI, Model: "gpt-4.1-nano"},
				{Provider: ProviderGemini, Model: "gemini-2.5-flash", APIKey: "$GEMINI_API_KEY"},
			},
		},
		Cache: CacheConfig{
			Enabled:         true,
			MaxSize:         1000,
			TTL:             time.Hour,
			CleanupInterval: 5 * time.Minute,
		},
		Breaker: BreakerConfig{
			Enabled:          true,
			FailureThreshold: 5,
			RecoveryTimeout:  60 * time.Second,
			SuccessThreshold: 2,
		},
		Retry: RetryConfig{
			MaxAttempts:     3,
			BaseDelay:       time.Second,
			MaxDelay:        10 * time.Second,
			ExponentialBase: 2,
			Jitter:          true,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 60,
			Burst:             10,
		},
		Queue: QueueConfig{
			Workers:        4,
			MaxSize:        100,
			EnqueueTimeout: time.Second,
		},
		History: HistoryConfig{
			MaxEntries: 1000,
			GCInterval: 5 * time.Minute,
		},
		Shell: ShellConfig{
			Timeout:          30 * time.Second,
			MaxOutputLines:   1000,
			ConfirmDangerous: true,
		},
		Health: HealthConfig{
			Interval: 30 * time.Second,
			Timeout:  10 * time.Second,
		},
		Server: ServerConfig{
			Addr:              "127.0.0.1:8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownGrace:     10 * time.Second,
		},
		Observe: ObserveConfig{
			ServiceName:     "gptshell",
			LogLevel:        "info",
			TracingExporter: "none",
			SamplePct:       1,
			MetricsExporter: "prometheus",
		},
		Secrets: SecretsConfig{Strict: true},
	}
}
