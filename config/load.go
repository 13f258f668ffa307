package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Environment variables read by ApplyEnv.
const (
	EnvModel        = "GPTOS_LLM_MODEL"
	EnvLogLevel     = "GPTOS_LOG_LEVEL"
	EnvCacheEnabled = "GPTOS_CACHE_ENABLED"
	EnvBaseURL      = "GPTOS_LLM_BASE_URL"
	EnvListenAddr   = "GPTOS_LISTEN_ADDR"
)

// Load reads the YAML file at path over Default, applies the environment
// and validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := cfg.decode(b); err != nil {
			return Config{}, fmt.Errorf("config: unmarshal %q: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// decode overlays YAML onto c. Unknown keys are rejected.
func (c *Config) decode(b []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides fields from GPTOS_* variables that are set and
// non-empty.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvModel); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Observe.LogLevel = v
	}
	if v := os.Getenv(EnvCacheEnabled); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %w", ErrInvalid, EnvCacheEnabled, v, err)
		}
		c.Cache.Enabled = b
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv(EnvListenAddr); v != "" {
		c.Server.Addr = v
	}
	return nil
}

// Marshal renders c as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
