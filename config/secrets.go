package config

import (
	"context"
	"fmt"

	"github.com/jonwraymond/gptshell/secret"
)

// Resolver builds the secret resolver described by the secrets section.
func (c Config) Resolver() (*secret.Resolver, error) {
	return secret.NewDefaultRegistry().Resolver(c.Secrets.Strict, c.Secrets.Providers...)
}

type secretField struct {
	name string
	ptr  *string
}

// ResolveSecrets replaces every credential field with its resolved value.
// Auth credentials are only resolved when auth is enabled. The receiver is
// modified only when every field resolves.
func (c *Config) ResolveSecrets(ctx context.Context, r *secret.Resolver) error {
	out := *c
	out.LLM.Fallbacks = append([]FallbackConfig(nil), c.LLM.Fallbacks...)
	out.Auth.APIKeys = append([]APIKeyConfig(nil), c.Auth.APIKeys...)

	fields := []secretField{
		{"llm.api_key", &out.LLM.APIKey},
		{"llm.base_url", &out.LLM.BaseURL},
	}
	for i := range out.LLM.Fallbacks {
		fb := &out.LLM.Fallbacks[i]
		fields = append(fields,
			secretField{fmt.Sprintf("llm.fallbacks[%d].api_key", i), &fb.APIKey},
			secretField{fmt.Sprintf("llm.fallbacks[%d].base_url", i), &fb.BaseURL},
		)
	}
	if out.Auth.Enabled {
		fields = append(fields, secretField{"auth.jwt_secret", &out.Auth.JWTSecret})
		for i := range out.Auth.APIKeys {
			fields = append(fields, secretField{fmt.Sprintf("auth.api_keys[%d].key", i), &out.Auth.APIKeys[i].Key})
		}
	}

	for _, f := range fields {
		if *f.ptr == "" {
			continue
		}
		v, err := r.ResolveValue(ctx, *f.ptr)
		if err != nil {
			return fmt.Errorf("config: resolve %s: %w", f.name, err)
		}
		*f.ptr = v
	}

	*c = out
	return nil
}
