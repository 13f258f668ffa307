package app

import (
	"fmt"
	"net/http"

	"github.com/jonwraymond/gptshell/config"
	"github.com/jonwraymond/gptshell/provider"
	"github.com/jonwraymond/gptshell/translate"
)

func newProvider(kind, apiKey, baseURL string, client *http.Client) (provider.Provider, error) {
	switch kind {
	case config.ProviderOpenAI:
		return provider.NewOpenAI(apiKey, client, baseURL), nil
	case config.ProviderGemini:
		return provider.NewGemini(apiKey, client, baseURL), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownProvider, kind)
	}
}

// buildProviders creates the primary and the fallback chain. A fallback
// with the primary's provider kind inherits its key and base URL when its
// own are empty.
func buildProviders(c config.LLMConfig, client *http.Client) (provider.Provider, []translate.Fallback, error) {
	primary, err := newProvider(c.Provider, c.APIKey, c.BaseURL, client)
	if err != nil {
		return nil, nil, err
	}

	fallbacks := make([]translate.Fallback, 0, len(c.Fallbacks))
	for _, fc := range c.Fallbacks {
		key, base := fc.APIKey, fc.BaseURL
		if fc.Provider == c.Provider {
			if key == "" {
				key = c.APIKey
			}
			if base == "" {
				base = c.BaseURL
			}
		}
		p, err := newProvider(fc.Provider, key, base, client)
		if err != nil {
			return nil, nil, err
		}
		fallbacks = append(fallbacks, translate.Fallback{
			Name:     fc.Provider + ":" + fc.Model,
			Model:    fc.Model,
			Provider: p,
		})
	}
	return primary, fallbacks, nil
}
