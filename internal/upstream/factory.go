package upstream

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Rajchodisetti/marketdata-gateway/internal/config"
	"github.com/Rajchodisetti/marketdata-gateway/internal/observ"
)

// New creates the configured provider. The QUOTES environment variable
// overrides the configured provider name. A missing API key is an error,
// never a switch to mock.
func New(cfg config.Upstream, log zerolog.Logger) (Provider, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if env := os.Getenv("QUOTES"); env != "" {
		name = strings.ToLower(strings.TrimSpace(env))
		observ.Log("provider_override", map[string]any{
			"config_provider": cfg.Provider,
			"env_override":    name,
		})
	}

	switch name {
	case "mock":
		observ.Log("provider_created", map[string]any{
			"type":   "mock",
			"reason": "deterministic testing",
		})
		return NewMock(), nil

	case "", "alphavantage":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("alphavantage provider requires %s to be set", cfg.APIKeyEnv)
		}
		av, err := NewAlphaVantage(AlphaVantageConfig{
			APIKey:         cfg.APIKey,
			BaseURL:        cfg.BaseURL,
			TimeoutSeconds: cfg.TimeoutSeconds,
			Logger:         log,
		})
		if err != nil {
			return nil, err
		}
		observ.Log("provider_created", map[string]any{
			"type":     "alphavantage",
			"base_url": cfg.BaseURL,
		})
		return av, nil

	default:
		return nil, fmt.Errorf("unknown upstream provider %q", name)
	}
}
