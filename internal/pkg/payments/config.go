package payments

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/notarius-app/notarius/internal/pkg/env"
)

// ProviderConfig holds the per-provider secrets and endpoints supplied as
// process configuration. A missing secret for an enabled provider is a
// startup-time error, not a per-request failure.
type ProviderConfig struct {
	Name          string `validate:"required,oneof=stripe paypal"`
	WebhookSecret string `validate:"required"`
	FeedBaseURL   string `validate:"omitempty,url"`
}

// Config is the payment subsystem configuration.
type Config struct {
	Providers []ProviderConfig `validate:"min=1,dive"`
}

// Secret returns the webhook secret for a provider, empty when the provider
// is not configured.
func (c *Config) Secret(provider string) string {
	for _, p := range c.Providers {
		if p.Name == provider {
			return p.WebhookSecret
		}
	}
	return ""
}

// FeedURL returns the transaction feed base URL for a provider.
func (c *Config) FeedURL(provider string) string {
	for _, p := range c.Providers {
		if p.Name == provider {
			return p.FeedBaseURL
		}
	}
	return ""
}

// ProviderNames returns the enabled provider names.
func (c *Config) ProviderNames() []string {
	names := make([]string, 0, len(c.Providers))
	for _, p := range c.Providers {
		names = append(names, p.Name)
	}
	return names
}

// LoadConfigFromEnv builds and validates the provider configuration from
// process environment. PAYMENT_PROVIDERS lists the enabled providers; each
// needs <NAME>_WEBHOOK_SECRET and optionally <NAME>_FEED_URL.
func LoadConfigFromEnv() (*Config, error) {
	enabled := strings.Split(env.GetEnv("PAYMENT_PROVIDERS", "stripe,paypal"), ",")

	cfg := &Config{}
	for _, raw := range enabled {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		prefix := strings.ToUpper(name)
		cfg.Providers = append(cfg.Providers, ProviderConfig{
			Name:          name,
			WebhookSecret: env.GetEnv(prefix+"_WEBHOOK_SECRET", ""),
			FeedBaseURL:   env.GetEnv(prefix+"_FEED_URL", ""),
		})
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid payment provider configuration: %w", err)
	}
	return cfg, nil
}
