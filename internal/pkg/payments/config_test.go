package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notarius-app/notarius/app/models"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PAYMENT_PROVIDERS", "stripe,paypal")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_abc")
	t.Setenv("STRIPE_FEED_URL", "https://reports.stripe.example")
	t.Setenv("PAYPAL_WEBHOOK_SECRET", "pp_secret")

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, []string{"stripe", "paypal"}, cfg.ProviderNames())
	assert.Equal(t, "whsec_abc", cfg.Secret(models.PaymentProviderStripe))
	assert.Equal(t, "https://reports.stripe.example", cfg.FeedURL(models.PaymentProviderStripe))
	assert.Equal(t, "pp_secret", cfg.Secret(models.PaymentProviderPayPal))
	assert.Empty(t, cfg.FeedURL(models.PaymentProviderPayPal))
	assert.Empty(t, cfg.Secret("adyen"))
}

func TestLoadConfigFromEnvSingleProvider(t *testing.T) {
	t.Setenv("PAYMENT_PROVIDERS", "stripe")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_abc")

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"stripe"}, cfg.ProviderNames())
}

func TestLoadConfigFromEnvMissingSecret(t *testing.T) {
	t.Setenv("PAYMENT_PROVIDERS", "stripe")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")

	_, err := LoadConfigFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid payment provider configuration")
}

func TestLoadConfigFromEnvUnknownProvider(t *testing.T) {
	t.Setenv("PAYMENT_PROVIDERS", "adyen")
	t.Setenv("ADYEN_WEBHOOK_SECRET", "secret")

	_, err := LoadConfigFromEnv()
	assert.Error(t, err)
}
