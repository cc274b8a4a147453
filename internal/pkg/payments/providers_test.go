package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notarius-app/notarius/app/models"
)

func TestGetProvider(t *testing.T) {
	stripe, ok := GetProvider("stripe")
	require.True(t, ok)
	assert.Equal(t, models.PaymentProviderStripe, stripe.Name)
	assert.Equal(t, "Stripe-Signature", stripe.SignatureHeader)

	// lookup is case and whitespace tolerant
	_, ok = GetProvider("  Stripe ")
	assert.True(t, ok)

	_, ok = GetProvider("adyen")
	assert.False(t, ok)
}

func TestStripeNormalizeSucceeded(t *testing.T) {
	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"id":"pi_1","amount":2000,"currency":"usd"}}`)

	stripe, _ := GetProvider("stripe")
	eventID, eventType, err := stripe.ParseEnvelope(body)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", eventID)
	assert.Equal(t, "payment_intent.succeeded", eventType)

	normalize := stripe.Normalizers[eventType]
	require.NotNil(t, normalize)
	normalized, err := normalize(body)
	require.NoError(t, err)

	assert.Equal(t, "pi_1", normalized.ExternalID)
	assert.Equal(t, 20.00, normalized.Amount)
	assert.Equal(t, "USD", normalized.Currency)
	assert.Equal(t, models.PaymentStatusCompleted, normalized.TargetStatus)
}

func TestStripeNormalizeFailed(t *testing.T) {
	body := []byte(`{"id":"evt_2","type":"payment_intent.payment_failed","data":{"id":"pi_2","amount":500,"currency":"eur","failure_message":"card_declined","metadata":{"owner_id":"42"}}}`)

	stripe, _ := GetProvider("stripe")
	normalized, err := stripe.Normalizers["payment_intent.payment_failed"](body)
	require.NoError(t, err)

	assert.Equal(t, "pi_2", normalized.ExternalID)
	assert.Equal(t, 5.00, normalized.Amount)
	assert.Equal(t, "EUR", normalized.Currency)
	assert.Equal(t, uint(42), normalized.OwnerID)
	assert.Equal(t, "card_declined", normalized.FailureReason)
	assert.Equal(t, models.PaymentStatusFailed, normalized.TargetStatus)
}

func TestStripeNormalizeMissingPaymentID(t *testing.T) {
	body := []byte(`{"id":"evt_3","type":"payment_intent.succeeded","data":{"amount":100,"currency":"usd"}}`)

	stripe, _ := GetProvider("stripe")
	_, err := stripe.Normalizers["payment_intent.succeeded"](body)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing payment id")
}

func TestStripeSupportedEvents(t *testing.T) {
	stripe, _ := GetProvider("stripe")

	assert.True(t, stripe.SupportsEvent("payment_intent.succeeded"))
	assert.True(t, stripe.SupportsEvent("charge.refunded"))
	assert.False(t, stripe.SupportsEvent("customer.created"))
}

func TestPayPalNormalizeCompleted(t *testing.T) {
	body := []byte(`{"id":"WH-1","event_type":"PAYMENT.CAPTURE.COMPLETED","resource":{"id":"CAP-1","amount":{"value":"19.99","currency_code":"eur"},"custom_id":"7"}}`)

	paypal, ok := GetProvider("paypal")
	require.True(t, ok)

	eventID, eventType, err := paypal.ParseEnvelope(body)
	require.NoError(t, err)
	assert.Equal(t, "WH-1", eventID)
	assert.Equal(t, "PAYMENT.CAPTURE.COMPLETED", eventType)

	normalized, err := paypal.Normalizers[eventType](body)
	require.NoError(t, err)
	assert.Equal(t, "CAP-1", normalized.ExternalID)
	assert.Equal(t, 19.99, normalized.Amount)
	assert.Equal(t, "EUR", normalized.Currency)
	assert.Equal(t, uint(7), normalized.OwnerID)
	assert.Equal(t, models.PaymentStatusCompleted, normalized.TargetStatus)
}

func TestPayPalNormalizeBadAmount(t *testing.T) {
	body := []byte(`{"id":"WH-2","event_type":"PAYMENT.CAPTURE.COMPLETED","resource":{"id":"CAP-2","amount":{"value":"abc","currency_code":"eur"}}}`)

	paypal, _ := GetProvider("paypal")
	_, err := paypal.Normalizers["PAYMENT.CAPTURE.COMPLETED"](body)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed paypal amount")
}

func TestParseEnvelopeMalformed(t *testing.T) {
	stripe, _ := GetProvider("stripe")
	_, _, err := stripe.ParseEnvelope([]byte("not json"))
	assert.Error(t, err)

	paypal, _ := GetProvider("paypal")
	_, _, err = paypal.ParseEnvelope([]byte("{broken"))
	assert.Error(t, err)
}
