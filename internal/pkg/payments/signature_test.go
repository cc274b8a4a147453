package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test_secret"

func stripeSign(t *testing.T, payload []byte, secret string, ts time.Time) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts.Unix())
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func paypalSign(t *testing.T, payload []byte, secret string) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyStripeSignatureValid(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)

	header := stripeSign(t, payload, testSecret, now)
	assert.NoError(t, VerifyStripeSignature(payload, header, testSecret, now))
}

func TestVerifyStripeSignatureMissing(t *testing.T) {
	err := VerifyStripeSignature([]byte("{}"), "", testSecret, time.Now())
	assert.ErrorIs(t, err, ErrMissingSignature)
}

func TestVerifyStripeSignatureWrongSecret(t *testing.T) {
	now := time.Now()
	payload := []byte(`{"id":"evt_1"}`)

	header := stripeSign(t, payload, "other_secret", now)
	err := VerifyStripeSignature(payload, header, testSecret, now)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyStripeSignatureTamperedPayload(t *testing.T) {
	now := time.Now()
	header := stripeSign(t, []byte(`{"amount":2000}`), testSecret, now)

	err := VerifyStripeSignature([]byte(`{"amount":9999}`), header, testSecret, now)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyStripeSignatureReplayWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	payload := []byte(`{"id":"evt_1"}`)

	tests := []struct {
		name     string
		signedAt time.Time
		valid    bool
	}{
		{"just inside tolerance", now.Add(-StripeSignatureTolerance + time.Second), true},
		{"just past tolerance", now.Add(-StripeSignatureTolerance - time.Second), false},
		{"far in the past", now.Add(-time.Hour), false},
		{"slightly in the future", now.Add(time.Minute), true},
		{"far in the future", now.Add(time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := stripeSign(t, payload, testSecret, tt.signedAt)
			err := VerifyStripeSignature(payload, header, testSecret, now)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidSignature)
			}
		})
	}
}

func TestVerifyStripeSignatureMalformedHeader(t *testing.T) {
	now := time.Now()
	payload := []byte("{}")

	for _, header := range []string{
		"v1=deadbeef",
		"t=notanumber,v1=deadbeef",
		fmt.Sprintf("t=%d", now.Unix()),
		"garbage",
	} {
		err := VerifyStripeSignature(payload, header, testSecret, now)
		assert.ErrorIs(t, err, ErrInvalidSignature, "header %q", header)
	}
}

func TestVerifyStripeSignatureMultipleCandidates(t *testing.T) {
	now := time.Now()
	payload := []byte(`{"id":"evt_1"}`)

	// header carries a stale v1 plus the valid one, as sent during secret
	// rotation
	mac := hmac.New(sha256.New, []byte(testSecret))
	fmt.Fprintf(mac, "%d.", now.Unix())
	mac.Write(payload)
	header := fmt.Sprintf("t=%d,v1=00ff00ff,v1=%s", now.Unix(), hex.EncodeToString(mac.Sum(nil)))
	assert.NoError(t, VerifyStripeSignature(payload, header, testSecret, now))
}

func TestVerifyPayPalSignature(t *testing.T) {
	payload := []byte(`{"id":"WH-1","event_type":"PAYMENT.CAPTURE.COMPLETED"}`)

	require.NoError(t, VerifyPayPalSignature(payload, paypalSign(t, payload, testSecret), testSecret))

	err := VerifyPayPalSignature(payload, "", testSecret)
	assert.ErrorIs(t, err, ErrMissingSignature)

	err = VerifyPayPalSignature(payload, paypalSign(t, payload, "wrong"), testSecret)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	err = VerifyPayPalSignature(payload, "not-hex!", testSecret)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}
