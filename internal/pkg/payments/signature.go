package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

// Signature errors are rejected synchronously at the HTTP boundary; the
// audit row is the only trace they leave.
var (
	ErrMissingSignature      = errors.New("missing signature")
	ErrInvalidSignature      = errors.New("invalid signature")
	ErrProviderNotConfigured = errors.New("provider not configured")
)

// StripeSignatureTolerance bounds the replay window of a signed timestamp.
const StripeSignatureTolerance = 5 * time.Minute

// VerifyStripeSignature checks a Stripe-Signature header of the form
// "t=<unix>,v1=<hex>" where v1 is HMAC-SHA256(secret, "<t>.<payload>").
// Signatures older than the tolerance are rejected to bound replays.
func VerifyStripeSignature(payload []byte, signatureHeader, secret string, now time.Time) error {
	header := strings.TrimSpace(signatureHeader)
	if header == "" {
		return ErrMissingSignature
	}

	var timestamp int64
	var candidates []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return ErrInvalidSignature
			}
			timestamp = ts
		case "v1":
			candidates = append(candidates, kv[1])
		}
	}
	if timestamp == 0 || len(candidates) == 0 {
		return ErrInvalidSignature
	}

	age := now.Sub(time.Unix(timestamp, 0))
	if age > StripeSignatureTolerance || age < -StripeSignatureTolerance {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, candidate := range candidates {
		decoded, err := hex.DecodeString(strings.ToLower(candidate))
		if err != nil {
			continue
		}
		if hmac.Equal(expected, decoded) {
			return nil
		}
	}
	return ErrInvalidSignature
}

// VerifyPayPalSignature checks a hex-encoded HMAC-SHA256 of the raw payload.
func VerifyPayPalSignature(payload []byte, signatureHeader, secret string) error {
	sig := strings.TrimSpace(signatureHeader)
	if sig == "" {
		return ErrMissingSignature
	}

	decoded, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	if !hmac.Equal(mac.Sum(nil), decoded) {
		return ErrInvalidSignature
	}
	return nil
}
