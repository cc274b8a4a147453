package payments

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/notarius-app/notarius/app/models"
)

// NormalizeFunc turns a raw provider payload into the provider-agnostic
// payment shape.
type NormalizeFunc func(body []byte) (*NormalizedPayment, error)

// Provider is one entry of the strategy table: signature scheme, envelope
// parsing and per-event-type normalizers. Adding a provider is a pure-data
// change here plus its secret in configuration.
type Provider struct {
	Name string
	// SignatureHeader names the HTTP header carrying the signature.
	SignatureHeader string
	Verify          func(payload []byte, signatureHeader, secret string, now time.Time) error
	// ParseEnvelope extracts the provider event id and event type.
	ParseEnvelope func(body []byte) (eventID, eventType string, err error)
	Normalizers   map[string]NormalizeFunc
}

// SupportsEvent reports whether the provider maps the given event type.
func (p *Provider) SupportsEvent(eventType string) bool {
	_, ok := p.Normalizers[eventType]
	return ok
}

var providerRegistry = map[string]*Provider{
	models.PaymentProviderStripe: {
		Name:            models.PaymentProviderStripe,
		SignatureHeader: "Stripe-Signature",
		Verify:          VerifyStripeSignature,
		ParseEnvelope:   parseStripeEnvelope,
		Normalizers: map[string]NormalizeFunc{
			"payment_intent.succeeded":      normalizeStripe(models.PaymentStatusCompleted),
			"payment_intent.payment_failed": normalizeStripe(models.PaymentStatusFailed),
			"payment_intent.canceled":       normalizeStripe(models.PaymentStatusCancelled),
			"charge.refunded":               normalizeStripe(models.PaymentStatusRefunded),
		},
	},
	models.PaymentProviderPayPal: {
		Name:            models.PaymentProviderPayPal,
		SignatureHeader: "X-PayPal-Signature",
		Verify: func(payload []byte, signatureHeader, secret string, _ time.Time) error {
			return VerifyPayPalSignature(payload, signatureHeader, secret)
		},
		ParseEnvelope: parsePayPalEnvelope,
		Normalizers: map[string]NormalizeFunc{
			"PAYMENT.CAPTURE.COMPLETED": normalizePayPal(models.PaymentStatusCompleted),
			"PAYMENT.CAPTURE.DENIED":    normalizePayPal(models.PaymentStatusFailed),
			"PAYMENT.CAPTURE.REFUNDED":  normalizePayPal(models.PaymentStatusRefunded),
		},
	},
}

// GetProvider looks up a provider strategy by name.
func GetProvider(name string) (*Provider, bool) {
	p, ok := providerRegistry[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// stripeEvent mirrors the subset of the Stripe event envelope we consume.
// Amounts arrive in minor units (cents).
type stripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		ID             string            `json:"id"`
		Amount         int64             `json:"amount"`
		Currency       string            `json:"currency"`
		Description    string            `json:"description"`
		FailureMessage string            `json:"failure_message"`
		Metadata       map[string]string `json:"metadata"`
	} `json:"data"`
}

func parseStripeEnvelope(body []byte) (string, string, error) {
	var ev stripeEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return "", "", fmt.Errorf("malformed stripe payload: %w", err)
	}
	return ev.ID, ev.Type, nil
}

func normalizeStripe(targetStatus string) NormalizeFunc {
	return func(body []byte) (*NormalizedPayment, error) {
		var ev stripeEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return nil, fmt.Errorf("malformed stripe payload: %w", err)
		}
		if ev.Data.ID == "" {
			return nil, fmt.Errorf("stripe payload missing payment id")
		}
		return &NormalizedPayment{
			ExternalID:    ev.Data.ID,
			Amount:        float64(ev.Data.Amount) / 100,
			Currency:      strings.ToUpper(ev.Data.Currency),
			OwnerID:       ownerIDFromString(ev.Data.Metadata["owner_id"]),
			Description:   ev.Data.Description,
			FailureReason: ev.Data.FailureMessage,
			TargetStatus:  targetStatus,
		}, nil
	}
}

// paypalEvent mirrors the subset of the PayPal webhook envelope we consume.
// Amounts arrive as major-unit decimal strings.
type paypalEvent struct {
	ID        string `json:"id"`
	EventType string `json:"event_type"`
	Resource  struct {
		ID     string `json:"id"`
		Amount struct {
			Value        string `json:"value"`
			CurrencyCode string `json:"currency_code"`
		} `json:"amount"`
		CustomID      string `json:"custom_id"`
		Description   string `json:"description"`
		StatusDetails struct {
			Reason string `json:"reason"`
		} `json:"status_details"`
	} `json:"resource"`
}

func parsePayPalEnvelope(body []byte) (string, string, error) {
	var ev paypalEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return "", "", fmt.Errorf("malformed paypal payload: %w", err)
	}
	return ev.ID, ev.EventType, nil
}

func normalizePayPal(targetStatus string) NormalizeFunc {
	return func(body []byte) (*NormalizedPayment, error) {
		var ev paypalEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return nil, fmt.Errorf("malformed paypal payload: %w", err)
		}
		if ev.Resource.ID == "" {
			return nil, fmt.Errorf("paypal payload missing capture id")
		}
		amount, err := strconv.ParseFloat(ev.Resource.Amount.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed paypal amount %q: %w", ev.Resource.Amount.Value, err)
		}
		return &NormalizedPayment{
			ExternalID:    ev.Resource.ID,
			Amount:        amount,
			Currency:      strings.ToUpper(ev.Resource.Amount.CurrencyCode),
			OwnerID:       ownerIDFromString(ev.Resource.CustomID),
			Description:   ev.Resource.Description,
			FailureReason: ev.Resource.StatusDetails.Reason,
			TargetStatus:  targetStatus,
		}, nil
	}
}

func ownerIDFromString(raw string) uint {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if err != nil {
		return 0
	}
	return uint(id)
}
