package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/notarius-app/notarius/app/repository"
	"github.com/notarius-app/notarius/internal/pkg/cache"
	"github.com/notarius-app/notarius/internal/pkg/payments"
	"github.com/notarius-app/notarius/internal/pkg/reconcile"
)

var (
	paymentConfig *payments.Config
	providerFeed  reconcile.ProviderFeed
)

// Setup injects the startup-validated provider configuration and feed client
// used by the webhook and reconciliation handlers.
func Setup(cfg *payments.Config, feed reconcile.ProviderFeed) {
	paymentConfig = cfg
	providerFeed = feed
}

func newPaymentService() *payments.Service {
	repos := repository.GetGlobalRepositories()
	return payments.NewService(paymentConfig, repos.Webhook, repos.Payment).
		WithStats(func(field string) {
			_ = cache.IncrementCounter("webhook_stats", field, 1)
		})
}

// HandlePaymentWebhook ingests one provider delivery. Signature and
// configuration problems are the only non-2xx outcomes; anything the service
// understood returns 200 so the provider stops redelivering.
func HandlePaymentWebhook(c *fiber.Ctx) error {
	providerName := c.Params("provider")
	rawBody := append([]byte(nil), c.BodyRaw()...)

	signature := ""
	if prov, ok := payments.GetProvider(providerName); ok {
		signature = c.Get(prov.SignatureHeader)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	svc := newPaymentService()
	result, err := svc.Ingest(ctx, providerName, rawBody, signature)
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrMissingSignature):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing signature"})
		case errors.Is(err, payments.ErrInvalidSignature):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid signature"})
		case errors.Is(err, payments.ErrProviderNotConfigured):
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "provider not configured"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_persist_failed"})
		}
	}

	resp := fiber.Map{"ok": true, "webhook_id": result.WebhookID}
	if result.Duplicate {
		resp["duplicate"] = true
	}
	if result.Ignored {
		resp["ignored"] = true
	}
	if result.PaymentRecordID != 0 {
		resp["payment_record_id"] = result.PaymentRecordID
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

// HandleWebhookStatus returns the dedup-log view of one delivery.
func HandleWebhookStatus(c *fiber.Ctx) error {
	webhookID := c.Params("webhookId")

	event, err := newPaymentService().GetStatus(webhookID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "webhook not found"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"webhook_id":             event.WebhookID,
		"status":                 event.Status,
		"provider":               event.Provider,
		"event_type":             event.EventType,
		"received_at":            event.ReceivedAt,
		"processing_duration_ms": event.ProcessingMs,
		"error_message":          event.ErrorMessage,
	})
}
