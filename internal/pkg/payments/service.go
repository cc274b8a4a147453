package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/notarius-app/notarius/app/models"
	"github.com/notarius-app/notarius/app/repository"
	"github.com/notarius-app/notarius/internal/pkg/retry"
)

// ErrPermanent wraps processing failures that must not be retried
// (malformed payloads, transitions rejected by the state machine).
var ErrPermanent = errors.New("permanent processing error")

// RetryBatchSize bounds one sweep of due webhook retries.
const RetryBatchSize = 20

// Service drives the webhook ingress: audit persistence, deduplication,
// normalization and the payment ledger state machine.
type Service struct {
	cfg      *Config
	webhooks repository.WebhookRepository
	payments repository.PaymentRepository
	now      func() time.Time
	stats    func(field string)
}

// NewService creates a payment ingress service from injected repositories.
func NewService(cfg *Config, webhooks repository.WebhookRepository, payments repository.PaymentRepository) *Service {
	return &Service{
		cfg:      cfg,
		webhooks: webhooks,
		payments: payments,
		now:      time.Now,
	}
}

// WithStats installs a best-effort counter callback (e.g. Redis rolling
// stats). A nil service stats hook is a no-op.
func (s *Service) WithStats(fn func(field string)) *Service {
	s.stats = fn
	return s
}

// WithClock overrides the service clock, used by deterministic tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) count(field string) {
	if s.stats != nil {
		s.stats(field)
	}
}

// Ingest processes one inbound webhook delivery. The event row is persisted
// before anything is interpreted for business effect so even malformed
// deliveries leave an audit trail. Signature errors are returned to the
// caller for synchronous rejection; everything else resolves to a 2xx at the
// HTTP boundary so providers stop redelivering.
func (s *Service) Ingest(ctx context.Context, providerName string, body []byte, signatureHeader string) (*IngestResult, error) {
	_ = ctx
	started := s.now()

	prov, ok := GetProvider(providerName)
	if !ok {
		return nil, fmt.Errorf("%w: unknown provider %q", ErrProviderNotConfigured, providerName)
	}
	secret := s.cfg.Secret(prov.Name)
	if secret == "" {
		return nil, fmt.Errorf("%w: no webhook secret for %q", ErrProviderNotConfigured, prov.Name)
	}

	sigErr := prov.Verify(body, signatureHeader, secret, started)

	// Envelope parsing is best-effort here; the audit row is written even
	// for payloads we cannot read.
	eventID, eventType, parseErr := prov.ParseEnvelope(body)
	if eventID == "" {
		eventID = "hash:" + uuid.NewSHA1(uuid.NameSpaceOID, body).String()
	}

	event := &models.WebhookEvent{
		WebhookID:       uuid.New().String(),
		Provider:        prov.Name,
		ExternalEventID: eventID,
		EventType:       eventType,
		PayloadJSON:     string(body),
		Signature:       signatureHeader,
		SignatureValid:  sigErr == nil,
		Status:          models.WebhookStatusReceived,
		ReceivedAt:      started,
		ExpiresAt:       started.Add(models.WebhookEventRetention),
	}
	if err := s.webhooks.CreateEvent(event); err != nil {
		return nil, fmt.Errorf("failed to persist webhook event: %w", err)
	}
	result := &IngestResult{WebhookID: event.WebhookID}

	if sigErr != nil {
		s.finishEvent(event, started, models.WebhookStatusFailed, sigErr.Error())
		s.count("signature_rejected")
		return result, sigErr
	}

	// Dedup on (provider, external event id): a prior processed delivery
	// means this one must not reapply effects.
	prior, err := s.webhooks.FindProcessed(prov.Name, eventID)
	if err != nil {
		return result, fmt.Errorf("dedup lookup failed: %w", err)
	}
	if prior != nil {
		event.PaymentRecordID = prior.PaymentRecordID
		s.finishEvent(event, started, models.WebhookStatusDuplicate, "")
		s.count("duplicate")
		result.Duplicate = true
		result.PaymentRecordID = deref(prior.PaymentRecordID)
		return result, nil
	}

	if parseErr != nil {
		s.finishEvent(event, started, models.WebhookStatusFailed, parseErr.Error())
		s.count("malformed")
		result.Ignored = true
		return result, nil
	}
	if !prov.SupportsEvent(eventType) {
		s.finishEvent(event, started, models.WebhookStatusProcessed, "unsupported event type: "+eventType)
		s.count("ignored")
		result.Ignored = true
		return result, nil
	}

	event.Status = models.WebhookStatusProcessing
	if err := s.webhooks.Update(event); err != nil {
		return result, fmt.Errorf("failed to mark webhook processing: %w", err)
	}

	if err := s.applyEvent(event, prov); err != nil {
		s.failEvent(event, started, err)
		if errors.Is(err, ErrPermanent) {
			result.Ignored = true
			return result, nil
		}
		// Transient: retry schedule picks it up; callers see accepted.
		return result, nil
	}

	s.finishEvent(event, started, models.WebhookStatusProcessed, "")
	s.count("processed")
	result.PaymentRecordID = deref(event.PaymentRecordID)
	return result, nil
}

// applyEvent normalizes the stored payload and drives exactly one payment
// ledger transition.
func (s *Service) applyEvent(event *models.WebhookEvent, prov *Provider) error {
	normalize := prov.Normalizers[event.EventType]
	if normalize == nil {
		return fmt.Errorf("%w: unsupported event type %q", ErrPermanent, event.EventType)
	}

	normalized, err := normalize([]byte(event.PayloadJSON))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPermanent, err)
	}

	record, err := s.FindOrCreate(prov.Name, normalized)
	if err != nil {
		return err
	}
	event.PaymentRecordID = &record.ID
	return nil
}

// FindOrCreate upserts the payment record for (provider, external id): when
// absent it is created directly in the target status, when present the
// target status is applied through the state machine. Re-applying the same
// event is an idempotent no-op.
func (s *Service) FindOrCreate(provider string, in *NormalizedPayment) (*models.PaymentRecord, error) {
	now := s.now()

	record, err := s.payments.GetByProviderPaymentID(provider, in.ExternalID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		record = &models.PaymentRecord{
			Provider:          provider,
			ProviderPaymentID: in.ExternalID,
			Amount:            in.Amount,
			Currency:          in.Currency,
			Status:            models.PaymentStatusPending,
			OwnerID:           in.OwnerID,
			Description:       in.Description,
		}
		if err := Transition(record, in.TargetStatus, now); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPermanent, err)
		}
		if in.TargetStatus == models.PaymentStatusFailed {
			record.FailureReason = in.FailureReason
		}
		if err := s.payments.Create(record); err != nil {
			return nil, fmt.Errorf("failed to create payment record: %w", err)
		}
		return record, nil
	}
	if err != nil {
		return nil, fmt.Errorf("payment lookup failed: %w", err)
	}

	if err := Transition(record, in.TargetStatus, now); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPermanent, err)
	}
	if in.TargetStatus == models.PaymentStatusFailed && in.FailureReason != "" {
		record.FailureReason = in.FailureReason
	}
	if err := s.payments.Update(record); err != nil {
		return nil, fmt.Errorf("failed to update payment record: %w", err)
	}
	return record, nil
}

// ProcessDueRetries re-runs failed webhook events whose retry time has
// arrived. One event's failure never aborts the sweep.
func (s *Service) ProcessDueRetries(ctx context.Context) error {
	_ = ctx
	now := s.now()
	events, err := s.webhooks.DueRetries(now, RetryBatchSize)
	if err != nil {
		return fmt.Errorf("failed to load due webhook retries: %w", err)
	}

	for i := range events {
		event := &events[i]
		prov, ok := GetProvider(event.Provider)
		if !ok {
			continue
		}
		log.Infof("[Webhooks] Retrying event %s (provider=%s, attempt %d)",
			event.WebhookID, event.Provider, event.RetryCount+1)

		event.Status = models.WebhookStatusProcessing
		if err := s.webhooks.Update(event); err != nil {
			log.Errorf("[Webhooks] Failed to mark event %s processing: %v", event.WebhookID, err)
			continue
		}

		if err := s.applyEvent(event, prov); err != nil {
			s.failEvent(event, now, err)
			continue
		}
		s.finishEvent(event, now, models.WebhookStatusProcessed, "")
		s.count("processed")
	}
	return nil
}

// PurgeExpired removes delivered events past the retention window.
func (s *Service) PurgeExpired(ctx context.Context) error {
	_ = ctx
	purged, err := s.webhooks.PurgeExpired(s.now())
	if err != nil {
		return fmt.Errorf("webhook retention purge failed: %w", err)
	}
	if purged > 0 {
		log.Infof("[Webhooks] Purged %d expired events", purged)
	}
	return nil
}

// GetStatus returns the dedup-log row for a webhook id.
func (s *Service) GetStatus(webhookID string) (*models.WebhookEvent, error) {
	return s.webhooks.GetByWebhookID(webhookID)
}

// failEvent records a failed processing attempt. Permanent failures and
// exhausted retries become terminal; everything else gets a backoff retry
// slot with the same exponential shape as the outbox dispatcher.
func (s *Service) failEvent(event *models.WebhookEvent, started time.Time, cause error) {
	event.RetryCount++
	event.ErrorMessage = cause.Error()
	if errors.Is(cause, ErrPermanent) || !event.IsRetryable() {
		event.NextRetryAt = nil
		s.finishEvent(event, started, models.WebhookStatusFailed, cause.Error())
		s.count("failed")
		return
	}
	nextRetry := retry.NextRunAt(s.now(), event.RetryCount, retry.DefaultCapSeconds)
	event.NextRetryAt = &nextRetry
	s.finishEvent(event, started, models.WebhookStatusFailed, cause.Error())
	s.count("retry_scheduled")
}

func (s *Service) finishEvent(event *models.WebhookEvent, started time.Time, status, errMsg string) {
	now := s.now()
	event.Status = status
	event.ErrorMessage = errMsg
	event.ProcessedAt = &now
	event.ProcessingMs = now.Sub(started).Milliseconds()
	if err := s.webhooks.Update(event); err != nil {
		log.Errorf("[Webhooks] Failed to update event %s: %v", event.WebhookID, err)
	}
}

func deref(id *uint) uint {
	if id == nil {
		return 0
	}
	return *id
}
