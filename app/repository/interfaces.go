package repository

import (
	"time"

	"github.com/notarius-app/notarius/app/models"
)

// JobRepository defines the interface for outbox job database operations
type JobRepository interface {
	// EnqueueIfAbsent inserts a pending job unless one with the same
	// (type, idempotency_key) already exists. Returns the stored job and
	// whether a new row was created.
	EnqueueIfAbsent(job *models.Job) (bool, *models.Job, error)
	// ClaimPending atomically moves a job from pending to processing.
	// Returns false when another worker already claimed it.
	ClaimPending(id uint) (bool, error)
	DuePending(now time.Time, limit int) ([]models.Job, error)
	GetByID(id uint) (*models.Job, error)
	Update(job *models.Job) error
	CountByStatus() (map[models.JobStatus]int64, error)
}

// PaymentRepository defines the interface for payment ledger operations
type PaymentRepository interface {
	Create(record *models.PaymentRecord) error
	GetByID(id uint) (*models.PaymentRecord, error)
	GetByProviderPaymentID(provider, providerPaymentID string) (*models.PaymentRecord, error)
	Update(record *models.PaymentRecord) error
	ListByProviderAndStatus(provider, status string, updatedBefore time.Time) ([]models.PaymentRecord, error)
}

// WebhookRepository defines the interface for the webhook dedup log
type WebhookRepository interface {
	CreateEvent(event *models.WebhookEvent) error
	GetByWebhookID(webhookID string) (*models.WebhookEvent, error)
	// FindProcessed returns the prior processed delivery of the same
	// external event, or nil when none exists.
	FindProcessed(provider, externalEventID string) (*models.WebhookEvent, error)
	Update(event *models.WebhookEvent) error
	DueRetries(now time.Time, limit int) ([]models.WebhookEvent, error)
	PurgeExpired(now time.Time) (int64, error)
}

// ReconciliationRepository defines the interface for reconciliation state
type ReconciliationRepository interface {
	CreateRun(run *models.ReconciliationRun) error
	UpdateRun(run *models.ReconciliationRun) error
	GetRunByID(id uint) (*models.ReconciliationRun, error)
	ListRuns(offset, limit int) ([]models.ReconciliationRun, error)
	AddItem(item *models.ReconciliationItem) error
	ListItems(runID uint) ([]models.ReconciliationItem, error)
	GetCursor(provider string) (*models.ProviderCursor, error)
	SaveCursor(cursor *models.ProviderCursor) error
}

// RecordRepository defines the interface for notarized record operations
type RecordRepository interface {
	GetByID(id uint) (*models.Record, error)
	Update(record *models.Record) error
}
