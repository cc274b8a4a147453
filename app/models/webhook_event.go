package models

import "time"

// Webhook event statuses
const (
	WebhookStatusReceived   = "received"
	WebhookStatusProcessing = "processing"
	WebhookStatusProcessed  = "processed"
	WebhookStatusFailed     = "failed"
	WebhookStatusDuplicate  = "duplicate"
)

// DefaultMaxWebhookRetries bounds the retry schedule for events that failed
// during processing.
const DefaultMaxWebhookRetries = 5

// WebhookEventRetention is how long the dedup log keeps delivered events
// before the purge sweep removes them.
const WebhookEventRetention = 30 * 24 * time.Hour

// WebhookEvent stores every inbound provider delivery with deduplication
// metadata. (provider, external_event_id) is the dedup key; a redelivery of
// the same external event gets its own row marked duplicate without
// reapplying effects. The index is non-unique on purpose, every delivery
// attempt is kept for audit.
type WebhookEvent struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	WebhookID       string     `gorm:"type:varchar(36);not null;unique" json:"webhook_id"`
	Provider        string     `gorm:"type:varchar(20);not null;index:idx_webhook_events_provider_event,priority:1;index" json:"provider"`
	ExternalEventID string     `gorm:"type:varchar(191);not null;default:'';index:idx_webhook_events_provider_event,priority:2" json:"external_event_id"`
	EventType       string     `gorm:"type:varchar(100);not null;index" json:"event_type"`
	PayloadJSON     string     `gorm:"type:longtext;not null" json:"payload_json"`
	Signature       string     `gorm:"type:varchar(512)" json:"signature"`
	SignatureValid  bool       `gorm:"default:false;index" json:"signature_valid"`
	Status          string     `gorm:"type:varchar(20);not null;default:'received';index" json:"status"`
	RetryCount      int        `gorm:"not null;default:0" json:"retry_count"`
	NextRetryAt     *time.Time `gorm:"type:timestamp;default:null;index" json:"next_retry_at,omitempty"`
	PaymentRecordID *uint      `gorm:"index" json:"payment_record_id,omitempty"`
	ErrorMessage    string     `gorm:"type:text" json:"error_message"`
	ProcessingMs    int64      `gorm:"not null;default:0" json:"processing_ms"`
	ReceivedAt      time.Time  `gorm:"autoCreateTime;index" json:"received_at"`
	ProcessedAt     *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	ExpiresAt       time.Time  `gorm:"not null;index" json:"expires_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsRetryable reports whether a failed event may be scheduled again.
func (e *WebhookEvent) IsRetryable() bool {
	return e.RetryCount < DefaultMaxWebhookRetries
}
