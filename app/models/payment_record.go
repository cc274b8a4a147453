package models

import "time"

// Payment record statuses. Transitions between them are guarded by the
// payments package state machine; writers never set Status directly.
const (
	PaymentStatusPending    = "pending"
	PaymentStatusProcessing = "processing"
	PaymentStatusCompleted  = "completed"
	PaymentStatusFailed     = "failed"
	PaymentStatusCancelled  = "cancelled"
	PaymentStatusRefunded   = "refunded"
)

// Known payment providers
const (
	PaymentProviderStripe = "stripe"
	PaymentProviderPayPal = "paypal"
)

// PaymentRecord stores one payment attempt with an external provider.
// (provider, provider_payment_id) identifies at most one row; records are
// never deleted, only transitioned to terminal states.
type PaymentRecord struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	Provider          string     `gorm:"type:varchar(20);not null;index:ux_payment_records_provider_payment,unique,priority:1;index" json:"provider"`
	ProviderPaymentID string     `gorm:"type:varchar(191);not null;index:ux_payment_records_provider_payment,unique,priority:2" json:"provider_payment_id"`
	Amount            float64    `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency          string     `gorm:"type:varchar(3);not null" json:"currency"`
	Status            string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	OwnerID           uint       `gorm:"index" json:"owner_id"`
	IdempotencyKey    *string    `gorm:"type:varchar(191);unique" json:"idempotency_key,omitempty"`
	Description       string     `gorm:"type:varchar(255)" json:"description"`
	FailureReason     string     `gorm:"type:text" json:"failure_reason"`
	CompletedAt       *time.Time `gorm:"type:timestamp;default:null" json:"completed_at,omitempty"`
	RefundedAt        *time.Time `gorm:"type:timestamp;default:null" json:"refunded_at,omitempty"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
