package models

import "time"

// Mismatch types recorded by the reconciliation engine
const (
	MismatchMissingLocal    = "MISSING_LOCAL"
	MismatchMissingProvider = "MISSING_PROVIDER"
	MismatchAmount          = "AMOUNT_MISMATCH"
	MismatchRefundMissing   = "REFUND_MISSING"
	MismatchOther           = "OTHER"
)

// ReconciliationItem records one discrepancy between the provider feed and
// the local payment ledger. Items are never auto-corrected; they feed the
// alerting/follow-up process.
type ReconciliationItem struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	RunID           uint      `gorm:"not null;index" json:"run_id"`
	ExternalID      string    `gorm:"type:varchar(191);not null;index" json:"external_id"`
	PaymentRecordID *uint     `gorm:"index" json:"payment_record_id,omitempty"`
	MismatchType    string    `gorm:"type:varchar(30);not null;index" json:"mismatch_type"`
	Details         string    `gorm:"type:text" json:"details"`
	Alerted         bool      `gorm:"default:false;index" json:"alerted"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}
