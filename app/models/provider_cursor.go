package models

import "time"

// ProviderCursor is the durable bookmark into a provider's transaction feed.
// It only moves forward past fully processed pages, which is what makes
// reconciliation resumable after a crash.
type ProviderCursor struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Provider         string     `gorm:"type:varchar(20);not null;unique" json:"provider"`
	Cursor           string     `gorm:"type:varchar(255);not null;default:''" json:"cursor"`
	LastReconciledAt *time.Time `gorm:"type:timestamp;default:null" json:"last_reconciled_at,omitempty"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
