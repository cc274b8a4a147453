package models

import "time"

// Reconciliation run statuses
const (
	ReconciliationStatusPending   = "pending"
	ReconciliationStatusRunning   = "running"
	ReconciliationStatusCompleted = "completed"
	ReconciliationStatusFailed    = "failed"
)

// ReconciliationRun is one batch pass over a provider's transaction feed.
// The summary counters are updated as pages are processed so a failed run
// still shows how far it got.
type ReconciliationRun struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	RunID           string     `gorm:"type:varchar(36);not null;unique" json:"run_id"`
	Provider        string     `gorm:"type:varchar(20);not null;index" json:"provider"`
	Status          string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	StartCursor     string     `gorm:"type:varchar(255)" json:"start_cursor"`
	EndCursor       string     `gorm:"type:varchar(255)" json:"end_cursor"`
	PagesScanned    int        `gorm:"not null;default:0" json:"pages_scanned"`
	EntriesChecked  int        `gorm:"not null;default:0" json:"entries_checked"`
	MismatchesFound int        `gorm:"not null;default:0" json:"mismatches_found"`
	ErrorMessage    string     `gorm:"type:text" json:"error_message"`
	StartedAt       time.Time  `gorm:"autoCreateTime" json:"started_at"`
	FinishedAt      *time.Time `gorm:"type:timestamp;default:null" json:"finished_at,omitempty"`
}
