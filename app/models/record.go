package models

import "time"

// Record is a notarized user record. CRUD lives outside this service; the
// model carries the anchor fields the dispatcher updates and the content hash
// submitted to the public ledger.
type Record struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UUID        string     `gorm:"type:varchar(36);not null;unique" json:"uuid"`
	OwnerID     uint       `gorm:"not null;index" json:"owner_id"`
	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	ContentHash string     `gorm:"type:char(64);not null" json:"content_hash"`
	AnchorTxID  string     `gorm:"type:varchar(191);index" json:"anchor_tx_id"`
	AnchoredAt  *time.Time `gorm:"type:timestamp;default:null" json:"anchored_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsAnchored reports whether the record hash has already been submitted to
// the ledger. The dispatcher checks this before every external call.
func (r *Record) IsAnchored() bool {
	return r.AnchorTxID != ""
}
