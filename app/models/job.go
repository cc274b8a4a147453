package models

import "time"

// JobType defines the type of queued side-effect job
type JobType string

const (
	JobTypeLedgerAnchor JobType = "ledger.anchor"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// DefaultMaxAttempts bounds automatic retries; beyond it a job becomes
// terminal failed and must be requeued by an operator.
const DefaultMaxAttempts = 5

// Job is one durable side-effect job in the outbox table. Jobs are never
// deleted automatically; completed and failed rows stay for audit.
type Job struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Type           JobType    `gorm:"type:varchar(50);not null;index:ux_jobs_type_key,unique,priority:1" json:"type"`
	IdempotencyKey string     `gorm:"type:varchar(191);not null;index:ux_jobs_type_key,unique,priority:2" json:"idempotency_key"`
	Payload        string     `gorm:"type:longtext;not null" json:"payload"`
	Status         JobStatus  `gorm:"type:varchar(20);not null;default:'pending';index:idx_jobs_due,priority:1" json:"status"`
	Attempts       int        `gorm:"not null;default:0" json:"attempts"`
	MaxAttempts    int        `gorm:"not null;default:5" json:"max_attempts"`
	NextRunAt      time.Time  `gorm:"not null;index:idx_jobs_due,priority:2" json:"next_run_at"`
	LastError      string     `gorm:"type:text" json:"last_error"`
	CompletedAt    *time.Time `gorm:"type:timestamp;default:null" json:"completed_at,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsRetryable reports whether the job may be scheduled again after a failure.
func (j *Job) IsRetryable() bool {
	return j.Attempts < j.MaxAttempts
}

// MarkCompleted updates the job status to completed
func (j *Job) MarkCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.CompletedAt = &now
	j.LastError = ""
}

// MarkFailedAttempt records a failed attempt. The job returns to pending with
// the supplied retry time while attempts remain, otherwise it becomes
// terminal failed.
func (j *Job) MarkFailedAttempt(errMsg string, nextRun time.Time) {
	j.Attempts++
	j.LastError = errMsg
	if j.IsRetryable() {
		j.Status = JobStatusPending
		j.NextRunAt = nextRun
	} else {
		j.Status = JobStatusFailed
	}
}
