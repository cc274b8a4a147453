// Package outbox implements the transactional outbox: durable side-effect
// jobs enqueued next to business writes and dispatched with at-least-once
// semantics and idempotent effects.
package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/notarius-app/notarius/app/models"
	"github.com/notarius-app/notarius/app/repository"
)

// LedgerAnchorPayload is the payload of a ledger.anchor job.
type LedgerAnchorPayload struct {
	RecordID uint `json:"record_id"`
}

// Enqueue inserts a pending job unless one with the same (type, key) already
// exists; the insert is a no-op then and the existing job is returned.
func Enqueue(jobs repository.JobRepository, jobType models.JobType, payload interface{}, idempotencyKey string) (*models.Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job payload: %w", err)
	}

	job := &models.Job{
		Type:           jobType,
		IdempotencyKey: idempotencyKey,
		Payload:        string(raw),
		Status:         models.JobStatusPending,
		MaxAttempts:    models.DefaultMaxAttempts,
		NextRunAt:      time.Now(),
	}
	created, stored, err := jobs.EnqueueIfAbsent(job)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue %s job: %w", jobType, err)
	}
	if created {
		log.Infof("[Outbox] Enqueued job %d (type=%s, key=%s)", stored.ID, jobType, idempotencyKey)
	}
	return stored, nil
}

// EnqueueLedgerAnchor queues the anchoring of a record hash, idempotent per
// record id. This is the enqueue contract consumed by the record-creation
// flow.
func EnqueueLedgerAnchor(jobs repository.JobRepository, recordID uint) (*models.Job, error) {
	return Enqueue(jobs, models.JobTypeLedgerAnchor,
		LedgerAnchorPayload{RecordID: recordID},
		fmt.Sprintf("record:%d", recordID))
}
