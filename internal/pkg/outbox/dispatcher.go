package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/notarius-app/notarius/app/models"
	"github.com/notarius-app/notarius/app/repository"
	"github.com/notarius-app/notarius/internal/pkg/ledger"
	"github.com/notarius-app/notarius/internal/pkg/retry"
)

// DefaultBatchSize bounds the number of jobs one tick will claim.
const DefaultBatchSize = 10

// Dispatcher periodically claims due jobs and performs their external side
// effect. Multiple dispatcher instances may run the same loop; the claim CAS
// keeps them from double-executing a job.
type Dispatcher struct {
	jobs      repository.JobRepository
	records   repository.RecordRepository
	submitter ledger.Submitter
	batchSize int
	timeout   time.Duration
	now       func() time.Time
	stats     func(field string)
}

// NewDispatcher creates a dispatcher from injected dependencies.
func NewDispatcher(jobs repository.JobRepository, records repository.RecordRepository, submitter ledger.Submitter) *Dispatcher {
	return &Dispatcher{
		jobs:      jobs,
		records:   records,
		submitter: submitter,
		batchSize: DefaultBatchSize,
		timeout:   ledger.DefaultTimeout,
		now:       time.Now,
	}
}

// WithStats installs a best-effort counter callback.
func (d *Dispatcher) WithStats(fn func(field string)) *Dispatcher {
	d.stats = fn
	return d
}

// WithClock overrides the dispatcher clock for deterministic tests.
func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

func (d *Dispatcher) count(field string) {
	if d.stats != nil {
		d.stats(field)
	}
}

// Tick runs one dispatch round: select a bounded batch of due pending jobs,
// claim each one atomically and execute it. One job's failure never aborts
// the batch.
func (d *Dispatcher) Tick(ctx context.Context) error {
	jobs, err := d.jobs.DuePending(d.now(), d.batchSize)
	if err != nil {
		return fmt.Errorf("failed to load due jobs: %w", err)
	}

	for i := range jobs {
		job := &jobs[i]

		claimed, err := d.jobs.ClaimPending(job.ID)
		if err != nil {
			log.Errorf("[Dispatcher] Claim failed for job %d: %v", job.ID, err)
			continue
		}
		if !claimed {
			// Another worker won the claim; skip silently.
			continue
		}
		job.Status = models.JobStatusProcessing

		d.runJob(ctx, job)
	}
	return nil
}

// runJob executes one claimed job with panic isolation.
func (d *Dispatcher) runJob(ctx context.Context, job *models.Job) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("[Dispatcher] Job %d panicked: %v", job.ID, r)
			d.failJob(job, fmt.Errorf("panic: %v", r))
		}
	}()

	var err error
	switch job.Type {
	case models.JobTypeLedgerAnchor:
		err = d.processLedgerAnchor(ctx, job)
	default:
		err = fmt.Errorf("%w: unknown job type %s", errPermanentJob, job.Type)
	}

	if err != nil {
		log.Errorf("[Dispatcher] Job %d failed: %v", job.ID, err)
		d.failJob(job, err)
		return
	}

	job.MarkCompleted()
	if uerr := d.jobs.Update(job); uerr != nil {
		log.Errorf("[Dispatcher] Failed to mark job %d completed: %v", job.ID, uerr)
		return
	}
	d.count("completed")
	log.Infof("[Dispatcher] Job %d completed", job.ID)
}

var errPermanentJob = errors.New("permanent job error")

// processLedgerAnchor anchors one record hash. The pre-call idempotency
// guard (record already carries a ledger tx id) is what makes a crash
// between external success and local commit safe to retry: the retried job
// short-circuits instead of anchoring twice.
func (d *Dispatcher) processLedgerAnchor(ctx context.Context, job *models.Job) error {
	var payload LedgerAnchorPayload
	if err := json.Unmarshal([]byte(job.Payload), &payload); err != nil {
		return fmt.Errorf("%w: malformed payload: %v", errPermanentJob, err)
	}

	record, err := d.records.GetByID(payload.RecordID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: record %d not found", errPermanentJob, payload.RecordID)
	}
	if err != nil {
		return fmt.Errorf("failed to load record %d: %w", payload.RecordID, err)
	}

	if record.IsAnchored() {
		log.Infof("[Dispatcher] Record %d already anchored (tx=%s), skipping", record.ID, record.AnchorTxID)
		d.count("skipped_already_anchored")
		return nil
	}

	// The external call happens outside any local transaction: a local
	// rollback cannot undo a ledger submission.
	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	txID, err := d.submitter.SubmitAnchor(callCtx, record.ContentHash, fmt.Sprintf("record:%d", record.ID))
	if err != nil {
		return fmt.Errorf("anchor submission for record %d failed: %w", record.ID, err)
	}

	now := d.now()
	record.AnchorTxID = txID
	record.AnchoredAt = &now
	if err := d.records.Update(record); err != nil {
		// The external anchor exists but the local write failed; the
		// retried job re-reads the record, and only the guard decides
		// whether a second submission happens.
		return fmt.Errorf("failed to store anchor tx for record %d: %w", record.ID, err)
	}
	return nil
}

// failJob increments attempts and either reschedules with backoff or parks
// the job in terminal failed for operator requeue.
func (d *Dispatcher) failJob(job *models.Job, cause error) {
	now := d.now()
	if errors.Is(cause, errPermanentJob) {
		job.Attempts = job.MaxAttempts
	}
	nextRun := retry.NextRunAt(now, job.Attempts+1, retry.DefaultCapSeconds)
	job.MarkFailedAttempt(cause.Error(), nextRun)

	if err := d.jobs.Update(job); err != nil {
		log.Errorf("[Dispatcher] Failed to persist failure of job %d: %v", job.ID, err)
		return
	}
	if job.Status == models.JobStatusFailed {
		d.count("failed")
		log.Errorf("[Dispatcher] Job %d permanently failed after %d attempts", job.ID, job.Attempts)
	} else {
		d.count("retry_scheduled")
	}
}
