package reconcile

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/notarius-app/notarius/app/models"
	"github.com/notarius-app/notarius/app/repository"
)

// DefaultPageSize bounds one feed page.
const DefaultPageSize = 100

// amountTolerance absorbs float rounding between minor-unit conversion and
// the provider's decimal amounts.
const amountTolerance = 0.009

// Engine walks a provider's transaction feed from a persisted cursor,
// compares each entry to the payment ledger and records discrepancies. It
// never mutates payment records; mismatches feed the alerting process.
type Engine struct {
	feed     ProviderFeed
	recon    repository.ReconciliationRepository
	payments repository.PaymentRepository
	pageSize int
	now      func() time.Time
}

// NewEngine creates a reconciliation engine from injected dependencies.
func NewEngine(feed ProviderFeed, recon repository.ReconciliationRepository, payments repository.PaymentRepository) *Engine {
	return &Engine{
		feed:     feed,
		recon:    recon,
		payments: payments,
		pageSize: DefaultPageSize,
		now:      time.Now,
	}
}

// WithPageSize overrides the feed page size.
func (e *Engine) WithPageSize(n int) *Engine {
	if n > 0 {
		e.pageSize = n
	}
	return e
}

// WithClock overrides the engine clock for deterministic tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Run executes one reconciliation pass for a provider. When startCursor is
// empty the persisted ProviderCursor is used. The durable cursor only
// advances past fully processed pages, so a failed run resumes from a
// consistent boundary instead of rescanning or skipping.
func (e *Engine) Run(ctx context.Context, provider, startCursor string) (*models.ReconciliationRun, error) {
	stored, err := e.recon.GetCursor(provider)
	if err != nil {
		return nil, fmt.Errorf("failed to load cursor for %s: %w", provider, err)
	}

	cursor := startCursor
	if cursor == "" {
		cursor = stored.Cursor
	}
	fullScan := cursor == ""

	run := &models.ReconciliationRun{
		RunID:       uuid.New().String(),
		Provider:    provider,
		Status:      models.ReconciliationStatusRunning,
		StartCursor: cursor,
		EndCursor:   cursor,
	}
	if err := e.recon.CreateRun(run); err != nil {
		return nil, fmt.Errorf("failed to create reconciliation run: %w", err)
	}
	log.Infof("[Reconcile] Run %s started (provider=%s, cursor=%q)", run.RunID, provider, cursor)

	scanStart := e.now()
	seen := make(map[string]struct{})

	for {
		entries, nextCursor, err := e.feed.FetchPage(ctx, provider, cursor, e.pageSize)
		if err != nil {
			return run, e.failRun(run, fmt.Errorf("page fetch at cursor %q failed: %w", cursor, err))
		}

		for i := range entries {
			e.checkEntry(run, provider, &entries[i])
			seen[entries[i].ExternalID] = struct{}{}
			run.EntriesChecked++
		}
		run.PagesScanned++
		run.EndCursor = nextCursor

		// Advance the durable bookmark only after the page is fully
		// processed; this is what makes a crashed run resumable.
		now := e.now()
		stored.Cursor = nextCursor
		stored.LastReconciledAt = &now
		if err := e.recon.SaveCursor(stored); err != nil {
			return run, e.failRun(run, fmt.Errorf("failed to persist cursor: %w", err))
		}
		if err := e.recon.UpdateRun(run); err != nil {
			return run, e.failRun(run, fmt.Errorf("failed to persist run progress: %w", err))
		}

		if nextCursor == "" {
			break
		}
		cursor = nextCursor
	}

	// Inverse pass: local records with no provider entry. Only meaningful
	// after a full scan; a resumed partial scan has not seen older feed
	// entries and would report false positives.
	if fullScan {
		if err := e.sweepMissingProvider(run, provider, seen, scanStart); err != nil {
			return run, e.failRun(run, err)
		}
	}

	now := e.now()
	run.Status = models.ReconciliationStatusCompleted
	run.FinishedAt = &now
	if err := e.recon.UpdateRun(run); err != nil {
		return run, fmt.Errorf("failed to finish run: %w", err)
	}
	log.Infof("[Reconcile] Run %s completed: %d pages, %d entries, %d mismatches",
		run.RunID, run.PagesScanned, run.EntriesChecked, run.MismatchesFound)
	return run, nil
}

// checkEntry compares one feed entry against the local ledger, read-only.
func (e *Engine) checkEntry(run *models.ReconciliationRun, provider string, entry *FeedEntry) {
	local, err := e.payments.GetByProviderPaymentID(provider, entry.ExternalID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		e.addItem(run, entry.ExternalID, nil, models.MismatchMissingLocal,
			fmt.Sprintf("provider reports %s %.2f %s, no local record", entry.Status, entry.Amount, entry.Currency))
		return
	}
	if err != nil {
		log.Errorf("[Reconcile] Lookup failed for %s/%s: %v", provider, entry.ExternalID, err)
		e.addItem(run, entry.ExternalID, nil, models.MismatchOther, "local lookup failed: "+err.Error())
		return
	}

	if math.Abs(local.Amount-entry.Amount) > amountTolerance {
		e.addItem(run, entry.ExternalID, &local.ID, models.MismatchAmount,
			fmt.Sprintf("local amount %.2f differs from provider amount %.2f", local.Amount, entry.Amount))
	}
	if entry.Refunded && local.Status != models.PaymentStatusRefunded {
		e.addItem(run, entry.ExternalID, &local.ID, models.MismatchRefundMissing,
			fmt.Sprintf("provider reports refund, local status is %s", local.Status))
	}
}

// sweepMissingProvider flags completed local records the full provider scan
// never returned.
func (e *Engine) sweepMissingProvider(run *models.ReconciliationRun, provider string, seen map[string]struct{}, before time.Time) error {
	locals, err := e.payments.ListByProviderAndStatus(provider, models.PaymentStatusCompleted, before)
	if err != nil {
		return fmt.Errorf("local sweep failed: %w", err)
	}
	for i := range locals {
		local := &locals[i]
		if _, ok := seen[local.ProviderPaymentID]; ok {
			continue
		}
		e.addItem(run, local.ProviderPaymentID, &local.ID, models.MismatchMissingProvider,
			fmt.Sprintf("local record completed at %.2f %s, absent from provider feed", local.Amount, local.Currency))
	}
	return nil
}

func (e *Engine) addItem(run *models.ReconciliationRun, externalID string, recordID *uint, mismatchType, details string) {
	item := &models.ReconciliationItem{
		RunID:           run.ID,
		ExternalID:      externalID,
		PaymentRecordID: recordID,
		MismatchType:    mismatchType,
		Details:         details,
	}
	if err := e.recon.AddItem(item); err != nil {
		log.Errorf("[Reconcile] Failed to persist %s item for %s: %v", mismatchType, externalID, err)
		return
	}
	run.MismatchesFound++
	log.Warnf("[Reconcile] %s: %s (%s)", mismatchType, externalID, details)
}

// failRun marks the run failed with the error captured in its summary. The
// durable cursor stays at the last fully processed page.
func (e *Engine) failRun(run *models.ReconciliationRun, cause error) error {
	now := e.now()
	run.Status = models.ReconciliationStatusFailed
	run.ErrorMessage = cause.Error()
	run.FinishedAt = &now
	if err := e.recon.UpdateRun(run); err != nil {
		log.Errorf("[Reconcile] Failed to persist failed run %s: %v", run.RunID, err)
	}
	log.Errorf("[Reconcile] Run %s failed: %v", run.RunID, cause)
	return cause
}
