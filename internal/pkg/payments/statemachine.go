package payments

import (
	"fmt"
	"time"

	"github.com/notarius-app/notarius/app/models"
)

// paymentTransitions is the full transition table of the payment ledger.
// Anything not listed is rejected; arrival order of webhook events gives no
// ordering guarantee, the table does.
var paymentTransitions = map[string][]string{
	models.PaymentStatusPending: {
		models.PaymentStatusProcessing,
		models.PaymentStatusCompleted,
		models.PaymentStatusFailed,
		models.PaymentStatusCancelled,
	},
	models.PaymentStatusProcessing: {
		models.PaymentStatusCompleted,
		models.PaymentStatusFailed,
		models.PaymentStatusCancelled,
	},
	models.PaymentStatusCompleted: {
		models.PaymentStatusRefunded,
	},
	// failed and cancelled payments may be retried
	models.PaymentStatusFailed: {
		models.PaymentStatusPending,
	},
	models.PaymentStatusCancelled: {
		models.PaymentStatusPending,
	},
	// refunded is terminal
	models.PaymentStatusRefunded: {},
}

// CanTransition reports whether from -> to is a legal payment transition.
// A same-state transition is legal (idempotent no-op).
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	for _, allowed := range paymentTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition applies a status change through the transition table, setting
// the completion/refund timestamps on entry to those states. Returns an
// error for illegal transitions; callers must never force one.
func Transition(record *models.PaymentRecord, to string, now time.Time) error {
	from := record.Status
	if from == to {
		return nil
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("invalid payment transition %s -> %s for %s/%s",
			from, to, record.Provider, record.ProviderPaymentID)
	}

	record.Status = to
	switch to {
	case models.PaymentStatusCompleted:
		record.CompletedAt = &now
	case models.PaymentStatusRefunded:
		record.RefundedAt = &now
	}
	return nil
}
