package payments

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notarius-app/notarius/app/models"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		allowed bool
	}{
		{"pending to processing", models.PaymentStatusPending, models.PaymentStatusProcessing, true},
		{"pending to completed", models.PaymentStatusPending, models.PaymentStatusCompleted, true},
		{"pending to failed", models.PaymentStatusPending, models.PaymentStatusFailed, true},
		{"pending to cancelled", models.PaymentStatusPending, models.PaymentStatusCancelled, true},
		{"processing to completed", models.PaymentStatusProcessing, models.PaymentStatusCompleted, true},
		{"completed to refunded", models.PaymentStatusCompleted, models.PaymentStatusRefunded, true},
		{"failed to pending", models.PaymentStatusFailed, models.PaymentStatusPending, true},
		{"cancelled to pending", models.PaymentStatusCancelled, models.PaymentStatusPending, true},
		{"same state is idempotent", models.PaymentStatusCompleted, models.PaymentStatusCompleted, true},
		{"pending to refunded", models.PaymentStatusPending, models.PaymentStatusRefunded, false},
		{"completed to failed", models.PaymentStatusCompleted, models.PaymentStatusFailed, false},
		{"refunded to completed", models.PaymentStatusRefunded, models.PaymentStatusCompleted, false},
		{"refunded to pending", models.PaymentStatusRefunded, models.PaymentStatusPending, false},
		{"failed to completed", models.PaymentStatusFailed, models.PaymentStatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

func TestTransitionSetsCompletedAt(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	record := &models.PaymentRecord{
		Provider:          models.PaymentProviderStripe,
		ProviderPaymentID: "pi_123",
		Status:            models.PaymentStatusPending,
	}

	err := Transition(record, models.PaymentStatusCompleted, now)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, record.Status)
	require.NotNil(t, record.CompletedAt)
	assert.Equal(t, now, *record.CompletedAt)
	assert.Nil(t, record.RefundedAt)
}

func TestTransitionSetsRefundedAt(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	record := &models.PaymentRecord{
		Provider:          models.PaymentProviderStripe,
		ProviderPaymentID: "pi_123",
		Status:            models.PaymentStatusCompleted,
	}

	err := Transition(record, models.PaymentStatusRefunded, now)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusRefunded, record.Status)
	require.NotNil(t, record.RefundedAt)
	assert.Equal(t, now, *record.RefundedAt)
}

func TestTransitionSameStateIsNoOp(t *testing.T) {
	record := &models.PaymentRecord{
		Provider:          models.PaymentProviderStripe,
		ProviderPaymentID: "pi_123",
		Status:            models.PaymentStatusCompleted,
	}

	err := Transition(record, models.PaymentStatusCompleted, time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, record.Status)
	// a repeated event must not touch the timestamps
	assert.Nil(t, record.CompletedAt)
}

func TestTransitionRejectsIllegalMove(t *testing.T) {
	record := &models.PaymentRecord{
		Provider:          models.PaymentProviderStripe,
		ProviderPaymentID: "pi_123",
		Status:            models.PaymentStatusRefunded,
	}

	err := Transition(record, models.PaymentStatusCompleted, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid payment transition")
	// the record stays untouched on rejection
	assert.Equal(t, models.PaymentStatusRefunded, record.Status)
}
