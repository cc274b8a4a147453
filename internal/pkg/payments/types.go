package payments

// NormalizedPayment is the provider-agnostic shape produced by the
// per-provider event normalizers. Amounts are in major currency units,
// currency codes upper-cased.
type NormalizedPayment struct {
	ExternalID    string
	Amount        float64
	Currency      string
	OwnerID       uint
	Description   string
	FailureReason string
	// TargetStatus is the payment status the event maps to, applied
	// through the state machine.
	TargetStatus string
}

// IngestResult describes the outcome of one webhook delivery.
type IngestResult struct {
	WebhookID       string
	Duplicate       bool
	Ignored         bool
	PaymentRecordID uint
}
