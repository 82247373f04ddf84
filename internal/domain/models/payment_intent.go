package models

import (
	"time"

	"github.com/google/uuid"
)

// IntentStatus mirrors the processor-side status of a payment intent
type IntentStatus string

const (
	IntentRequiresPayment IntentStatus = "requires_payment"
	IntentProcessing      IntentStatus = "processing"
	IntentSucceeded       IntentStatus = "succeeded"
	IntentPaymentFailed   IntentStatus = "payment_failed"
	IntentCanceled        IntentStatus = "canceled"
)

// IsTerminal reports whether the processor can emit no further transitions
// for an intent in this status
func (s IntentStatus) IsTerminal() bool {
	return s == IntentSucceeded || s == IntentPaymentFailed || s == IntentCanceled
}

// PaymentIntentRecord is the local mirror of a processor-issued payment intent.
// ExternalID is the processor's identifier and is unique across the store.
// At most one non-terminal record may exist per deal; the store enforces this
// with a partial unique index so concurrent issuers cannot both succeed.
type PaymentIntentRecord struct {
	ExternalID       string
	DealID           uuid.UUID
	AmountMinorUnits int64
	Currency         string
	Status           IntentStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
