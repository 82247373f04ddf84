package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus is the terminal outcome recorded in the ledger
type PaymentStatus string

const (
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// PaymentRecord is the append-only ledger entry of money actually moved.
// ExternalID doubles as the idempotency key: the store accepts at most one
// record per external intent id, which is what makes duplicate webhook
// delivery safe.
type PaymentRecord struct {
	ID               uuid.UUID
	DealID           uuid.UUID
	ExternalID       string
	AmountMinorUnits int64
	Status           PaymentStatus
	RecordedAt       time.Time
}
