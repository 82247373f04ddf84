package ports

import (
	"context"

	"github.com/dealpay/payment-service/internal/domain/models"
	"github.com/google/uuid"
)

// DealRepository owns Deal persistence.
// TransitionStatus is the only mutation path for deal status and enforces
// the pending-to-terminal rule at the store layer: the UPDATE is conditional
// on the expected current status and a zero-row result maps to
// ErrDealStateConflict.
type DealRepository interface {
	Create(ctx context.Context, db DBTX, deal *models.Deal) error
	GetByID(ctx context.Context, db DBTX, id uuid.UUID) (*models.Deal, error)
	TransitionStatus(ctx context.Context, db DBTX, id uuid.UUID, from, to models.DealStatus) error
}

// IntentRepository owns PaymentIntentRecord persistence.
// Create maps a unique-constraint violation on the one-active-intent-per-deal
// index to ErrIntentConflict so racing issuers fail the same way the
// pre-check does.
type IntentRepository interface {
	Create(ctx context.Context, db DBTX, record *models.PaymentIntentRecord) error
	GetByExternalID(ctx context.Context, db DBTX, externalID string) (*models.PaymentIntentRecord, error)
	// GetActiveByDealID returns the non-terminal intent for a deal, or nil
	// if the deal has none
	GetActiveByDealID(ctx context.Context, db DBTX, dealID uuid.UUID) (*models.PaymentIntentRecord, error)
	UpdateStatus(ctx context.Context, db DBTX, externalID string, status models.IntentStatus) error
}

// PaymentRepository owns the append-only PaymentRecord ledger
type PaymentRepository interface {
	// RecordOnce inserts the record if no record exists for its external id.
	// It returns false with a nil error when the record was already present,
	// which callers treat as a successfully absorbed duplicate.
	RecordOnce(ctx context.Context, db DBTX, record *models.PaymentRecord) (bool, error)
	GetByExternalID(ctx context.Context, db DBTX, externalID string) (*models.PaymentRecord, error)
}
