package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dealpay/payment-service/internal/domain"
	"github.com/dealpay/payment-service/internal/domain/models"
	"github.com/dealpay/payment-service/internal/domain/ports"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations
const uniqueViolation = "23505"

// IntentRepository implements ports.IntentRepository on PostgreSQL
type IntentRepository struct {
	pool *pgxpool.Pool
}

// NewIntentRepository creates a new payment intent repository
func NewIntentRepository(db ports.DBPort) *IntentRepository {
	return &IntentRepository{pool: db.GetDB()}
}

func (r *IntentRepository) executor(db ports.DBTX) ports.DBTX {
	if db != nil {
		return db
	}
	return r.pool
}

// Create inserts a new payment intent record. The payment_intents table
// carries a partial unique index on deal_id for non-terminal statuses, so a
// concurrent issuer racing past the service-level pre-check loses here and
// gets the same ErrIntentConflict.
func (r *IntentRepository) Create(ctx context.Context, db ports.DBTX, record *models.PaymentIntentRecord) error {
	_, err := r.executor(db).Exec(ctx, `
		INSERT INTO payment_intents (external_id, deal_id, amount_minor_units, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.ExternalID, record.DealID, record.AmountMinorUnits, record.Currency,
		string(record.Status), record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.WrapError(domain.ErrorCodeIntentConflict,
				"an active payment intent already exists for this deal", err)
		}
		return fmt.Errorf("create payment intent: %w", err)
	}
	return nil
}

// GetByExternalID retrieves an intent record by the processor-assigned id
func (r *IntentRepository) GetByExternalID(ctx context.Context, db ports.DBTX, externalID string) (*models.PaymentIntentRecord, error) {
	row := r.executor(db).QueryRow(ctx, `
		SELECT external_id, deal_id, amount_minor_units, currency, status, created_at, updated_at
		FROM payment_intents WHERE external_id = $1`, externalID)

	record, err := scanIntent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrIntentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get payment intent by external id: %w", err)
	}
	return record, nil
}

// GetActiveByDealID returns the non-terminal intent for a deal, or nil if
// the deal has none
func (r *IntentRepository) GetActiveByDealID(ctx context.Context, db ports.DBTX, dealID uuid.UUID) (*models.PaymentIntentRecord, error) {
	row := r.executor(db).QueryRow(ctx, `
		SELECT external_id, deal_id, amount_minor_units, currency, status, created_at, updated_at
		FROM payment_intents
		WHERE deal_id = $1 AND status NOT IN ('succeeded', 'payment_failed', 'canceled')`,
		dealID)

	record, err := scanIntent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active payment intent: %w", err)
	}
	return record, nil
}

// UpdateStatus mirrors a processor-side status change onto the local record
func (r *IntentRepository) UpdateStatus(ctx context.Context, db ports.DBTX, externalID string, status models.IntentStatus) error {
	tag, err := r.executor(db).Exec(ctx, `
		UPDATE payment_intents SET status = $2, updated_at = now()
		WHERE external_id = $1`,
		externalID, string(status),
	)
	if err != nil {
		return fmt.Errorf("update payment intent status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrIntentNotFound
	}
	return nil
}

func scanIntent(row pgx.Row) (*models.PaymentIntentRecord, error) {
	var record models.PaymentIntentRecord
	var status string
	err := row.Scan(&record.ExternalID, &record.DealID, &record.AmountMinorUnits,
		&record.Currency, &status, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return nil, err
	}
	record.Status = models.IntentStatus(status)
	return &record, nil
}
