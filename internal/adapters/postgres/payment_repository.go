package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dealpay/payment-service/internal/domain"
	"github.com/dealpay/payment-service/internal/domain/models"
	"github.com/dealpay/payment-service/internal/domain/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PaymentRepository implements ports.PaymentRepository on PostgreSQL.
// The payments table is append-only; there is deliberately no update or
// delete method.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new payment record repository
func NewPaymentRepository(db ports.DBPort) *PaymentRepository {
	return &PaymentRepository{pool: db.GetDB()}
}

func (r *PaymentRepository) executor(db ports.DBTX) ports.DBTX {
	if db != nil {
		return db
	}
	return r.pool
}

// RecordOnce inserts the payment record if none exists for its external id.
// ON CONFLICT DO NOTHING makes the insert a single atomic conditional write,
// so two deliveries of the same event racing each other still produce
// exactly one row. Returns false when the record was already present.
func (r *PaymentRepository) RecordOnce(ctx context.Context, db ports.DBTX, record *models.PaymentRecord) (bool, error) {
	tag, err := r.executor(db).Exec(ctx, `
		INSERT INTO payments (id, deal_id, external_id, amount_minor_units, status, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (external_id) DO NOTHING`,
		record.ID, record.DealID, record.ExternalID, record.AmountMinorUnits,
		string(record.Status), record.RecordedAt,
	)
	if err != nil {
		return false, fmt.Errorf("record payment: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// GetByExternalID retrieves a payment record by the intent that produced it
func (r *PaymentRepository) GetByExternalID(ctx context.Context, db ports.DBTX, externalID string) (*models.PaymentRecord, error) {
	row := r.executor(db).QueryRow(ctx, `
		SELECT id, deal_id, external_id, amount_minor_units, status, recorded_at
		FROM payments WHERE external_id = $1`, externalID)

	var record models.PaymentRecord
	var status string
	err := row.Scan(&record.ID, &record.DealID, &record.ExternalID,
		&record.AmountMinorUnits, &status, &record.RecordedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrIntentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get payment by external id: %w", err)
	}
	record.Status = models.PaymentStatus(status)
	return &record, nil
}
