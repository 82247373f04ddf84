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
	"github.com/jackc/pgx/v5/pgxpool"
)

// DealRepository implements ports.DealRepository on PostgreSQL
type DealRepository struct {
	pool *pgxpool.Pool
}

// NewDealRepository creates a new deal repository
func NewDealRepository(db ports.DBPort) *DealRepository {
	return &DealRepository{pool: db.GetDB()}
}

func (r *DealRepository) executor(db ports.DBTX) ports.DBTX {
	if db != nil {
		return db
	}
	return r.pool
}

// Create inserts a new deal
func (r *DealRepository) Create(ctx context.Context, db ports.DBTX, deal *models.Deal) error {
	_, err := r.executor(db).Exec(ctx, `
		INSERT INTO deals (id, status, amount_minor_units, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		deal.ID, string(deal.Status), deal.AmountMinorUnits, deal.Currency, deal.CreatedAt, deal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create deal: %w", err)
	}
	return nil
}

// GetByID retrieves a deal by its id
func (r *DealRepository) GetByID(ctx context.Context, db ports.DBTX, id uuid.UUID) (*models.Deal, error) {
	row := r.executor(db).QueryRow(ctx, `
		SELECT id, status, amount_minor_units, currency, created_at, updated_at
		FROM deals WHERE id = $1`, id)

	var deal models.Deal
	var status string
	err := row.Scan(&deal.ID, &status, &deal.AmountMinorUnits, &deal.Currency, &deal.CreatedAt, &deal.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrDealNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get deal by id: %w", err)
	}
	deal.Status = models.DealStatus(status)
	return &deal, nil
}

// TransitionStatus moves a deal from one status to another. The UPDATE is
// conditional on the expected current status; zero rows affected means the
// deal was absent or already past the expected state, reported as
// ErrDealStateConflict so callers can decide whether that is benign.
func (r *DealRepository) TransitionStatus(ctx context.Context, db ports.DBTX, id uuid.UUID, from, to models.DealStatus) error {
	if !from.CanTransitionTo(to) {
		return domain.NewDomainError(domain.ErrorCodeDealStateConflict,
			fmt.Sprintf("transition %s -> %s is not allowed", from, to))
	}

	tag, err := r.executor(db).Exec(ctx, `
		UPDATE deals SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2`,
		id, string(from), string(to),
	)
	if err != nil {
		return fmt.Errorf("transition deal status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDealStateConflict
	}
	return nil
}
