package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	adapterports "github.com/dealpay/payment-service/internal/adapters/ports"
	"github.com/dealpay/payment-service/internal/domain"
	"github.com/dealpay/payment-service/internal/domain/models"
	"github.com/dealpay/payment-service/internal/domain/ports"
	"github.com/dealpay/payment-service/pkg/observability"
	"github.com/dealpay/payment-service/pkg/resilience"
	"github.com/google/uuid"
)

// MinimumChargeMinorUnits is the smallest amount the processor will charge
const MinimumChargeMinorUnits int64 = 50

// CreateIntentRequest is the issuer's input contract
type CreateIntentRequest struct {
	AmountMinorUnits int64
	Currency         string
	DealID           string
}

// CreateIntentResponse carries the client-usable secret back to the caller
type CreateIntentResponse struct {
	IntentID     string
	ClientSecret string
}

// IntentView is the sanitized verification result. It deliberately has no
// field for the client secret or raw processor error text.
type IntentView struct {
	IntentID         string
	AmountMinorUnits int64
	Currency         string
	Status           string
	DealID           string
	CreatedAt        time.Time
}

// Service implements intent issuance and verification against a deal ledger
// and a payment processor
type Service struct {
	db       ports.DBPort
	deals    ports.DealRepository
	intents  ports.IntentRepository
	gateway  ports.ProcessorGateway
	logger   adapterports.Logger
	timeouts *resilience.TimeoutConfig
}

// NewService creates a new payment service
func NewService(
	db ports.DBPort,
	deals ports.DealRepository,
	intents ports.IntentRepository,
	gateway ports.ProcessorGateway,
	logger adapterports.Logger,
	timeouts *resilience.TimeoutConfig,
) *Service {
	return &Service{
		db:       db,
		deals:    deals,
		intents:  intents,
		gateway:  gateway,
		logger:   logger,
		timeouts: timeouts,
	}
}

// CreateDeal registers a new pending deal on behalf of the product layer
func (s *Service) CreateDeal(ctx context.Context, amountMinorUnits int64, currency string) (*models.Deal, error) {
	if amountMinorUnits <= 0 {
		return nil, domain.ErrValidationAmountInvalid
	}
	currency = strings.ToLower(currency)
	if len(currency) != 3 {
		return nil, domain.ErrValidationCurrencyInvalid
	}

	now := time.Now().UTC()
	deal := &models.Deal{
		ID:               uuid.New(),
		Status:           models.DealPending,
		AmountMinorUnits: amountMinorUnits,
		Currency:         currency,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.deals.Create(ctx, nil, deal); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "create deal", err)
	}

	s.logger.Info("deal created",
		adapterports.String("deal_id", deal.ID.String()),
		adapterports.Int64("amount_minor_units", deal.AmountMinorUnits),
		adapterports.String("currency", deal.Currency),
	)

	return deal, nil
}

// CreateIntent validates the request against the referenced deal, opens a
// processor-side intent with the deal id as correlation metadata, and
// persists the local mirror record.
//
// The operation is not idempotent: a repeated call opens a new remote
// intent, so the one-active-intent-per-deal rule is what bounds the damage.
// It is enforced here by a pre-check and again by the store's partial unique
// index, which is the race-safe authority. Concurrent creation for the same
// deal is rejected, not superseded.
func (s *Service) CreateIntent(ctx context.Context, req CreateIntentRequest) (*CreateIntentResponse, error) {
	if err := validateCreateIntent(&req); err != nil {
		return nil, err
	}

	dealID, err := uuid.Parse(req.DealID)
	if err != nil {
		return nil, domain.ErrValidationDealRefInvalid
	}

	deal, err := s.deals.GetByID(ctx, nil, dealID)
	if err != nil {
		return nil, err
	}
	if !deal.IsPayable() {
		return nil, domain.ErrDealNotPayable
	}
	if deal.Currency != req.Currency {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationCurrencyInvalid,
			fmt.Sprintf("deal is denominated in %s", deal.Currency))
	}

	active, err := s.intents.GetActiveByDealID(ctx, nil, dealID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, domain.ErrIntentConflict
	}

	// Remote call first: a processor failure here leaves no partial local
	// state, and the caller is free to resubmit
	gwCtx, cancel := s.timeouts.ExternalAPIContext(ctx)
	defer cancel()

	info, err := s.gateway.CreateIntent(gwCtx, &ports.CreateIntentRequest{
		AmountMinorUnits: req.AmountMinorUnits,
		Currency:         req.Currency,
		DealID:           req.DealID,
	})
	if err != nil {
		observability.RecordIntentCreation(req.Currency, "processor_error")
		return nil, err
	}

	record := &models.PaymentIntentRecord{
		ExternalID:       info.ExternalID,
		DealID:           dealID,
		AmountMinorUnits: req.AmountMinorUnits,
		Currency:         req.Currency,
		Status:           models.IntentRequiresPayment,
		CreatedAt:        time.Now().UTC(),
		UpdatedAt:        time.Now().UTC(),
	}

	if err := s.intents.Create(ctx, nil, record); err != nil {
		// The race loser lands here: the remote intent it opened is orphaned
		// but inert, since its client secret is never returned
		if domain.IsConflictError(err) {
			s.logger.Warn("concurrent intent creation rejected",
				adapterports.String("deal_id", req.DealID),
				adapterports.String("intent_id", info.ExternalID),
			)
			observability.RecordIntentCreation(req.Currency, "rejected")
			return nil, err
		}
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "persist payment intent", err)
	}

	s.logger.Info("payment intent issued",
		adapterports.String("deal_id", req.DealID),
		adapterports.String("intent_id", info.ExternalID),
		adapterports.Int64("amount_minor_units", req.AmountMinorUnits),
	)
	observability.RecordIntentCreation(req.Currency, "created")

	return &CreateIntentResponse{
		IntentID:     info.ExternalID,
		ClientSecret: info.ClientSecret,
	}, nil
}

// GetStatus fetches the current processor-side state of an intent and
// returns a sanitized view. Read-only; safe to call repeatedly.
func (s *Service) GetStatus(ctx context.Context, intentID string) (*IntentView, error) {
	if intentID == "" {
		return nil, domain.ErrValidationMissingField
	}

	gwCtx, cancel := s.timeouts.ExternalAPIContext(ctx)
	defer cancel()

	info, err := s.gateway.RetrieveIntent(gwCtx, intentID)
	if err != nil {
		return nil, err
	}

	return &IntentView{
		IntentID:         info.ExternalID,
		AmountMinorUnits: info.AmountMinorUnits,
		Currency:         info.Currency,
		Status:           info.Status,
		DealID:           info.DealID,
		CreatedAt:        info.CreatedAt,
	}, nil
}

func validateCreateIntent(req *CreateIntentRequest) error {
	if req.AmountMinorUnits < MinimumChargeMinorUnits {
		return domain.NewDomainError(domain.ErrorCodeValidationAmountInvalid,
			fmt.Sprintf("amount must be at least %d minor units", MinimumChargeMinorUnits))
	}
	req.Currency = strings.ToLower(req.Currency)
	if len(req.Currency) != 3 {
		return domain.ErrValidationCurrencyInvalid
	}
	if req.DealID == "" {
		return domain.ErrValidationMissingField
	}
	return nil
}
