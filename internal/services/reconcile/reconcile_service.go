package reconcile

import (
	"context"
	"errors"
	"time"

	adapterports "github.com/dealpay/payment-service/internal/adapters/ports"
	"github.com/dealpay/payment-service/internal/domain"
	"github.com/dealpay/payment-service/internal/domain/models"
	"github.com/dealpay/payment-service/internal/domain/ports"
	"github.com/dealpay/payment-service/pkg/observability"
	"github.com/dealpay/payment-service/pkg/resilience"
	"github.com/google/uuid"
)

// Service reconciles processor webhook notifications into the payment ledger
// and the deal lifecycle. It is the only writer of PaymentRecords and the
// only component that moves deals into a terminal state.
type Service struct {
	deals    ports.DealRepository
	intents  ports.IntentRepository
	payments ports.PaymentRepository
	gateway  ports.ProcessorGateway
	logger   adapterports.Logger
	timeouts *resilience.TimeoutConfig
}

// NewService creates a new reconciliation service
func NewService(
	deals ports.DealRepository,
	intents ports.IntentRepository,
	payments ports.PaymentRepository,
	gateway ports.ProcessorGateway,
	logger adapterports.Logger,
	timeouts *resilience.TimeoutConfig,
) *Service {
	return &Service{
		deals:    deals,
		intents:  intents,
		payments: payments,
		gateway:  gateway,
		logger:   logger,
		timeouts: timeouts,
	}
}

// HandleEvent authenticates a raw webhook delivery and applies it.
//
// A signature failure returns an auth error and nothing is written. An
// authenticated event that fails its primary ledger write returns an error
// so the processor redelivers; everything after the primary write is
// best-effort, because redelivery plus the idempotent ledger heals any
// partial application.
func (s *Service) HandleEvent(ctx context.Context, payload []byte, signatureHeader string) error {
	event, err := s.gateway.VerifyEvent(payload, signatureHeader)
	if err != nil {
		observability.RecordWebhookEvent("unknown", "auth_failed")
		return err
	}

	s.logger.Debug("webhook event authenticated",
		adapterports.String("event_id", event.ID),
		adapterports.String("kind", string(event.Kind)),
		adapterports.String("raw_type", event.RawType),
	)

	switch event.Kind {
	case models.EventIntentSucceeded:
		return s.applyTerminal(ctx, event, models.PaymentCompleted, models.IntentSucceeded, models.DealCompleted)
	case models.EventIntentFailed:
		return s.applyTerminal(ctx, event, models.PaymentFailed, models.IntentPaymentFailed, models.DealFailed)
	case models.EventMethodAttached:
		// Informational only; acknowledged so the processor stops redelivering
		s.logger.Info("payment method attached",
			adapterports.String("event_id", event.ID),
		)
		observability.RecordWebhookEvent(string(event.Kind), "applied")
		return nil
	default:
		s.logger.Info("unrecognized webhook event acknowledged",
			adapterports.String("event_id", event.ID),
			adapterports.String("raw_type", event.RawType),
		)
		observability.RecordWebhookEvent(string(models.EventUnrecognized), "applied")
		return nil
	}
}

// applyTerminal applies a terminal intent outcome in three steps: the
// idempotent ledger write, then the intent mirror update, then the deal
// transition. Only the first step can fail the whole operation.
func (s *Service) applyTerminal(
	ctx context.Context,
	event *models.ProcessorEvent,
	paymentStatus models.PaymentStatus,
	intentStatus models.IntentStatus,
	dealStatus models.DealStatus,
) error {
	snap := event.Intent
	if snap == nil || snap.ExternalID == "" {
		s.logger.Warn("terminal event missing intent payload",
			adapterports.String("event_id", event.ID),
		)
		observability.RecordWebhookEvent(string(event.Kind), "error")
		return nil
	}

	dealID, ok := s.correlateDeal(ctx, event, snap)
	if !ok {
		// No deal to update; nothing further can be applied
		observability.RecordWebhookEvent(string(event.Kind), "uncorrelated")
		return nil
	}

	inserted, err := s.payments.RecordOnce(ctx, nil, &models.PaymentRecord{
		ID:               uuid.New(),
		DealID:           dealID,
		ExternalID:       snap.ExternalID,
		AmountMinorUnits: snap.AmountMinorUnits,
		Status:           paymentStatus,
		RecordedAt:       time.Now().UTC(),
	})
	if err != nil {
		// Failing here makes the processor redeliver; the ledger's
		// idempotency key makes the retry safe
		s.logger.Error("payment record write failed",
			adapterports.String("event_id", event.ID),
			adapterports.String("intent_id", snap.ExternalID),
			adapterports.Err(err),
		)
		observability.RecordWebhookEvent(string(event.Kind), "error")
		return domain.WrapError(domain.ErrorCodeDatabaseError, "record payment", err)
	}

	if inserted {
		observability.RecordWebhookEvent(string(event.Kind), "applied")
		observability.RecordPayment(string(paymentStatus), snap.Currency, snap.AmountMinorUnits)
	} else {
		// Redelivery. The secondary updates still run so a previously
		// interrupted application converges.
		s.logger.Info("duplicate webhook delivery absorbed",
			adapterports.String("event_id", event.ID),
			adapterports.String("intent_id", snap.ExternalID),
		)
		observability.RecordWebhookEvent(string(event.Kind), "duplicate")
	}

	s.applySecondaryEffects(ctx, event, snap, dealID, intentStatus, dealStatus)
	return nil
}

// correlateDeal resolves the deal a terminal event belongs to, preferring
// the metadata echoed back by the processor and falling back to the local
// intent mirror
func (s *Service) correlateDeal(ctx context.Context, event *models.ProcessorEvent, snap *models.IntentSnapshot) (uuid.UUID, bool) {
	if snap.DealID != "" {
		id, err := uuid.Parse(snap.DealID)
		if err == nil {
			return id, true
		}
		s.logger.Warn("event carries malformed deal reference",
			adapterports.String("event_id", event.ID),
			adapterports.String("deal_id", snap.DealID),
		)
	}

	record, err := s.intents.GetByExternalID(ctx, nil, snap.ExternalID)
	if err == nil {
		return record.DealID, true
	}
	if !domain.IsNotFoundError(err) {
		s.logger.Error("intent lookup failed during correlation",
			adapterports.String("event_id", event.ID),
			adapterports.String("intent_id", snap.ExternalID),
			adapterports.Err(err),
		)
	} else {
		s.logger.Warn("event references an intent this service never issued",
			adapterports.String("event_id", event.ID),
			adapterports.String("intent_id", snap.ExternalID),
		)
	}
	return uuid.Nil, false
}

// applySecondaryEffects mirrors the intent status and transitions the deal.
// Failures are logged and absorbed: the event has already been recorded and
// must be acknowledged, and a later delivery or manual sweep converges the
// remaining state.
func (s *Service) applySecondaryEffects(
	ctx context.Context,
	event *models.ProcessorEvent,
	snap *models.IntentSnapshot,
	dealID uuid.UUID,
	intentStatus models.IntentStatus,
	dealStatus models.DealStatus,
) {
	secCtx, cancel := s.timeouts.NonCriticalContext(ctx)
	defer cancel()

	if err := s.intents.UpdateStatus(secCtx, nil, snap.ExternalID, intentStatus); err != nil {
		if domain.IsNotFoundError(err) {
			// Intent opened outside this service; the ledger record stands
			// on its own
			s.logger.Debug("no local intent mirror to update",
				adapterports.String("intent_id", snap.ExternalID),
			)
		} else {
			s.logger.Warn("intent status mirror update failed",
				adapterports.String("event_id", event.ID),
				adapterports.String("intent_id", snap.ExternalID),
				adapterports.Err(err),
			)
		}
	}

	err := s.deals.TransitionStatus(secCtx, nil, dealID, models.DealPending, dealStatus)
	switch {
	case err == nil:
		s.logger.Info("deal transitioned",
			adapterports.String("deal_id", dealID.String()),
			adapterports.String("status", string(dealStatus)),
		)
		observability.RecordDealTransition(string(dealStatus), "applied")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		s.logger.Warn("deal transition timed out",
			adapterports.String("deal_id", dealID.String()),
			adapterports.Err(err),
		)
		observability.RecordDealTransition(string(dealStatus), "error")
	case domain.IsConflictError(err):
		// Benign on redelivery: the deal already reached its terminal state
		s.logger.Debug("deal already terminal",
			adapterports.String("deal_id", dealID.String()),
		)
		observability.RecordDealTransition(string(dealStatus), "conflict")
	default:
		s.logger.Warn("deal transition failed",
			adapterports.String("deal_id", dealID.String()),
			adapterports.Err(err),
		)
		observability.RecordDealTransition(string(dealStatus), "error")
	}
}
