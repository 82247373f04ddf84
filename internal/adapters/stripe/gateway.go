package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dealpay/payment-service/internal/domain"
	"github.com/dealpay/payment-service/internal/domain/models"
	"github.com/dealpay/payment-service/internal/domain/ports"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"
)

// dealIDMetadataKey is the metadata key carrying the correlation id on
// processor intents and echoed back in webhook events
const dealIDMetadataKey = "deal_id"

// Gateway implements ports.ProcessorGateway against the Stripe API.
// It holds no state beyond the API client and the webhook signing secret.
type Gateway struct {
	api           *client.API
	webhookSecret string
	logger        *zap.Logger
}

// NewGateway creates a Stripe processor gateway
func NewGateway(apiKey, webhookSecret string, logger *zap.Logger) *Gateway {
	api := &client.API{}
	api.Init(apiKey, nil)

	return &Gateway{
		api:           api,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

// CreateIntent opens a payment intent scoped to the amount and currency,
// with the deal id embedded as correlation metadata
func (g *Gateway) CreateIntent(ctx context.Context, req *ports.CreateIntentRequest) (*ports.IntentInfo, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountMinorUnits),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata(dealIDMetadataKey, req.DealID)

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		g.logger.Error("Stripe payment intent creation failed",
			zap.String("deal_id", req.DealID),
			zap.Error(err),
		)
		return nil, g.mapError(err)
	}

	g.logger.Info("Stripe payment intent created",
		zap.String("intent_id", pi.ID),
		zap.String("deal_id", req.DealID),
		zap.Int64("amount_minor_units", pi.Amount),
	)

	return toIntentInfo(pi), nil
}

// RetrieveIntent fetches the current remote state of an intent
func (g *Gateway) RetrieveIntent(ctx context.Context, externalID string) (*ports.IntentInfo, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Get(externalID, params)
	if err != nil {
		g.logger.Warn("Stripe payment intent retrieval failed",
			zap.String("intent_id", externalID),
			zap.Error(err),
		)
		return nil, g.mapError(err)
	}

	return toIntentInfo(pi), nil
}

// VerifyEvent authenticates the raw payload against the signing secret and
// classifies it into the closed event-variant set. Signature, timestamp, and
// body-shape failures all collapse into ErrWebhookAuthFailed: nothing past
// this point runs on an unauthenticated payload.
func (g *Gateway) VerifyEvent(payload []byte, signatureHeader string) (*models.ProcessorEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeWebhookAuthFailed,
			"webhook signature verification failed", err)
	}

	classified := &models.ProcessorEvent{
		ID:      event.ID,
		RawType: string(event.Type),
	}

	switch string(event.Type) {
	case "payment_intent.succeeded":
		classified.Kind = models.EventIntentSucceeded
	case "payment_intent.payment_failed":
		classified.Kind = models.EventIntentFailed
	case "payment_method.attached":
		classified.Kind = models.EventMethodAttached
		return classified, nil
	default:
		classified.Kind = models.EventUnrecognized
		return classified, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeGatewayError,
			fmt.Sprintf("decode %s payload", event.Type), err)
	}

	classified.Intent = &models.IntentSnapshot{
		ExternalID:       pi.ID,
		AmountMinorUnits: pi.Amount,
		Currency:         string(pi.Currency),
		Status:           string(pi.Status),
		DealID:           pi.Metadata[dealIDMetadataKey],
	}

	return classified, nil
}

// mapError translates Stripe client errors into domain errors so raw
// processor detail never escapes the gateway
func (g *Gateway) mapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.WrapError(domain.ErrorCodeGatewayTimeout, "payment processor timeout", err)
	}

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch {
		case stripeErr.Code == stripe.ErrorCodeResourceMissing:
			return domain.WrapError(domain.ErrorCodeIntentNotFound, "payment intent not found", err)
		case stripeErr.HTTPStatusCode >= 500:
			return domain.WrapError(domain.ErrorCodeGatewayUnavailable, "payment processor unavailable", err)
		default:
			return domain.WrapError(domain.ErrorCodeGatewayError, "payment processor error", err)
		}
	}

	// Transport-level failure (DNS, connection reset, TLS)
	return domain.WrapError(domain.ErrorCodeGatewayUnavailable, "payment processor unavailable", err)
}

func toIntentInfo(pi *stripe.PaymentIntent) *ports.IntentInfo {
	return &ports.IntentInfo{
		ExternalID:       pi.ID,
		ClientSecret:     pi.ClientSecret,
		AmountMinorUnits: pi.Amount,
		Currency:         string(pi.Currency),
		Status:           string(pi.Status),
		DealID:           pi.Metadata[dealIDMetadataKey],
		CreatedAt:        time.Unix(pi.Created, 0).UTC(),
	}
}
