package ports

import (
	"context"
	"time"

	"github.com/dealpay/payment-service/internal/domain/models"
)

// CreateIntentRequest carries everything the processor needs to open an
// intent. DealID travels as correlation metadata and is echoed back in
// webhook events for that intent.
type CreateIntentRequest struct {
	AmountMinorUnits int64
	Currency         string
	DealID           string
}

// IntentInfo is the processor-side view of a payment intent.
// ClientSecret is only populated on creation and must never be exposed
// through the verification path.
type IntentInfo struct {
	ExternalID       string
	ClientSecret     string
	AmountMinorUnits int64
	Currency         string
	Status           string
	DealID           string
	CreatedAt        time.Time
}

// ProcessorGateway is the thin adapter over the external payment processor.
// Implementations hold no internal state beyond the API client; all errors
// are returned as domain errors so callers never see raw processor detail.
type ProcessorGateway interface {
	// CreateIntent opens a remote payment intent scoped to the amount and
	// currency, embedding the deal id as correlation metadata
	CreateIntent(ctx context.Context, req *CreateIntentRequest) (*IntentInfo, error)

	// RetrieveIntent fetches the current remote state of an intent
	RetrieveIntent(ctx context.Context, externalID string) (*IntentInfo, error)

	// VerifyEvent authenticates a raw webhook payload against the signing
	// secret and classifies it into a ProcessorEvent. Any authentication
	// failure returns ErrWebhookAuthFailed and no event.
	VerifyEvent(payload []byte, signatureHeader string) (*models.ProcessorEvent, error)
}
