package stripe_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	stripeadapter "github.com/dealpay/payment-service/internal/adapters/stripe"
	"github.com/dealpay/payment-service/internal/domain"
	"github.com/dealpay/payment-service/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testWebhookSecret = "whsec_test_secret"

// signPayload produces a Stripe-Signature header for the payload using the
// t=...,v1=... scheme that webhook.ConstructEvent verifies
func signPayload(payload []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", at.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func eventPayload(eventType, intentID, dealID string, amount int64) []byte {
	metadata := "{}"
	if dealID != "" {
		metadata = fmt.Sprintf(`{"deal_id":%q}`, dealID)
	}
	return []byte(fmt.Sprintf(`{
		"id": "evt_test_1",
		"object": "event",
		"type": %q,
		"data": {
			"object": {
				"id": %q,
				"object": "payment_intent",
				"amount": %d,
				"currency": "usd",
				"status": "succeeded",
				"metadata": %s
			}
		}
	}`, eventType, intentID, amount, metadata))
}

func newTestGateway() *stripeadapter.Gateway {
	return stripeadapter.NewGateway("sk_test_key", testWebhookSecret, zap.NewNop())
}

func TestVerifyEvent_SucceededWithMetadata(t *testing.T) {
	gateway := newTestGateway()
	payload := eventPayload("payment_intent.succeeded", "pi_123", "9f1c7f4e-21aa-4c3e-9d3b-0a5b1c2d3e4f", 5000)
	header := signPayload(payload, testWebhookSecret, time.Now())

	event, err := gateway.VerifyEvent(payload, header)
	require.NoError(t, err)

	assert.Equal(t, models.EventIntentSucceeded, event.Kind)
	assert.Equal(t, "payment_intent.succeeded", event.RawType)
	require.NotNil(t, event.Intent)
	assert.Equal(t, "pi_123", event.Intent.ExternalID)
	assert.Equal(t, int64(5000), event.Intent.AmountMinorUnits)
	assert.Equal(t, "usd", event.Intent.Currency)
	assert.Equal(t, "9f1c7f4e-21aa-4c3e-9d3b-0a5b1c2d3e4f", event.Intent.DealID)
}

func TestVerifyEvent_SucceededWithoutMetadata(t *testing.T) {
	gateway := newTestGateway()
	payload := eventPayload("payment_intent.succeeded", "pi_123", "", 5000)
	header := signPayload(payload, testWebhookSecret, time.Now())

	event, err := gateway.VerifyEvent(payload, header)
	require.NoError(t, err)

	require.NotNil(t, event.Intent)
	assert.Empty(t, event.Intent.DealID)
}

func TestVerifyEvent_PaymentFailed(t *testing.T) {
	gateway := newTestGateway()
	payload := eventPayload("payment_intent.payment_failed", "pi_456", "9f1c7f4e-21aa-4c3e-9d3b-0a5b1c2d3e4f", 2500)
	header := signPayload(payload, testWebhookSecret, time.Now())

	event, err := gateway.VerifyEvent(payload, header)
	require.NoError(t, err)

	assert.Equal(t, models.EventIntentFailed, event.Kind)
	require.NotNil(t, event.Intent)
	assert.Equal(t, "pi_456", event.Intent.ExternalID)
}

func TestVerifyEvent_MethodAttachedIsInformational(t *testing.T) {
	gateway := newTestGateway()
	payload := []byte(`{"id":"evt_pm","object":"event","type":"payment_method.attached","data":{"object":{"id":"pm_1","object":"payment_method"}}}`)
	header := signPayload(payload, testWebhookSecret, time.Now())

	event, err := gateway.VerifyEvent(payload, header)
	require.NoError(t, err)

	assert.Equal(t, models.EventMethodAttached, event.Kind)
	assert.Nil(t, event.Intent)
}

func TestVerifyEvent_UnrecognizedType(t *testing.T) {
	gateway := newTestGateway()
	payload := []byte(`{"id":"evt_x","object":"event","type":"charge.refunded","data":{"object":{"id":"ch_1","object":"charge"}}}`)
	header := signPayload(payload, testWebhookSecret, time.Now())

	event, err := gateway.VerifyEvent(payload, header)
	require.NoError(t, err)

	assert.Equal(t, models.EventUnrecognized, event.Kind)
	assert.Equal(t, "charge.refunded", event.RawType)
	assert.Nil(t, event.Intent)
}

func TestVerifyEvent_ForgedSignature(t *testing.T) {
	gateway := newTestGateway()
	payload := eventPayload("payment_intent.succeeded", "pi_123", "", 5000)
	header := signPayload(payload, "whsec_wrong_secret", time.Now())

	event, err := gateway.VerifyEvent(payload, header)
	require.Error(t, err)
	assert.Nil(t, event)
	assert.True(t, domain.IsAuthError(err))
}

func TestVerifyEvent_MissingHeader(t *testing.T) {
	gateway := newTestGateway()
	payload := eventPayload("payment_intent.succeeded", "pi_123", "", 5000)

	_, err := gateway.VerifyEvent(payload, "")
	require.Error(t, err)
	assert.True(t, domain.IsAuthError(err))
}

func TestVerifyEvent_StaleTimestampRejected(t *testing.T) {
	gateway := newTestGateway()
	payload := eventPayload("payment_intent.succeeded", "pi_123", "", 5000)
	header := signPayload(payload, testWebhookSecret, time.Now().Add(-time.Hour))

	_, err := gateway.VerifyEvent(payload, header)
	require.Error(t, err)
	assert.True(t, domain.IsAuthError(err))
}

func TestVerifyEvent_TamperedPayload(t *testing.T) {
	gateway := newTestGateway()
	payload := eventPayload("payment_intent.succeeded", "pi_123", "", 5000)
	header := signPayload(payload, testWebhookSecret, time.Now())

	tampered := eventPayload("payment_intent.succeeded", "pi_123", "", 999999)
	_, err := gateway.VerifyEvent(tampered, header)
	require.Error(t, err)
	assert.True(t, domain.IsAuthError(err))
}
