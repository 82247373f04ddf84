package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	adapterports "github.com/dealpay/payment-service/internal/adapters/ports"
	"github.com/dealpay/payment-service/internal/domain"
	"github.com/dealpay/payment-service/pkg/resilience"
)

// maxPayloadBytes bounds the webhook body size. Processor events are small;
// anything larger is not a legitimate delivery.
const maxPayloadBytes = 64 * 1024

// signatureHeader is the header carrying the processor's payload signature
const signatureHeader = "Stripe-Signature"

// Reconciler applies an authenticated webhook delivery
type Reconciler interface {
	HandleEvent(ctx context.Context, payload []byte, signatureHeader string) error
}

// Handler serves the processor webhook endpoint
type Handler struct {
	reconciler Reconciler
	logger     adapterports.Logger
	timeouts   *resilience.TimeoutConfig
}

// NewHandler creates a new webhook handler
func NewHandler(reconciler Reconciler, logger adapterports.Logger, timeouts *resilience.TimeoutConfig) *Handler {
	return &Handler{
		reconciler: reconciler,
		logger:     logger,
		timeouts:   timeouts,
	}
}

// HandleWebhook handles POST /webhooks/payment.
//
// Status codes drive the processor's redelivery behavior: 200 acknowledges
// the event and stops redelivery, 400 rejects an unauthenticated or
// malformed delivery, and 500 asks the processor to redeliver after a
// transient failure.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		h.logger.Warn("webhook body read failed", adapterports.Err(err))
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	err = h.reconciler.HandleEvent(ctx, body, r.Header.Get(signatureHeader))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
	case domain.IsAuthError(err):
		h.logger.Warn("webhook rejected: signature verification failed")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "signature verification failed"})
	default:
		// Transient failure before the event could be recorded; the
		// processor will redeliver
		h.logger.Error("webhook processing failed", adapterports.Err(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "event processing failed"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
