package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	adapterports "github.com/dealpay/payment-service/internal/adapters/ports"
	"github.com/dealpay/payment-service/internal/domain"
	"github.com/dealpay/payment-service/internal/domain/models"
	paymentsvc "github.com/dealpay/payment-service/internal/services/payment"
	"github.com/dealpay/payment-service/pkg/resilience"
)

// PaymentService is the slice of the service layer this handler needs
type PaymentService interface {
	CreateDeal(ctx context.Context, amountMinorUnits int64, currency string) (*models.Deal, error)
	CreateIntent(ctx context.Context, req paymentsvc.CreateIntentRequest) (*paymentsvc.CreateIntentResponse, error)
	GetStatus(ctx context.Context, intentID string) (*paymentsvc.IntentView, error)
}

// Handler serves the deal and payment-intent endpoints
type Handler struct {
	service  PaymentService
	logger   adapterports.Logger
	timeouts *resilience.TimeoutConfig
}

// NewHandler creates a new payment handler
func NewHandler(service PaymentService, logger adapterports.Logger, timeouts *resilience.TimeoutConfig) *Handler {
	return &Handler{
		service:  service,
		logger:   logger,
		timeouts: timeouts,
	}
}

type createDealRequest struct {
	AmountMinorUnits int64  `json:"amount_minor_units"`
	Currency         string `json:"currency"`
}

type createDealResponse struct {
	DealID           string `json:"deal_id"`
	Status           string `json:"status"`
	AmountMinorUnits int64  `json:"amount_minor_units"`
	Currency         string `json:"currency"`
}

type createIntentRequest struct {
	AmountMinorUnits int64  `json:"amount_minor_units"`
	Currency         string `json:"currency"`
	DealID           string `json:"deal_id"`
}

type createIntentResponse struct {
	IntentID     string `json:"intent_id"`
	ClientSecret string `json:"client_secret"`
}

type verifyRequest struct {
	IntentID string `json:"intent_id"`
}

type intentStatusResponse struct {
	IntentID         string `json:"intent_id"`
	AmountMinorUnits int64  `json:"amount_minor_units"`
	Currency         string `json:"currency"`
	Status           string `json:"status"`
	DealID           string `json:"deal_id,omitempty"`
	CreatedAt        string `json:"created_at"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// CreateDeal handles POST /api/v1/deals
func (h *Handler) CreateDeal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	var req createDealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", string(domain.ErrorCodeValidationFailed))
		return
	}

	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	deal, err := h.service.CreateDeal(ctx, req.AmountMinorUnits, req.Currency)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createDealResponse{
		DealID:           deal.ID.String(),
		Status:           string(deal.Status),
		AmountMinorUnits: deal.AmountMinorUnits,
		Currency:         deal.Currency,
	})
}

// CreateIntent handles POST /api/v1/payment-intents
func (h *Handler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	var req createIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", string(domain.ErrorCodeValidationFailed))
		return
	}

	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	resp, err := h.service.CreateIntent(ctx, paymentsvc.CreateIntentRequest{
		AmountMinorUnits: req.AmountMinorUnits,
		Currency:         req.Currency,
		DealID:           req.DealID,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, createIntentResponse{
		IntentID:     resp.IntentID,
		ClientSecret: resp.ClientSecret,
	})
}

// VerifyIntent handles POST /api/v1/payment-intents/verify
func (h *Handler) VerifyIntent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", string(domain.ErrorCodeValidationFailed))
		return
	}

	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	view, err := h.service.GetStatus(ctx, req.IntentID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, intentStatusResponse{
		IntentID:         view.IntentID,
		AmountMinorUnits: view.AmountMinorUnits,
		Currency:         view.Currency,
		Status:           view.Status,
		DealID:           view.DealID,
		CreatedAt:        view.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// writeServiceError maps domain errors to HTTP status codes. Response bodies
// carry the domain message and code only, never raw processor or database
// detail.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	code := domain.GetErrorCode(err)
	message := "request failed"
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		message = domainErr.Message
	}

	var status int
	switch {
	case domain.IsValidationError(err):
		status = http.StatusBadRequest
	case domain.IsNotFoundError(err):
		status = http.StatusNotFound
	case domain.IsConflictError(err):
		status = http.StatusConflict
	case domain.IsGatewayError(err):
		status = http.StatusBadGateway
	default:
		// Internal detail stays in the logs
		h.logger.Error("request failed", adapterports.Err(err))
		status = http.StatusInternalServerError
		message = "internal server error"
	}

	writeError(w, status, message, string(code))
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}
