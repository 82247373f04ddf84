package payment

import (
	"context"
	"testing"
	"time"

	adapterports "github.com/dealpay/payment-service/internal/adapters/ports"
	"github.com/dealpay/payment-service/internal/domain"
	"github.com/dealpay/payment-service/internal/domain/models"
	"github.com/dealpay/payment-service/internal/domain/ports"
	"github.com/dealpay/payment-service/pkg/resilience"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock implementations

type MockDealRepository struct {
	mock.Mock
}

func (m *MockDealRepository) Create(ctx context.Context, db ports.DBTX, deal *models.Deal) error {
	args := m.Called(ctx, db, deal)
	return args.Error(0)
}

func (m *MockDealRepository) GetByID(ctx context.Context, db ports.DBTX, id uuid.UUID) (*models.Deal, error) {
	args := m.Called(ctx, db, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deal), args.Error(1)
}

func (m *MockDealRepository) TransitionStatus(ctx context.Context, db ports.DBTX, id uuid.UUID, from, to models.DealStatus) error {
	args := m.Called(ctx, db, id, from, to)
	return args.Error(0)
}

type MockIntentRepository struct {
	mock.Mock
}

func (m *MockIntentRepository) Create(ctx context.Context, db ports.DBTX, record *models.PaymentIntentRecord) error {
	args := m.Called(ctx, db, record)
	return args.Error(0)
}

func (m *MockIntentRepository) GetByExternalID(ctx context.Context, db ports.DBTX, externalID string) (*models.PaymentIntentRecord, error) {
	args := m.Called(ctx, db, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentIntentRecord), args.Error(1)
}

func (m *MockIntentRepository) GetActiveByDealID(ctx context.Context, db ports.DBTX, dealID uuid.UUID) (*models.PaymentIntentRecord, error) {
	args := m.Called(ctx, db, dealID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentIntentRecord), args.Error(1)
}

func (m *MockIntentRepository) UpdateStatus(ctx context.Context, db ports.DBTX, externalID string, status models.IntentStatus) error {
	args := m.Called(ctx, db, externalID, status)
	return args.Error(0)
}

type MockProcessorGateway struct {
	mock.Mock
}

func (m *MockProcessorGateway) CreateIntent(ctx context.Context, req *ports.CreateIntentRequest) (*ports.IntentInfo, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.IntentInfo), args.Error(1)
}

func (m *MockProcessorGateway) RetrieveIntent(ctx context.Context, externalID string) (*ports.IntentInfo, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.IntentInfo), args.Error(1)
}

func (m *MockProcessorGateway) VerifyEvent(payload []byte, signatureHeader string) (*models.ProcessorEvent, error) {
	args := m.Called(payload, signatureHeader)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProcessorEvent), args.Error(1)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...adapterports.Field)  {}
func (noopLogger) Error(string, ...adapterports.Field) {}
func (noopLogger) Warn(string, ...adapterports.Field)  {}
func (noopLogger) Debug(string, ...adapterports.Field) {}

func newTestService(deals *MockDealRepository, intents *MockIntentRepository, gw *MockProcessorGateway) *Service {
	return NewService(nil, deals, intents, gw, noopLogger{}, resilience.TestTimeoutConfig())
}

func payableDeal(id uuid.UUID, currency string) *models.Deal {
	return &models.Deal{
		ID:               id,
		Status:           models.DealPending,
		AmountMinorUnits: 5000,
		Currency:         currency,
		CreatedAt:        time.Now().UTC(),
		UpdatedAt:        time.Now().UTC(),
	}
}

func TestCreateIntent_Success(t *testing.T) {
	deals := new(MockDealRepository)
	intents := new(MockIntentRepository)
	gw := new(MockProcessorGateway)
	svc := newTestService(deals, intents, gw)

	dealID := uuid.New()
	deals.On("GetByID", mock.Anything, nil, dealID).Return(payableDeal(dealID, "usd"), nil)
	intents.On("GetActiveByDealID", mock.Anything, nil, dealID).Return(nil, nil)
	gw.On("CreateIntent", mock.Anything, mock.MatchedBy(func(req *ports.CreateIntentRequest) bool {
		return req.AmountMinorUnits == 5000 && req.Currency == "usd" && req.DealID == dealID.String()
	})).Return(&ports.IntentInfo{
		ExternalID:   "pi_123",
		ClientSecret: "pi_123_secret_abc",
		Status:       "requires_payment_method",
	}, nil)
	intents.On("Create", mock.Anything, nil, mock.MatchedBy(func(rec *models.PaymentIntentRecord) bool {
		return rec.ExternalID == "pi_123" &&
			rec.DealID == dealID &&
			rec.Status == models.IntentRequiresPayment
	})).Return(nil)

	resp, err := svc.CreateIntent(context.Background(), CreateIntentRequest{
		AmountMinorUnits: 5000,
		Currency:         "USD",
		DealID:           dealID.String(),
	})

	require.NoError(t, err)
	assert.Equal(t, "pi_123", resp.IntentID)
	assert.Equal(t, "pi_123_secret_abc", resp.ClientSecret)
	deals.AssertExpectations(t)
	intents.AssertExpectations(t)
	gw.AssertExpectations(t)
}

func TestCreateIntent_ValidationRejectsBeforeAnyCall(t *testing.T) {
	tests := []struct {
		name     string
		req      CreateIntentRequest
		wantCode domain.ErrorCode
	}{
		{
			name:     "amount below minimum",
			req:      CreateIntentRequest{AmountMinorUnits: 49, Currency: "usd", DealID: uuid.NewString()},
			wantCode: domain.ErrorCodeValidationAmountInvalid,
		},
		{
			name:     "zero amount",
			req:      CreateIntentRequest{AmountMinorUnits: 0, Currency: "usd", DealID: uuid.NewString()},
			wantCode: domain.ErrorCodeValidationAmountInvalid,
		},
		{
			name:     "negative amount",
			req:      CreateIntentRequest{AmountMinorUnits: -100, Currency: "usd", DealID: uuid.NewString()},
			wantCode: domain.ErrorCodeValidationAmountInvalid,
		},
		{
			name:     "currency wrong length",
			req:      CreateIntentRequest{AmountMinorUnits: 5000, Currency: "usdd", DealID: uuid.NewString()},
			wantCode: domain.ErrorCodeValidationCurrencyInvalid,
		},
		{
			name:     "missing deal id",
			req:      CreateIntentRequest{AmountMinorUnits: 5000, Currency: "usd", DealID: ""},
			wantCode: domain.ErrorCodeValidationMissingField,
		},
		{
			name:     "malformed deal id",
			req:      CreateIntentRequest{AmountMinorUnits: 5000, Currency: "usd", DealID: "not-a-uuid"},
			wantCode: domain.ErrorCodeValidationDealRefInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deals := new(MockDealRepository)
			intents := new(MockIntentRepository)
			gw := new(MockProcessorGateway)
			svc := newTestService(deals, intents, gw)

			resp, err := svc.CreateIntent(context.Background(), tt.req)

			require.Error(t, err)
			assert.Nil(t, resp)
			assert.Equal(t, tt.wantCode, domain.GetErrorCode(err))
			gw.AssertNotCalled(t, "CreateIntent", mock.Anything, mock.Anything)
			intents.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCreateIntent_DealNotFound(t *testing.T) {
	deals := new(MockDealRepository)
	intents := new(MockIntentRepository)
	gw := new(MockProcessorGateway)
	svc := newTestService(deals, intents, gw)

	dealID := uuid.New()
	deals.On("GetByID", mock.Anything, nil, dealID).Return(nil, domain.ErrDealNotFound)

	_, err := svc.CreateIntent(context.Background(), CreateIntentRequest{
		AmountMinorUnits: 5000,
		Currency:         "usd",
		DealID:           dealID.String(),
	})

	require.Error(t, err)
	assert.True(t, domain.IsNotFoundError(err))
	gw.AssertNotCalled(t, "CreateIntent", mock.Anything, mock.Anything)
}

func TestCreateIntent_DealNotPayable(t *testing.T) {
	deals := new(MockDealRepository)
	intents := new(MockIntentRepository)
	gw := new(MockProcessorGateway)
	svc := newTestService(deals, intents, gw)

	dealID := uuid.New()
	deal := payableDeal(dealID, "usd")
	deal.Status = models.DealCompleted
	deals.On("GetByID", mock.Anything, nil, dealID).Return(deal, nil)

	_, err := svc.CreateIntent(context.Background(), CreateIntentRequest{
		AmountMinorUnits: 5000,
		Currency:         "usd",
		DealID:           dealID.String(),
	})

	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeDealNotPayable, domain.GetErrorCode(err))
	gw.AssertNotCalled(t, "CreateIntent", mock.Anything, mock.Anything)
}

func TestCreateIntent_CurrencyMismatchWithDeal(t *testing.T) {
	deals := new(MockDealRepository)
	intents := new(MockIntentRepository)
	gw := new(MockProcessorGateway)
	svc := newTestService(deals, intents, gw)

	dealID := uuid.New()
	deals.On("GetByID", mock.Anything, nil, dealID).Return(payableDeal(dealID, "eur"), nil)

	_, err := svc.CreateIntent(context.Background(), CreateIntentRequest{
		AmountMinorUnits: 5000,
		Currency:         "usd",
		DealID:           dealID.String(),
	})

	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeValidationCurrencyInvalid, domain.GetErrorCode(err))
	gw.AssertNotCalled(t, "CreateIntent", mock.Anything, mock.Anything)
}

func TestCreateIntent_ActiveIntentRejected(t *testing.T) {
	deals := new(MockDealRepository)
	intents := new(MockIntentRepository)
	gw := new(MockProcessorGateway)
	svc := newTestService(deals, intents, gw)

	dealID := uuid.New()
	deals.On("GetByID", mock.Anything, nil, dealID).Return(payableDeal(dealID, "usd"), nil)
	intents.On("GetActiveByDealID", mock.Anything, nil, dealID).Return(&models.PaymentIntentRecord{
		ExternalID: "pi_existing",
		DealID:     dealID,
		Status:     models.IntentRequiresPayment,
	}, nil)

	_, err := svc.CreateIntent(context.Background(), CreateIntentRequest{
		AmountMinorUnits: 5000,
		Currency:         "usd",
		DealID:           dealID.String(),
	})

	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeIntentConflict, domain.GetErrorCode(err))
	gw.AssertNotCalled(t, "CreateIntent", mock.Anything, mock.Anything)
}

func TestCreateIntent_RaceLoserGetsConflict(t *testing.T) {
	deals := new(MockDealRepository)
	intents := new(MockIntentRepository)
	gw := new(MockProcessorGateway)
	svc := newTestService(deals, intents, gw)

	dealID := uuid.New()
	deals.On("GetByID", mock.Anything, nil, dealID).Return(payableDeal(dealID, "usd"), nil)
	intents.On("GetActiveByDealID", mock.Anything, nil, dealID).Return(nil, nil)
	gw.On("CreateIntent", mock.Anything, mock.Anything).Return(&ports.IntentInfo{
		ExternalID:   "pi_loser",
		ClientSecret: "pi_loser_secret",
	}, nil)
	// The partial unique index fires on insert because a concurrent request
	// won the race after the pre-check passed
	intents.On("Create", mock.Anything, nil, mock.Anything).Return(domain.ErrIntentConflict)

	resp, err := svc.CreateIntent(context.Background(), CreateIntentRequest{
		AmountMinorUnits: 5000,
		Currency:         "usd",
		DealID:           dealID.String(),
	})

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, domain.ErrorCodeIntentConflict, domain.GetErrorCode(err))
}

func TestCreateIntent_GatewayErrorPassesThrough(t *testing.T) {
	deals := new(MockDealRepository)
	intents := new(MockIntentRepository)
	gw := new(MockProcessorGateway)
	svc := newTestService(deals, intents, gw)

	dealID := uuid.New()
	deals.On("GetByID", mock.Anything, nil, dealID).Return(payableDeal(dealID, "usd"), nil)
	intents.On("GetActiveByDealID", mock.Anything, nil, dealID).Return(nil, nil)
	gw.On("CreateIntent", mock.Anything, mock.Anything).Return(nil, domain.ErrGatewayUnavailable)

	_, err := svc.CreateIntent(context.Background(), CreateIntentRequest{
		AmountMinorUnits: 5000,
		Currency:         "usd",
		DealID:           dealID.String(),
	})

	require.Error(t, err)
	assert.True(t, domain.IsGatewayError(err))
	intents.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetStatus_SanitizedView(t *testing.T) {
	deals := new(MockDealRepository)
	intents := new(MockIntentRepository)
	gw := new(MockProcessorGateway)
	svc := newTestService(deals, intents, gw)

	created := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	gw.On("RetrieveIntent", mock.Anything, "pi_123").Return(&ports.IntentInfo{
		ExternalID:       "pi_123",
		ClientSecret:     "pi_123_secret_abc",
		AmountMinorUnits: 5000,
		Currency:         "usd",
		Status:           "succeeded",
		DealID:           "deal-1",
		CreatedAt:        created,
	}, nil)

	view, err := svc.GetStatus(context.Background(), "pi_123")

	require.NoError(t, err)
	assert.Equal(t, "pi_123", view.IntentID)
	assert.Equal(t, int64(5000), view.AmountMinorUnits)
	assert.Equal(t, "succeeded", view.Status)
	assert.Equal(t, created, view.CreatedAt)
}

func TestGetStatus_EmptyIDRejected(t *testing.T) {
	gw := new(MockProcessorGateway)
	svc := newTestService(new(MockDealRepository), new(MockIntentRepository), gw)

	_, err := svc.GetStatus(context.Background(), "")

	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
	gw.AssertNotCalled(t, "RetrieveIntent", mock.Anything, mock.Anything)
}

func TestGetStatus_NotFoundPassesThrough(t *testing.T) {
	gw := new(MockProcessorGateway)
	svc := newTestService(new(MockDealRepository), new(MockIntentRepository), gw)

	gw.On("RetrieveIntent", mock.Anything, "pi_missing").Return(nil, domain.ErrIntentNotFound)

	_, err := svc.GetStatus(context.Background(), "pi_missing")

	require.Error(t, err)
	assert.True(t, domain.IsNotFoundError(err))
}

func TestCreateDeal_Success(t *testing.T) {
	deals := new(MockDealRepository)
	svc := newTestService(deals, new(MockIntentRepository), new(MockProcessorGateway))

	deals.On("Create", mock.Anything, nil, mock.MatchedBy(func(d *models.Deal) bool {
		return d.Status == models.DealPending && d.AmountMinorUnits == 2500 && d.Currency == "eur"
	})).Return(nil)

	deal, err := svc.CreateDeal(context.Background(), 2500, "EUR")

	require.NoError(t, err)
	assert.Equal(t, models.DealPending, deal.Status)
	assert.Equal(t, "eur", deal.Currency)
	assert.NotEqual(t, uuid.Nil, deal.ID)
}

func TestCreateDeal_InvalidInput(t *testing.T) {
	svc := newTestService(new(MockDealRepository), new(MockIntentRepository), new(MockProcessorGateway))

	_, err := svc.CreateDeal(context.Background(), 0, "usd")
	assert.Equal(t, domain.ErrorCodeValidationAmountInvalid, domain.GetErrorCode(err))

	_, err = svc.CreateDeal(context.Background(), 1000, "us")
	assert.Equal(t, domain.ErrorCodeValidationCurrencyInvalid, domain.GetErrorCode(err))
}
