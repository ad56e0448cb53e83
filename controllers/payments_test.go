package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/etiditalex/CMFagency-sub001/models"
	"github.com/etiditalex/CMFagency-sub001/utils"
)

type mockCampaignStore struct {
	mock.Mock
}

func (m *mockCampaignStore) FindBySlug(ctx context.Context, slug string) (*models.Campaign, error) {
	args := m.Called(ctx, slug)
	if c := args.Get(0); c != nil {
		return c.(*models.Campaign), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCampaignStore) FindContestant(ctx context.Context, campaignID, contestantID uint) (*models.Contestant, error) {
	args := m.Called(ctx, campaignID, contestantID)
	if c := args.Get(0); c != nil {
		return c.(*models.Contestant), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCampaignStore) Contestants(ctx context.Context, campaignID uint) ([]models.Contestant, error) {
	args := m.Called(ctx, campaignID)
	if list := args.Get(0); list != nil {
		return list.([]models.Contestant), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockTransactionStore struct {
	mock.Mock
}

func (m *mockTransactionStore) Create(ctx context.Context, txn *models.Transaction) error {
	args := m.Called(ctx, txn)
	txn.ID = 42
	return args.Error(0)
}

func (m *mockTransactionStore) UpdateMetadata(ctx context.Context, id uint, metadata map[string]string) error {
	args := m.Called(ctx, id, metadata)
	return args.Error(0)
}

func (m *mockTransactionStore) FindByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	args := m.Called(ctx, reference)
	if txn := args.Get(0); txn != nil {
		return txn.(*models.Transaction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTransactionStore) FindByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*models.Transaction, error) {
	args := m.Called(ctx, checkoutRequestID)
	if txn := args.Get(0); txn != nil {
		return txn.(*models.Transaction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTransactionStore) MarkTerminal(ctx context.Context, id uint, status models.TransactionStatus, metadata map[string]string) (bool, error) {
	args := m.Called(ctx, id, status, metadata)
	return args.Bool(0), args.Error(1)
}

type mockCheckoutGateway struct {
	mock.Mock
}

func (m *mockCheckoutGateway) Configured() bool {
	return m.Called().Bool(0)
}

func (m *mockCheckoutGateway) Initialize(ctx context.Context, in utils.PaystackInitRequest) (*utils.PaystackInitData, error) {
	args := m.Called(ctx, in)
	if d := args.Get(0); d != nil {
		return d.(*utils.PaystackInitData), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockStkGateway struct {
	mock.Mock
}

func (m *mockStkGateway) Configured() bool {
	return m.Called().Bool(0)
}

func (m *mockStkGateway) Push(ctx context.Context, in utils.StkPushRequest) (*utils.StkPushData, error) {
	args := m.Called(ctx, in)
	if d := args.Get(0); d != nil {
		return d.(*utils.StkPushData), args.Error(1)
	}
	return nil, args.Error(1)
}

func ticketCampaign() *models.Campaign {
	return &models.Campaign{
		ID: 1, Type: models.CampaignTicket, Slug: "gala-2026", Title: "Gala Night",
		Currency: "KES", UnitAmount: 300, MaxPerTxn: 10, Active: true,
	}
}

func voteCampaign() *models.Campaign {
	return &models.Campaign{
		ID: 2, Type: models.CampaignVote, Slug: "talent-awards", Title: "Talent Awards",
		Currency: "KES", UnitAmount: 50, MaxPerTxn: 100, Active: true,
	}
}

func newPaymentFixture() (*PaymentController, *mockCampaignStore, *mockTransactionStore, *mockCheckoutGateway, *mockStkGateway) {
	campaigns := new(mockCampaignStore)
	transactions := new(mockTransactionStore)
	paystack := new(mockCheckoutGateway)
	mpesa := new(mockStkGateway)
	ctrl := NewPaymentController(campaigns, transactions, paystack, mpesa, testConfig())
	return ctrl, campaigns, transactions, paystack, mpesa
}

func postJSON(handler http.HandlerFunc, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body["error"]
}

func TestHandleCheckout_Success(t *testing.T) {
	ctrl, campaigns, transactions, paystack, _ := newPaymentFixture()

	campaigns.On("FindBySlug", mock.Anything, "gala-2026").Return(ticketCampaign(), nil)
	paystack.On("Configured").Return(true)
	transactions.On("Create", mock.Anything, mock.MatchedBy(func(txn *models.Transaction) bool {
		return txn.Status == models.TxnPending &&
			txn.Provider == models.ProviderPaystack &&
			txn.Amount == 3000 &&
			txn.Quantity == 10 &&
			strings.HasPrefix(txn.Reference, "CMF-")
	})).Return(nil)
	// the gateway receives the full precomputed total, never a per-unit amount
	paystack.On("Initialize", mock.Anything, mock.MatchedBy(func(in utils.PaystackInitRequest) bool {
		return in.Amount == 3000 && in.Currency == "KES" && in.Email == "payer@example.com"
	})).Return(&utils.PaystackInitData{AuthorizationURL: "https://checkout.paystack.com/abc"}, nil)

	rec := postJSON(ctrl.HandleCheckout, "/v1/payments/checkout",
		`{"slug":"gala-2026","quantity":10,"email":"payer@example.com"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	assert.Equal(t, "https://checkout.paystack.com/abc", resp["authorization_url"])
	assert.True(t, strings.HasPrefix(resp["reference"], "CMF-"))
	paystack.AssertExpectations(t)
	transactions.AssertExpectations(t)
}

func TestHandleCheckout_UnknownSlug(t *testing.T) {
	ctrl, campaigns, _, _, _ := newPaymentFixture()
	campaigns.On("FindBySlug", mock.Anything, "no-such").Return(nil, nil)

	rec := postJSON(ctrl.HandleCheckout, "/v1/payments/checkout",
		`{"slug":"no-such","quantity":1,"email":"p@example.com"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, errorBody(t, rec))
}

func TestHandleCheckout_InvalidInput(t *testing.T) {
	ctrl, _, _, _, _ := newPaymentFixture()

	for name, body := range map[string]string{
		"bad slug":     `{"slug":"Bad Slug!","quantity":1,"email":"p@example.com"}`,
		"zero qty":     `{"slug":"gala-2026","quantity":0,"email":"p@example.com"}`,
		"negative qty": `{"slug":"gala-2026","quantity":-3,"email":"p@example.com"}`,
		"no email":     `{"slug":"gala-2026","quantity":1}`,
	} {
		rec := postJSON(ctrl.HandleCheckout, "/v1/payments/checkout", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
}

func TestHandleCheckout_QuantityClamped(t *testing.T) {
	ctrl, campaigns, transactions, paystack, _ := newPaymentFixture()

	campaigns.On("FindBySlug", mock.Anything, "gala-2026").Return(ticketCampaign(), nil)
	paystack.On("Configured").Return(true)
	transactions.On("Create", mock.Anything, mock.MatchedBy(func(txn *models.Transaction) bool {
		return txn.Quantity == 10 && txn.Amount == 3000
	})).Return(nil)
	paystack.On("Initialize", mock.Anything, mock.MatchedBy(func(in utils.PaystackInitRequest) bool {
		return in.Amount == 3000
	})).Return(&utils.PaystackInitData{AuthorizationURL: "https://checkout.paystack.com/x"}, nil)

	rec := postJSON(ctrl.HandleCheckout, "/v1/payments/checkout",
		`{"slug":"gala-2026","quantity":999,"email":"p@example.com"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	transactions.AssertExpectations(t)
}

func TestHandleCheckout_VoteRequiresContestant(t *testing.T) {
	ctrl, campaigns, _, _, _ := newPaymentFixture()
	campaigns.On("FindBySlug", mock.Anything, "talent-awards").Return(voteCampaign(), nil)

	rec := postJSON(ctrl.HandleCheckout, "/v1/payments/checkout",
		`{"slug":"talent-awards","quantity":5,"email":"p@example.com"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorBody(t, rec), "contestant_id")
}

func TestHandleCheckout_ContestantFromOtherCampaign(t *testing.T) {
	ctrl, campaigns, _, _, _ := newPaymentFixture()
	campaigns.On("FindBySlug", mock.Anything, "talent-awards").Return(voteCampaign(), nil)
	campaigns.On("FindContestant", mock.Anything, uint(2), uint(77)).Return(nil, nil)

	rec := postJSON(ctrl.HandleCheckout, "/v1/payments/checkout",
		`{"slug":"talent-awards","quantity":5,"email":"p@example.com","contestant_id":77}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCheckout_GatewayFailureLeavesRowPending(t *testing.T) {
	ctrl, campaigns, transactions, paystack, _ := newPaymentFixture()

	campaigns.On("FindBySlug", mock.Anything, "gala-2026").Return(ticketCampaign(), nil)
	paystack.On("Configured").Return(true)
	transactions.On("Create", mock.Anything, mock.Anything).Return(nil)
	paystack.On("Initialize", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	rec := postJSON(ctrl.HandleCheckout, "/v1/payments/checkout",
		`{"slug":"gala-2026","quantity":1,"email":"p@example.com"}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	// the pending row is not touched after the gateway failure
	transactions.AssertNotCalled(t, "MarkTerminal", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleMpesa_Success(t *testing.T) {
	ctrl, campaigns, transactions, _, mpesa := newPaymentFixture()

	campaigns.On("FindBySlug", mock.Anything, "talent-awards").Return(voteCampaign(), nil)
	campaigns.On("FindContestant", mock.Anything, uint(2), uint(9)).
		Return(&models.Contestant{ID: 9, CampaignID: 2, Name: "Akinyi"}, nil)
	mpesa.On("Configured").Return(true)
	transactions.On("Create", mock.Anything, mock.MatchedBy(func(txn *models.Transaction) bool {
		return txn.Provider == models.ProviderMpesa &&
			txn.Amount == 300 && txn.Quantity == 6 &&
			txn.ContestantID != nil && *txn.ContestantID == 9
	})).Return(nil)
	mpesa.On("Push", mock.Anything, mock.MatchedBy(func(in utils.StkPushRequest) bool {
		return in.Phone == "254712345678" && in.Amount == 300
	})).Return(&utils.StkPushData{CheckoutRequestID: "ws_CO_1"}, nil)
	transactions.On("UpdateMetadata", mock.Anything, uint(42), mock.MatchedBy(func(meta map[string]string) bool {
		return meta["checkout_request_id"] == "ws_CO_1"
	})).Return(nil)

	rec := postJSON(ctrl.HandleMpesa, "/v1/payments/mpesa",
		`{"slug":"talent-awards","quantity":6,"phone":"0712 345 678","contestant_id":9}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	assert.Equal(t, "ws_CO_1", resp["checkout_request_id"])
	assert.NotEmpty(t, resp["reference"])
	transactions.AssertExpectations(t)
}

func TestHandleMpesa_RejectsNonKES(t *testing.T) {
	ctrl, campaigns, _, _, _ := newPaymentFixture()
	usd := ticketCampaign()
	usd.Currency = "USD"
	campaigns.On("FindBySlug", mock.Anything, "gala-2026").Return(usd, nil)

	rec := postJSON(ctrl.HandleMpesa, "/v1/payments/mpesa",
		`{"slug":"gala-2026","quantity":1,"phone":"0712345678"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorBody(t, rec), "KES")
}

func TestHandleMpesa_InvalidPhone(t *testing.T) {
	ctrl, _, _, _, _ := newPaymentFixture()

	rec := postJSON(ctrl.HandleMpesa, "/v1/payments/mpesa",
		`{"slug":"gala-2026","quantity":1,"phone":"12345"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleMpesa_PushFailureLeavesRowPending(t *testing.T) {
	ctrl, campaigns, transactions, _, mpesa := newPaymentFixture()

	campaigns.On("FindBySlug", mock.Anything, "gala-2026").Return(ticketCampaign(), nil)
	mpesa.On("Configured").Return(true)
	transactions.On("Create", mock.Anything, mock.Anything).Return(nil)
	mpesa.On("Push", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	rec := postJSON(ctrl.HandleMpesa, "/v1/payments/mpesa",
		`{"slug":"gala-2026","quantity":2,"phone":"0712345678"}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	transactions.AssertNotCalled(t, "MarkTerminal", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	transactions.AssertNotCalled(t, "UpdateMetadata", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleStatus(t *testing.T) {
	ctrl, _, transactions, _, _ := newPaymentFixture()
	transactions.On("FindByReference", mock.Anything, "CMF-1-abc").Return(&models.Transaction{
		Reference: "CMF-1-abc", Provider: models.ProviderPaystack,
		Amount: 3000, Currency: "KES", Status: models.TxnSuccess,
	}, nil)
	transactions.On("FindByReference", mock.Anything, "nope").Return(nil, nil)

	r := mux.NewRouter()
	r.HandleFunc("/v1/payments/{reference}/status", ctrl.HandleStatus).Methods(http.MethodGet)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/payments/CMF-1-abc/status", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	assert.Equal(t, "success", resp["status"])

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/payments/nope/status", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleCheckout_NotConfigured(t *testing.T) {
	ctrl, campaigns, transactions, paystack, _ := newPaymentFixture()
	campaigns.On("FindBySlug", mock.Anything, "gala-2026").Return(ticketCampaign(), nil)
	paystack.On("Configured").Return(false)

	rec := postJSON(ctrl.HandleCheckout, "/v1/payments/checkout",
		`{"slug":"gala-2026","quantity":1,"email":"p@example.com"}`)

	// missing credentials are an operator problem, not a gateway outcome
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	transactions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestHandleMpesa_NotConfigured(t *testing.T) {
	ctrl, campaigns, transactions, _, mpesa := newPaymentFixture()
	campaigns.On("FindBySlug", mock.Anything, "gala-2026").Return(ticketCampaign(), nil)
	mpesa.On("Configured").Return(false)

	rec := postJSON(ctrl.HandleMpesa, "/v1/payments/mpesa",
		`{"slug":"gala-2026","quantity":1,"phone":"0712345678"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	transactions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
