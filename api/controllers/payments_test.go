package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dairymart/dairymart-backend/internal/payments"
	"github.com/dairymart/dairymart-backend/pkg/db/models"
	"github.com/dairymart/dairymart-backend/pkg/enums"
	pkgerrors "github.com/dairymart/dairymart-backend/pkg/errors"
)

type stubPaymentService struct {
	payments.Service
	verifyInput  payments.VerifyInput
	verifyErr    error
	failure      payments.FailureInput
	intentAmount decimal.Decimal
}

func (s *stubPaymentService) Verify(_ context.Context, _ uuid.UUID, input payments.VerifyInput) (*payments.VerifyResult, error) {
	s.verifyInput = input
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	return &payments.VerifyResult{StockCommitted: true}, nil
}

func (s *stubPaymentService) CreateIntent(_ context.Context, _ uuid.UUID, amount decimal.Decimal) (*payments.IntentResult, error) {
	s.intentAmount = amount
	return &payments.IntentResult{}, nil
}

func (s *stubPaymentService) RecordFailure(_ context.Context, userID uuid.UUID, input payments.FailureInput) (*models.Payment, error) {
	s.failure = input
	return &models.Payment{ID: uuid.New(), UserID: userID}, nil
}

func TestVerifyPaymentDecodesCallback(t *testing.T) {
	svc := &stubPaymentService{}
	orderID := uuid.New()
	body := `{"gateway_order_id":"order_1","gateway_payment_id":"pay_1","signature":"abc","order_id":"` + orderID.String() + `","amount":12000}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/payments/verify", strings.NewReader(body)), uuid.New(), enums.RoleCustomer)
	rec := httptest.NewRecorder()

	VerifyPayment(svc, testLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "pay_1", svc.verifyInput.GatewayPaymentID)
	require.NotNil(t, svc.verifyInput.OrderID)
	assert.Equal(t, orderID, *svc.verifyInput.OrderID)
	assert.Equal(t, int64(12000), svc.verifyInput.Amount)
	assert.Contains(t, rec.Body.String(), `"stock_committed":true`)
}

func TestVerifyPaymentRequiresSignature(t *testing.T) {
	svc := &stubPaymentService{}
	body := `{"gateway_order_id":"order_1","gateway_payment_id":"pay_1"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/payments/verify", strings.NewReader(body)), uuid.New(), enums.RoleCustomer)
	rec := httptest.NewRecorder()

	VerifyPayment(svc, testLogger()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.verifyInput.GatewayOrderID)
}

func TestVerifyPaymentSignatureMismatch(t *testing.T) {
	svc := &stubPaymentService{verifyErr: pkgerrors.New(pkgerrors.CodeSignatureMismatch, "payment signature mismatch")}
	body := `{"gateway_order_id":"order_1","gateway_payment_id":"pay_1","signature":"forged"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/payments/verify", strings.NewReader(body)), uuid.New(), enums.RoleCustomer)
	rec := httptest.NewRecorder()

	VerifyPayment(svc, testLogger()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeSignatureMismatch), errorCode(t, rec))
}

func TestCreatePaymentIntentParsesAmount(t *testing.T) {
	svc := &stubPaymentService{}
	req := asUser(httptest.NewRequest(http.MethodPost, "/payments/intents", strings.NewReader(`{"amount":"249.50"}`)), uuid.New(), enums.RoleCustomer)
	rec := httptest.NewRecorder()

	CreatePaymentIntent(svc, testLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "249.5", svc.intentAmount.String())
}

func TestRecordPaymentFailureTrimsReason(t *testing.T) {
	svc := &stubPaymentService{}
	body := `{"amount":"120","reason":"  card declined  ","gateway_order_id":"order_9"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/payments/failed", strings.NewReader(body)), uuid.New(), enums.RoleCustomer)
	rec := httptest.NewRecorder()

	RecordPaymentFailure(svc, testLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "card declined", svc.failure.Reason)
	assert.Equal(t, "order_9", svc.failure.GatewayOrderID)
}
