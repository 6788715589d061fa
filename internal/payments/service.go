package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dairymart/dairymart-backend/internal/orders"
	"github.com/dairymart/dairymart-backend/pkg/db"
	"github.com/dairymart/dairymart-backend/pkg/db/models"
	"github.com/dairymart/dairymart-backend/pkg/enums"
	pkgerrors "github.com/dairymart/dairymart-backend/pkg/errors"
	"github.com/dairymart/dairymart-backend/pkg/logger"
	"github.com/dairymart/dairymart-backend/pkg/money"
	"github.com/dairymart/dairymart-backend/pkg/stripe"
)

const reasonSignatureMismatch = "signature mismatch"

// Service reconciles gateway payments with orders.
type Service interface {
	Verify(ctx context.Context, callerID uuid.UUID, input VerifyInput) (*VerifyResult, error)
	CreateIntent(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*IntentResult, error)
	RecordFailure(ctx context.Context, userID uuid.UUID, input FailureInput) (*models.Payment, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Payment, error)
	ListAll(ctx context.Context) ([]models.Payment, error)
}

// VerifyInput is the client-reported gateway callback. Amount is in minor units.
type VerifyInput struct {
	GatewayOrderID   string     `json:"gateway_order_id" validate:"required"`
	GatewayPaymentID string     `json:"gateway_payment_id" validate:"required"`
	Signature        string     `json:"signature" validate:"required"`
	OrderID          *uuid.UUID `json:"order_id,omitempty"`
	Amount           int64      `json:"amount" validate:"gte=0"`
}

// VerifyResult reports what a verification applied.
type VerifyResult struct {
	Payment          *models.Payment `json:"payment,omitempty"`
	OrderID          *uuid.UUID      `json:"order_id,omitempty"`
	AlreadyProcessed bool            `json:"already_processed"`
	StockCommitted   bool            `json:"stock_committed"`
}

// IntentResult is a standalone gateway order for a rupee amount.
type IntentResult struct {
	Payment      *models.Payment `json:"payment"`
	ID           string          `json:"id"`
	ClientSecret string          `json:"client_secret"`
	Amount       int64           `json:"amount"`
	Currency     string          `json:"currency"`
	Receipt      string          `json:"receipt"`
}

// FailureInput records a client-reported failed payment attempt.
type FailureInput struct {
	Amount           decimal.Decimal `json:"amount"`
	Reason           string          `json:"reason" validate:"required,max=500"`
	GatewayOrderID   string          `json:"gateway_order_id,omitempty"`
	GatewayPaymentID string          `json:"gateway_payment_id,omitempty"`
	OrderID          *uuid.UUID      `json:"order_id,omitempty"`
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type stockCommitter interface {
	Commit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, items []models.OrderItem) error
}

type metricsRecorder interface {
	PaymentVerified(outcome string)
	StockCommitFailed()
	StockConflict(path string)
}

type noopMetrics struct{}

func (noopMetrics) PaymentVerified(string) {}
func (noopMetrics) StockCommitFailed()     {}
func (noopMetrics) StockConflict(string)   {}

// ServiceParams wires the payment service dependencies.
type ServiceParams struct {
	Tx            txRunner
	Repo          Repository
	Orders        orders.Repository
	Stock         stockCommitter
	Gateway       orders.PaymentGateway
	Metrics       metricsRecorder
	Logger        *logger.Logger
	SigningSecret string
	Currency      string
}

type service struct {
	tx       txRunner
	repo     Repository
	orders   orders.Repository
	stock    stockCommitter
	gateway  orders.PaymentGateway
	metrics  metricsRecorder
	logg     *logger.Logger
	secret   string
	currency string
	now      func() time.Time
}

// NewService validates and builds the payment reconciler.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Stock == nil {
		return nil, fmt.Errorf("stock committer required")
	}
	if strings.TrimSpace(params.SigningSecret) == "" {
		return nil, fmt.Errorf("payment signing secret required")
	}
	var metrics metricsRecorder = noopMetrics{}
	if params.Metrics != nil {
		metrics = params.Metrics
	}
	currency := strings.ToUpper(strings.TrimSpace(params.Currency))
	if currency == "" {
		currency = "INR"
	}
	return &service{
		tx:       params.Tx,
		repo:     params.Repo,
		orders:   params.Orders,
		stock:    params.Stock,
		gateway:  params.Gateway,
		metrics:  metrics,
		logg:     params.Logger,
		secret:   params.SigningSecret,
		currency: currency,
		now:      time.Now,
	}, nil
}

func (s *service) Verify(ctx context.Context, callerID uuid.UUID, input VerifyInput) (*VerifyResult, error) {
	if callerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	orderRef := strings.TrimSpace(input.GatewayOrderID)
	paymentRef := strings.TrimSpace(input.GatewayPaymentID)
	if orderRef == "" || paymentRef == "" || strings.TrimSpace(input.Signature) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway_order_id, gateway_payment_id and signature are required")
	}
	if input.Amount < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must not be negative")
	}

	ctx = s.logContext(ctx, callerID, paymentRef)

	if !validSignature(s.secret, orderRef, paymentRef, strings.TrimSpace(input.Signature)) {
		s.metrics.PaymentVerified("signature_mismatch")
		s.recordMismatch(ctx, callerID, input)
		return nil, pkgerrors.New(pkgerrors.CodeSignatureMismatch, "payment signature mismatch")
	}

	existing, err := s.repo.FindPaidByRef(ctx, paymentRef)
	if err == nil {
		s.metrics.PaymentVerified("duplicate")
		return &VerifyResult{Payment: existing, OrderID: existing.OrderID, AlreadyProcessed: true, StockCommitted: s.stockCommitted(ctx, existing.OrderID)}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup payment")
	}

	var order *models.Order
	if input.OrderID != nil {
		order, err = s.ownedOrder(ctx, callerID, *input.OrderID)
		if err != nil {
			return nil, err
		}
		if err := matchesOrder(order, orderRef, input.Amount); err != nil {
			return nil, err
		}
	}

	amount := money.FromMinorUnits(input.Amount)
	if input.Amount == 0 && order != nil {
		amount = order.TotalPrice
	}
	payment := &models.Payment{
		UserID:           callerID,
		GatewayOrderID:   &orderRef,
		GatewayPaymentID: &paymentRef,
		Signature:        stringPtr(strings.TrimSpace(input.Signature)),
		Amount:           amount,
		Currency:         s.currency,
		Status:           enums.PaymentRecordStatusPaid,
	}
	if order != nil {
		payment.OrderID = &order.ID
	}

	duplicate := false
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, payment); err != nil {
			if db.IsUniqueViolation(err, models.PaidPaymentRefIndex) {
				duplicate = true
			}
			return err
		}
		if order == nil {
			return nil
		}
		paidAt := s.now().UTC()
		return s.orders.WithTx(tx).Update(ctx, order.ID, map[string]any{
			"payment_status":   enums.PaymentStatusPaid,
			"payment_ref":      paymentRef,
			"payment_provider": s.provider(),
			"payment_method":   enums.PaymentMethodOnline,
			"paid_at":          paidAt,
		})
	})
	if duplicate {
		s.metrics.PaymentVerified("duplicate")
		result := &VerifyResult{AlreadyProcessed: true}
		if prior, lookupErr := s.repo.FindPaidByRef(ctx, paymentRef); lookupErr == nil {
			result.Payment = prior
			result.OrderID = prior.OrderID
			result.StockCommitted = s.stockCommitted(ctx, prior.OrderID)
		}
		return result, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransactionAborted, err, "record payment")
	}
	s.metrics.PaymentVerified("applied")

	result := &VerifyResult{Payment: payment, OrderID: payment.OrderID}
	if order != nil {
		result.StockCommitted = s.commitStock(ctx, order)
	}
	if s.logg != nil {
		s.logg.Info(ctx, "payment verified")
	}
	return result, nil
}

// commitStock claims the order's one-time stock commitment and applies it.
// A failure here leaves the payment recorded and is surfaced for manual review.
func (s *service) commitStock(ctx context.Context, order *models.Order) bool {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		claimed, err := s.orders.WithTx(tx).ClaimStockCommit(ctx, order.ID)
		if err != nil || !claimed {
			return err
		}
		return s.stock.Commit(ctx, tx, order.UserID, order.Items)
	})
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
			s.metrics.StockConflict("payment")
		}
		s.metrics.StockCommitFailed()
		if s.logg != nil {
			logCtx := s.logg.WithOrderID(ctx, order.ID.String())
			logCtx = s.logg.WithField(logCtx, "severity", "high")
			s.logg.Error(logCtx, "payment.stock_commit_failed", err)
		}
		return false
	}
	return true
}

func (s *service) stockCommitted(ctx context.Context, orderID *uuid.UUID) bool {
	if orderID == nil {
		return false
	}
	order, err := s.orders.FindByID(ctx, *orderID)
	if err != nil {
		return false
	}
	return order.StockCommitted
}

func (s *service) ownedOrder(ctx context.Context, callerID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order.UserID != callerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}
	return order, nil
}

// matchesOrder rejects a payment that names a different gateway order than the
// one issued at checkout, or whose amount differs from the order total.
func matchesOrder(order *models.Order, orderRef string, amountMinor int64) error {
	if order.GatewayOrderID != nil && *order.GatewayOrderID != orderRef {
		return pkgerrors.New(pkgerrors.CodeConflict, "gateway order does not match this order").
			WithDetails(map[string]string{"order_id": order.ID.String()})
	}
	if amountMinor != 0 && amountMinor != money.ToMinorUnits(order.TotalPrice) {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount does not match order total").
			WithDetails(map[string]int64{"expected": money.ToMinorUnits(order.TotalPrice), "received": amountMinor})
	}
	return nil
}

func (s *service) recordMismatch(ctx context.Context, callerID uuid.UUID, input VerifyInput) {
	orderRef := strings.TrimSpace(input.GatewayOrderID)
	paymentRef := strings.TrimSpace(input.GatewayPaymentID)
	payment := &models.Payment{
		UserID:           callerID,
		OrderID:          input.OrderID,
		GatewayOrderID:   &orderRef,
		GatewayPaymentID: &paymentRef,
		Signature:        stringPtr(strings.TrimSpace(input.Signature)),
		Amount:           money.FromMinorUnits(input.Amount),
		Currency:         s.currency,
		Status:           enums.PaymentRecordStatusFailed,
		Reason:           stringPtr(reasonSignatureMismatch),
	}
	if err := s.repo.Create(ctx, payment); err != nil && s.logg != nil {
		s.logg.Error(ctx, "record signature mismatch", err)
		return
	}
	if s.logg != nil {
		s.logg.Warn(ctx, "payment signature mismatch")
	}
}

func (s *service) CreateIntent(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*IntentResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	if !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero")
	}
	if s.gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "online payments unavailable")
	}

	receipt := stripe.Receipt(s.now())
	intent, err := s.gateway.CreateIntent(ctx, stripe.IntentRequest{
		AmountMinor: money.ToMinorUnits(amount),
		Currency:    s.currency,
		Receipt:     receipt,
		Metadata:    map[string]string{"user_id": userID.String()},
	})
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		UserID:         userID,
		GatewayOrderID: stringPtr(intent.ID),
		Amount:         amount.Round(2),
		Currency:       s.currency,
		Status:         enums.PaymentRecordStatusCreated,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record payment intent")
	}
	return &IntentResult{
		Payment:      payment,
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       intent.AmountMinor,
		Currency:     intent.Currency,
		Receipt:      receipt,
	}, nil
}

// RecordFailure appends a failed attempt. A linked, unpaid order owned by the
// caller is marked Failed in the same transaction.
func (s *service) RecordFailure(ctx context.Context, userID uuid.UUID, input FailureInput) (*models.Payment, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason is required")
	}
	if input.Amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must not be negative")
	}

	var order *models.Order
	if input.OrderID != nil {
		var err error
		order, err = s.ownedOrder(ctx, userID, *input.OrderID)
		if err != nil {
			return nil, err
		}
	}

	payment := &models.Payment{
		UserID:           userID,
		GatewayOrderID:   optionalString(input.GatewayOrderID),
		GatewayPaymentID: optionalString(input.GatewayPaymentID),
		Amount:           input.Amount.Round(2),
		Currency:         s.currency,
		Status:           enums.PaymentRecordStatusFailed,
		Reason:           &reason,
	}
	if order != nil {
		payment.OrderID = &order.ID
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, payment); err != nil {
			return err
		}
		if order == nil || order.PaymentStatus == enums.PaymentStatusPaid {
			return nil
		}
		return s.orders.WithTx(tx).Update(ctx, order.ID, map[string]any{"payment_status": enums.PaymentStatusFailed})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record payment failure")
	}
	return payment, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Payment, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list payments")
	}
	return rows, nil
}

func (s *service) ListAll(ctx context.Context) ([]models.Payment, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list payments")
	}
	return rows, nil
}

func (s *service) provider() string {
	if s.gateway == nil {
		return "stripe"
	}
	return s.gateway.Provider()
}

func (s *service) logContext(ctx context.Context, userID uuid.UUID, paymentRef string) context.Context {
	if s.logg == nil {
		return ctx
	}
	ctx = s.logg.WithUserID(ctx, userID.String())
	return s.logg.WithField(ctx, "gateway_payment_id", paymentRef)
}

func stringPtr(value string) *string {
	return &value
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
