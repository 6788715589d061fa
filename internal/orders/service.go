package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dairymart/dairymart-backend/internal/cart"
	"github.com/dairymart/dairymart-backend/pkg/db/models"
	"github.com/dairymart/dairymart-backend/pkg/enums"
	pkgerrors "github.com/dairymart/dairymart-backend/pkg/errors"
	"github.com/dairymart/dairymart-backend/pkg/logger"
)

// Service defines checkout and order lifecycle operations.
type Service interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*PlaceOrderResult, error)
	Get(ctx context.Context, callerID uuid.UUID, isAdmin bool, orderID uuid.UUID) (*models.Order, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*models.Order, error)
	Transition(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus, opts TransitionOptions) (*models.Order, error)
	Delete(ctx context.Context, orderID uuid.UUID) error
}

// TransitionOptions lets callers guard a transition and persist extra columns with it.
type TransitionOptions struct {
	Guard func(order *models.Order) error
	Extra map[string]any
}

// ServiceParams wires the order service dependencies.
type ServiceParams struct {
	Tx       txRunner
	Repo     Repository
	Carts    *cart.Repository
	Resolver inventoryResolver
	Gateway  PaymentGateway
	Machine  *StatusMachine
	Notifier StatusNotifier
	Metrics  metricsRecorder
	Logger   *logger.Logger
	Currency string
}

type service struct {
	tx        txRunner
	repo      Repository
	carts     *cart.Repository
	assembler *Assembler
	stock     *StockCommitter
	gateway   PaymentGateway
	machine   *StatusMachine
	notifier  StatusNotifier
	metrics   metricsRecorder
	logg      *logger.Logger
	currency  string
}

type noopMetrics struct{}

func (noopMetrics) OrderPlaced(string)              {}
func (noopMetrics) CheckoutFailed(string)           {}
func (noopMetrics) StockConflict(string)            {}
func (noopMetrics) StatusTransition(string, string) {}

// NewService builds the order service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Resolver == nil {
		return nil, fmt.Errorf("inventory resolver required")
	}
	machine := params.Machine
	if machine == nil {
		machine = NewStatusMachine("")
	}
	var metrics metricsRecorder = noopMetrics{}
	if params.Metrics != nil {
		metrics = params.Metrics
	}
	currency := strings.TrimSpace(params.Currency)
	if currency == "" {
		currency = "INR"
	}
	return &service{
		tx:        params.Tx,
		repo:      params.Repo,
		carts:     params.Carts,
		assembler: NewAssembler(params.Resolver),
		stock:     NewStockCommitter(params.Resolver, params.Carts),
		gateway:   params.Gateway,
		machine:   machine,
		notifier:  params.Notifier,
		metrics:   metrics,
		logg:      params.Logger,
		currency:  currency,
	}, nil
}

// Get returns an order to its owner. Admins may read any order; other callers
// get NOT_FOUND so order ids cannot be enumerated.
func (s *service) Get(ctx context.Context, callerID uuid.UUID, isAdmin bool, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if !isAdmin && order.UserID != callerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return rows, nil
}

func (s *service) ListAll(ctx context.Context) ([]models.Order, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return rows, nil
}

func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*models.Order, error) {
	return s.Transition(ctx, orderID, status, TransitionOptions{})
}

// Transition applies a status change and its effects in one transaction, then
// notifies the owner once the change is committed.
func (s *service) Transition(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus, opts TransitionOptions) (*models.Order, error) {
	var (
		updated *models.Order
		from    enums.OrderStatus
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.LockByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}
		if opts.Guard != nil {
			if err := opts.Guard(order); err != nil {
				return err
			}
		}
		updates, err := s.machine.Plan(order, status)
		if err != nil {
			return err
		}
		for key, value := range opts.Extra {
			updates[key] = value
		}
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
		}
		from = order.OrderStatus
		updated, err = repo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.StatusTransition(string(from), string(status))
	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, updated.ID.String())
		logCtx = s.logg.WithFields(logCtx, map[string]any{"from": from, "to": status})
		s.logg.Info(logCtx, "order status updated")
	}
	if s.notifier != nil {
		trackingID := ""
		if updated.TrackingID != nil {
			trackingID = *updated.TrackingID
		}
		s.notifier.Notify(ctx, updated.UserID, updated.ID, status, trackingID)
	}
	return updated, nil
}

// Delete hard-deletes an order and its items regardless of status.
func (s *service) Delete(ctx context.Context, orderID uuid.UUID) error {
	var deleted bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		deleted, err = s.repo.WithTx(tx).Delete(ctx, orderID)
		return err
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete order")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return nil
}
