package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dairymart/dairymart-backend/internal/cart"
	"github.com/dairymart/dairymart-backend/pkg/db/models"
	"github.com/dairymart/dairymart-backend/pkg/enums"
	pkgerrors "github.com/dairymart/dairymart-backend/pkg/errors"
	"github.com/dairymart/dairymart-backend/pkg/money"
	"github.com/dairymart/dairymart-backend/pkg/stripe"
	"github.com/dairymart/dairymart-backend/pkg/types"
)

// PlaceOrderInput is the checkout request. Items default to the caller's cart.
type PlaceOrderInput struct {
	Items           []RequestedItem
	ShippingAddress *types.ShippingAddress
	PaymentMethod   enums.PaymentMethod
}

// PlaceOrderResult carries the created order and, for online checkout, the gateway order.
type PlaceOrderResult struct {
	Order          *models.Order `json:"order"`
	GatewayOrderID string        `json:"gateway_order_id,omitempty"`
	ClientSecret   string        `json:"client_secret,omitempty"`
	Amount         int64         `json:"amount,omitempty"`
	Currency       string        `json:"currency,omitempty"`
}

// StockCommitter applies the conditional decrement for every order line and
// empties the owner's cart inside the caller's transaction.
type StockCommitter struct {
	resolver inventoryResolver
	carts    *cart.Repository
}

func NewStockCommitter(resolver inventoryResolver, carts *cart.Repository) *StockCommitter {
	return &StockCommitter{resolver: resolver, carts: carts}
}

func (c *StockCommitter) Commit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, items []models.OrderItem) error {
	for _, item := range items {
		if err := c.resolver.DecrementStock(ctx, tx, item.ProductID, item.Variant(), item.Quantity); err != nil {
			return err
		}
	}
	if err := c.carts.WithTx(tx).ClearByUser(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return nil
}

func (s *service) PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*PlaceOrderResult, error) {
	result, err := s.placeOrder(ctx, userID, input)
	if err != nil {
		s.metrics.CheckoutFailed(string(errorCode(err)))
		if pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
			s.metrics.StockConflict("checkout")
		}
		return nil, err
	}
	s.metrics.OrderPlaced(string(result.Order.PaymentMethod))
	return result, nil
}

func (s *service) placeOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*PlaceOrderResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method must be COD or online")
	}
	if input.ShippingAddress == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address required")
	}
	address := *input.ShippingAddress
	address.Normalize()
	if err := address.Validate(); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}

	requested := input.Items
	if requested == nil {
		fromCart, err := s.itemsFromCart(ctx, userID)
		if err != nil {
			return nil, err
		}
		requested = fromCart
	}

	assembly, err := s.assembler.Assemble(ctx, requested)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:          userID,
		ShippingAddress: address,
		ItemsPrice:      assembly.ItemsPrice,
		TotalPrice:      assembly.ItemsPrice,
		PaymentMethod:   input.PaymentMethod,
		PaymentStatus:   enums.PaymentStatusPending,
		OrderStatus:     enums.OrderStatusProcessing,
		ShipmentStatus:  enums.ShipmentStatusPending,
		Items:           assembly.Items,
	}

	if input.PaymentMethod == enums.PaymentMethodCOD {
		if err := s.placeCOD(ctx, order); err != nil {
			return nil, err
		}
		return &PlaceOrderResult{Order: order}, nil
	}
	return s.placeOnline(ctx, order)
}

// placeCOD creates the order, commits stock and clears the cart as one unit.
func (s *service) placeCOD(ctx context.Context, order *models.Order) error {
	order.StockCommitted = true
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert order")
		}
		return s.stock.Commit(ctx, tx, order.UserID, order.Items)
	})
	if err != nil {
		return abortError(err)
	}
	if s.logg != nil {
		logCtx := s.logg.WithOrderID(s.logg.WithUserID(ctx, order.UserID.String()), order.ID.String())
		s.logg.Info(logCtx, "cod order placed")
	}
	return nil
}

func (s *service) placeOnline(ctx context.Context, order *models.Order) (*PlaceOrderResult, error) {
	if s.gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "online payments unavailable")
	}
	intent, err := s.gateway.CreateIntent(ctx, stripe.IntentRequest{
		AmountMinor: money.ToMinorUnits(order.ItemsPrice),
		Currency:    s.currency,
		Receipt:     stripe.Receipt(time.Now()),
		Metadata:    map[string]string{"user_id": order.UserID.String()},
	})
	if err != nil {
		return nil, err
	}

	gatewayOrderID := intent.ID
	provider := s.gateway.Provider()
	order.GatewayOrderID = &gatewayOrderID
	order.PaymentProvider = &provider
	order.StockCommitted = false

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert order")
		}
		return nil
	})
	if err != nil {
		return nil, abortError(err)
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(s.logg.WithUserID(ctx, order.UserID.String()), order.ID.String())
		logCtx = s.logg.WithField(logCtx, "gateway_order_id", gatewayOrderID)
		s.logg.Info(logCtx, "online order awaiting payment")
	}

	return &PlaceOrderResult{
		Order:          order,
		GatewayOrderID: gatewayOrderID,
		ClientSecret:   intent.ClientSecret,
		Amount:         intent.AmountMinor,
		Currency:       intent.Currency,
	}, nil
}

func (s *service) itemsFromCart(ctx context.Context, userID uuid.UUID) ([]RequestedItem, error) {
	record, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	items := make([]RequestedItem, 0, len(record.Items))
	for _, line := range record.Items {
		items = append(items, RequestedItem{
			ProductID:      line.ProductID,
			Quantity:       line.Quantity,
			VariantSize:    line.VariantSize,
			IsSubscription: line.IsSubscription,
		})
	}
	return items, nil
}

// abortError keeps domain errors intact and reports anything else as an aborted transaction.
func abortError(err error) error {
	typed := pkgerrors.As(err)
	if typed != nil && typed.Code() != pkgerrors.CodeInternal {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeTransactionAborted, err, "order transaction aborted")
}

func errorCode(err error) pkgerrors.Code {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Code()
	}
	return pkgerrors.CodeInternal
}
