package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dairymart/dairymart-backend/api/middleware"
	"github.com/dairymart/dairymart-backend/api/responses"
	"github.com/dairymart/dairymart-backend/api/validators"
	"github.com/dairymart/dairymart-backend/internal/orders"
	"github.com/dairymart/dairymart-backend/pkg/enums"
	pkgerrors "github.com/dairymart/dairymart-backend/pkg/errors"
	"github.com/dairymart/dairymart-backend/pkg/logger"
	"github.com/dairymart/dairymart-backend/pkg/types"
)

type placeOrderRequest struct {
	Items           []orderItemPayload     `json:"items,omitempty" validate:"omitempty,dive"`
	ShippingAddress *types.ShippingAddress `json:"shipping_address" validate:"required"`
	PaymentMethod   string                 `json:"payment_method" validate:"required"`
}

type orderItemPayload struct {
	ProductID      uuid.UUID `json:"product_id" validate:"required"`
	Quantity       int       `json:"quantity" validate:"gte=1"`
	VariantSize    string    `json:"variant_size,omitempty" validate:"max=32"`
	IsSubscription bool      `json:"is_subscription,omitempty"`
}

func (p placeOrderRequest) toInput() (orders.PlaceOrderInput, error) {
	method, err := enums.ParsePaymentMethod(p.PaymentMethod)
	if err != nil {
		return orders.PlaceOrderInput{}, pkgerrors.New(pkgerrors.CodeValidation, "payment_method must be COD or online")
	}

	input := orders.PlaceOrderInput{
		ShippingAddress: p.ShippingAddress,
		PaymentMethod:   method,
	}
	if p.Items != nil {
		// an explicit empty list must not fall back to the cart
		input.Items = make([]orders.RequestedItem, 0, len(p.Items))
	}
	for _, item := range p.Items {
		input.Items = append(input.Items, orders.RequestedItem{
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			VariantSize:    validators.SanitizeString(item.VariantSize, 32),
			IsSubscription: item.IsSubscription,
		})
	}
	return input, nil
}

// PlaceOrder creates an order from the request items or the caller's cart.
func PlaceOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "orders")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		var payload placeOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.PlaceOrder(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, result)
	}
}

// GetOrder returns one order; customers only see their own.
func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "orders")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), userID, middleware.IsAdmin(r.Context()), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// ListMyOrders returns the caller's orders, newest first.
func ListMyOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "orders")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		list, err := svc.ListMine(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
