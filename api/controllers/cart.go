package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dairymart/dairymart-backend/api/responses"
	"github.com/dairymart/dairymart-backend/api/validators"
	cartsvc "github.com/dairymart/dairymart-backend/internal/cart"
	"github.com/dairymart/dairymart-backend/pkg/logger"
)

type addCartItemRequest struct {
	ProductID      uuid.UUID `json:"product_id" validate:"required"`
	Quantity       *int      `json:"quantity,omitempty" validate:"omitempty,gte=1"`
	VariantSize    string    `json:"variant_size,omitempty" validate:"max=32"`
	IsSubscription bool      `json:"is_subscription,omitempty"`
}

type updateCartItemRequest struct {
	ProductID   uuid.UUID `json:"product_id" validate:"required"`
	Quantity    int       `json:"quantity"`
	VariantSize string    `json:"variant_size,omitempty" validate:"max=32"`
}

type removeCartItemRequest struct {
	ProductID   uuid.UUID `json:"product_id" validate:"required"`
	VariantSize string    `json:"variant_size,omitempty" validate:"max=32"`
}

// CartGet returns the caller's cart re-validated against live stock.
func CartGet(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "cart")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		cart, err := svc.ReadCart(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

// CartAddItem adds a product (or variant) to the caller's cart.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "cart")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quantity := 1
		if payload.Quantity != nil {
			quantity = *payload.Quantity
		}

		cart, err := svc.AddItem(r.Context(), userID, cartsvc.AddItemInput{
			ProductID:      payload.ProductID,
			Quantity:       quantity,
			VariantSize:    validators.SanitizeString(payload.VariantSize, 32),
			IsSubscription: payload.IsSubscription,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

// CartUpdateItem sets a line quantity; zero or less removes the line.
func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "cart")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.UpdateItem(r.Context(), userID, cartsvc.UpdateItemInput{
			ProductID:   payload.ProductID,
			Quantity:    payload.Quantity,
			VariantSize: validators.SanitizeString(payload.VariantSize, 32),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

// CartRemoveItem deletes one line from the caller's cart.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "cart")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		var payload removeCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := svc.RemoveItem(r.Context(), userID, payload.ProductID, validators.SanitizeString(payload.VariantSize, 32))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}

// CartClear empties the caller's cart.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "cart")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		cart, err := svc.Clear(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart)
	}
}
