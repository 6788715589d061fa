package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dairymart/dairymart-backend/api/responses"
	"github.com/dairymart/dairymart-backend/api/validators"
	"github.com/dairymart/dairymart-backend/internal/inventory"
	"github.com/dairymart/dairymart-backend/pkg/logger"
)

// AvailabilityResolver reports price and stock for a product or variant.
type AvailabilityResolver interface {
	Resolve(ctx context.Context, productID uuid.UUID, variantSize string) (*inventory.Resolution, error)
}

type availabilityResponse struct {
	*inventory.Resolution
	InStock bool `json:"in_stock"`
}

// ProductAvailability returns the effective price and stock for a product.
func ProductAvailability(resolver AvailabilityResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if resolver == nil {
			serviceUnavailable(w, r, logg, "inventory")
			return
		}

		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		variant := validators.SanitizeString(r.URL.Query().Get("variant"), 32)

		resolution, err := resolver.Resolve(r.Context(), productID, strings.TrimSpace(variant))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, availabilityResponse{
			Resolution: resolution,
			InStock:    resolution.AvailableQty > 0,
		})
	}
}
