package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dairymart/dairymart-backend/api/middleware"
	"github.com/dairymart/dairymart-backend/api/responses"
	"github.com/dairymart/dairymart-backend/api/validators"
	"github.com/dairymart/dairymart-backend/internal/shipping"
	pkgerrors "github.com/dairymart/dairymart-backend/pkg/errors"
	"github.com/dairymart/dairymart-backend/pkg/logger"
)

// TrackShipment polls the carrier and records the latest checkpoint.
func TrackShipment(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "shipping")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		trackingID := validators.SanitizeString(chi.URLParam(r, "trackingId"), 64)
		if trackingID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "trackingId is required"))
			return
		}

		result, err := svc.Track(r.Context(), userID, middleware.IsAdmin(r.Context()), trackingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
