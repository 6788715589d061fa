package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dairymart/dairymart-backend/api/middleware"
	"github.com/dairymart/dairymart-backend/api/responses"
	pkgerrors "github.com/dairymart/dairymart-backend/pkg/errors"
	"github.com/dairymart/dairymart-backend/pkg/logger"
)

// requireUser resolves the authenticated caller or writes 401.
func requireUser(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (uuid.UUID, bool) {
	userID, ok := middleware.UserUUIDFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
		return uuid.Nil, false
	}
	return userID, true
}

func serviceUnavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger, name string) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, name+" service unavailable"))
}
