package middleware

import (
	"net/http"
	"slices"

	"github.com/dairymart/dairymart-backend/api/responses"
	"github.com/dairymart/dairymart-backend/pkg/enums"
	pkgerrors "github.com/dairymart/dairymart-backend/pkg/errors"
	"github.com/dairymart/dairymart-backend/pkg/logger"
)

// RequireRole admits callers holding any of the given roles. It must run
// after Auth.
func RequireRole(logg *logger.Logger, allowed ...enums.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := principalFrom(r.Context()).role
			if !slices.Contains(allowed, role) {
				err := pkgerrors.New(pkgerrors.CodeForbidden, "role required").
					WithDetails(map[string]any{"required": allowed})
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
