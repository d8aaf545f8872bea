package middleware

import (
	"net/http"

	"github.com/mcoot/teamfinder/internal/api/apierr"
	"github.com/mcoot/teamfinder/internal/services/auth"
)

// AdminKeyHeader carries the operator's admin key
const AdminKeyHeader = "X-Admin-Key"

// Admin rejects requests without a valid admin key. With no key
// configured every request is refused with 403.
func Admin(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !authService.Enabled() {
				apierr.WriteError(w, auth.ErrAdminDisabled)
				return
			}

			key := r.Header.Get(AdminKeyHeader)
			if key == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}
			if err := authService.Verify(key); err != nil {
				apierr.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
