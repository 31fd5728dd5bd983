package authz

import (
	"net/http"

	"github.com/openfolio/ledgerd/internal/platform/httpx"
	"github.com/openfolio/ledgerd/internal/shared"
)

// RequireAuthenticated rejects requests without a resolved principal.
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := shared.PrincipalFromContext(r.Context())
		if p == nil || !p.IsActive {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireStaff rejects requests from non-staff principals. Used for the
// administrative surfaces (principal and grant management, reports).
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := shared.PrincipalFromContext(r.Context())
		if p == nil || !p.IsActive {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
			return
		}
		if !p.Staff() {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "staff access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
