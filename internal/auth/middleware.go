package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/openfolio/ledgerd/internal/platform/httpx"
	"github.com/openfolio/ledgerd/internal/shared"
)

// Middleware resolves the bearer token into a principal and attaches it to
// the request context. Requests without a valid token proceed anonymously;
// the authorization layer denies them where it must.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// Authenticate is the chi-compatible middleware constructor.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		p, err := m.Service.ResolveToken(r.Context(), token)
		if err != nil {
			if errors.Is(err, ErrTokenUnknown) || errors.Is(err, httpx.ErrNotFound) {
				next.ServeHTTP(w, r)
				return
			}
			if m.Logger != nil {
				m.Logger.Error("resolve token", slog.Any("error", err))
			}
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		if !p.IsActive {
			next.ServeHTTP(w, r)
			return
		}
		ctx := shared.ContextWithPrincipal(r.Context(), p.Shared())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	for _, scheme := range []string{"Bearer ", "Token "} {
		if strings.HasPrefix(header, scheme) {
			return strings.TrimSpace(strings.TrimPrefix(header, scheme))
		}
	}
	return ""
}
