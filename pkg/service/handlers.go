// Package service holds the HTTP handlers and authorization middleware
// composed around the authentication filter: logout, identity introspection,
// and the unauthorized entry point challenging unauthenticated requests.
package service

import (
	"log/slog"
	"net/http"

	"github.com/ausweis-dev/ausweis/pkg/api"
	"github.com/ausweis-dev/ausweis/pkg/auth"
	"github.com/ausweis-dev/ausweis/pkg/observability"
	"github.com/ausweis-dev/ausweis/pkg/token"
)

// Logout revokes the token named by the X-Auth-Token header and returns 200.
// Revocation is idempotent, so logging out with an unknown or already
// revoked token still succeeds.
func Logout(tokens token.Store, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok := r.Header.Get(auth.HeaderToken); tok != "" {
			if err := tokens.Revoke(r.Context(), tok); err != nil {
				logger.Error("revoking token", "error", err)
				api.WriteError(w, http.StatusInternalServerError, api.NewServerError("logout failed"))
				return
			}
			observability.TokensRevokedTotal.Inc()
		}

		logger.Debug("logout successful")
		w.WriteHeader(http.StatusOK)
	})
}

// WhoAmI returns the authenticated identity from the request context.
// Mount behind RequireAuth.
func WhoAmI() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := auth.IdentityFromContext(r.Context())
		if id == nil {
			api.WriteError(w, http.StatusUnauthorized, api.NewUnauthorizedError("authentication required"))
			return
		}

		api.WriteJSON(w, http.StatusOK, api.IdentityResponse{
			Subject:     id.Subject,
			DisplayName: id.DisplayName,
			Roles:       id.Roles,
		})
	})
}

// RequireAuth is the unauthorized entry point: it challenges requests that
// reached a protected route without an authenticated identity. The filter
// never rejects non-login requests itself; this middleware is where
// unauthenticated callers are turned away.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.IdentityFromContext(r.Context()) == nil {
			api.WriteError(w, http.StatusUnauthorized, api.NewUnauthorizedError("authentication required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole challenges authenticated callers lacking the given role.
// Must be used after RequireAuth semantics apply (it also rejects
// unauthenticated requests).
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := auth.IdentityFromContext(r.Context())
			if id == nil {
				api.WriteError(w, http.StatusUnauthorized, api.NewUnauthorizedError("authentication required"))
				return
			}
			if !id.HasRole(role) {
				api.WriteError(w, http.StatusForbidden, api.NewForbiddenError("insufficient role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
