package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ausweis-dev/ausweis/pkg/api"
	"github.com/ausweis-dev/ausweis/pkg/observability"
)

// Header names consumed by the filter. All are optional on any request;
// the login endpoint requires the username/password pair.
const (
	HeaderUsername = "X-Auth-Username"
	HeaderPassword = "X-Auth-Password"
	HeaderToken    = "X-Auth-Token"
	HeaderAPIKey   = "X-API-Key"
)

// DefaultLoginPath is the password login endpoint handled by the filter.
const DefaultLoginPath = "/auth/login"

// FilterConfig holds filter settings.
type FilterConfig struct {
	// LoginPath is the POST endpoint that exchanges username/password
	// headers for a token. Default: DefaultLoginPath.
	LoginPath string

	// Logger is the structured logger. Default: slog.Default().
	Logger *slog.Logger
}

// Filter is the per-request authentication orchestrator. It extracts a
// credential from the request headers, runs it through the Manager, and
// either mints a token (login endpoint), injects the identity into the
// request context, or forwards the request unauthenticated.
type Filter struct {
	manager   *Manager
	loginPath string
	logger    *slog.Logger
}

// NewFilter creates a filter dispatching to the given manager.
func NewFilter(manager *Manager, cfg FilterConfig) *Filter {
	if cfg.LoginPath == "" {
		cfg.LoginPath = DefaultLoginPath
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Filter{
		manager:   manager,
		loginPath: cfg.LoginPath,
		logger:    cfg.Logger,
	}
}

// Middleware wraps next with the authentication state machine:
//
//  1. POST to the login path is a login attempt: both username and password
//     headers are required (missing headers are a caller/routing defect and
//     surface as 500, not 401). On success the response is the minted token
//     and the pipeline terminates; the login endpoint's sole job is to mint
//     a token.
//  2. Any other path: a token header, if present (an empty value counts as
//     present), is resolved against the token store. Token failures do not
//     reject the request; downstream authorization challenges
//     unauthenticated callers, which preserves permit-all routes. The token
//     header takes precedence over password headers, which are only ever
//     considered on the login endpoint. Without a token header the
//     supplemental extractors run: X-API-Key, then an Authorization bearer
//     JWT.
//  3. The request is forwarded downstream except on the login endpoint.
//
// A panic during the authentication decision is recovered and surfaces as
// a 500 with no identity attached.
func (f *Filter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				f.logger.Error("panic during authentication", "panic", rec, "path", r.URL.Path)
				api.WriteError(w, http.StatusInternalServerError, api.NewServerError("internal authentication error"))
			}
		}()

		if r.Method == http.MethodPost && r.URL.Path == f.loginPath {
			f.handleLogin(w, r)
			return
		}

		if cred, ok := extractCredential(r); ok {
			f.logger.Debug("authenticating request", "credential", cred.Kind(), "path", r.URL.Path)

			id, err := f.manager.Authenticate(r.Context(), cred)
			if err != nil {
				// Intentional pass-through: the request continues
				// unauthenticated and downstream authorization decides.
				observability.AuthAttemptsTotal.WithLabelValues(cred.Kind(), outcome(err)).Inc()
				observability.AuthFailuresTotal.WithLabelValues(failureReason(err)).Inc()
				f.logger.Debug("authentication failed, continuing unauthenticated",
					"credential", cred.Kind(), "path", r.URL.Path, "error", err)
			} else {
				observability.AuthAttemptsTotal.WithLabelValues(cred.Kind(), "success").Inc()
				r = r.WithContext(SetIdentity(r.Context(), id))
			}
		}

		next.ServeHTTP(w, r)
	})
}

// handleLogin processes a POST to the login path and never forwards
// downstream.
func (f *Filter) handleLogin(w http.ResponseWriter, r *http.Request) {
	username, hasUsername := headerValue(r, HeaderUsername)
	password, hasPassword := headerValue(r, HeaderPassword)

	if !hasUsername || !hasPassword {
		observability.AuthFailuresTotal.WithLabelValues("missing_credentials").Inc()
		f.logger.Error("login attempt without username or password headers")
		api.WriteError(w, http.StatusInternalServerError,
			api.NewServerError("unable to authenticate without username or password"))
		return
	}

	f.logger.Debug("authenticating user by username/password", "username", username)

	id, err := f.manager.Authenticate(r.Context(), PasswordCredential{Username: username, Password: password})
	if err != nil {
		observability.AuthAttemptsTotal.WithLabelValues("password", outcome(err)).Inc()
		observability.AuthFailuresTotal.WithLabelValues(failureReason(err)).Inc()

		if IsRejection(err) {
			f.logger.Warn("login rejected", "username", username, "error", err)
			api.WriteError(w, http.StatusUnauthorized, api.NewUnauthorizedError("invalid credentials"))
			return
		}

		f.logger.Error("internal authentication fault", "username", username, "error", err)
		api.WriteError(w, http.StatusInternalServerError,
			api.NewServerError("unable to authenticate user for provided credentials"))
		return
	}

	observability.AuthAttemptsTotal.WithLabelValues("password", "success").Inc()
	observability.TokensIssuedTotal.Inc()
	f.logger.Debug("user authenticated, token issued", "username", username)

	api.WriteJSON(w, http.StatusOK, api.TokenResponse{Token: id.IssuedToken})
}

// extractCredential picks the credential present on a non-login request.
// The checking order fixes precedence: opaque token, then API key, then
// bearer JWT.
func extractCredential(r *http.Request) (Credential, bool) {
	if tok, ok := headerValue(r, HeaderToken); ok {
		return TokenCredential{Token: tok}, true
	}
	if key, ok := headerValue(r, HeaderAPIKey); ok {
		return APIKeyCredential{Key: key}, true
	}
	if bearer, ok := bearerToken(r); ok {
		return JWTCredential{Token: bearer}, true
	}
	return nil, false
}

// headerValue returns the first value of the header and whether the header
// is present at all. A present-but-empty header yields ("", true): an empty
// token is attempted and fails lookup rather than being treated as absent.
func headerValue(r *http.Request, name string) (string, bool) {
	vals, ok := r.Header[http.CanonicalHeaderKey(name)]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// bearerToken extracts a token from an "Authorization: Bearer" header.
// Scheme comparison is case-insensitive per RFC 7235.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, tok, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	return tok, true
}

// outcome maps an authentication error to the attempts-counter label.
func outcome(err error) string {
	if IsRejection(err) {
		return "rejected"
	}
	return "error"
}

// failureReason maps an authentication error to the failure-counter label.
func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, ErrTokenNotFound):
		return "token_not_found"
	case errors.Is(err, ErrMissingCredentials):
		return "missing_credentials"
	default:
		return "internal"
	}
}
