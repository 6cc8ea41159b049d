package auth

import (
	"context"
	"errors"
	"slices"

	"github.com/ausweis-dev/ausweis/pkg/debug"
)

// Credential is a caller-supplied proof of identity extracted from request
// headers. It is constructed once per request and never persisted.
type Credential interface {
	// Kind names the credential scheme ("password", "token", ...).
	// Used for logging and metrics labels.
	Kind() string
}

// PasswordCredential carries the X-Auth-Username / X-Auth-Password header pair.
type PasswordCredential struct {
	Username string
	Password string
}

func (PasswordCredential) Kind() string { return "password" }

// TokenCredential carries an opaque token from the X-Auth-Token header.
// An empty token value is a valid credential; it will simply never match
// a live token record.
type TokenCredential struct {
	Token string
}

func (TokenCredential) Kind() string { return "token" }

// APIKeyCredential carries a static API key from the X-API-Key header.
type APIKeyCredential struct {
	Key string
}

func (APIKeyCredential) Kind() string { return "apikey" }

// JWTCredential carries a signed JWT from the Authorization header.
type JWTCredential struct {
	Token string
}

func (JWTCredential) Kind() string { return "jwt" }

// Well-known role names.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Identity represents an authenticated caller. It lives for one request,
// except IssuedToken which (when set) is durably held by the token store.
type Identity struct {
	// Subject is the unique principal identifier (required, non-empty).
	Subject string

	// DisplayName is a human-readable name for the principal.
	DisplayName string

	// Roles lists the roles granted to the principal.
	Roles []string

	// IssuedToken holds the opaque token minted during password login.
	// Empty on token-authenticated requests (no re-issuance).
	IssuedToken string
}

// HasRole reports whether the identity carries the given role.
func (id *Identity) HasRole(role string) bool {
	return id != nil && slices.Contains(id.Roles, role)
}

// Sentinel errors forming the authentication failure taxonomy. Each maps
// deterministically to one HTTP status; see the Filter.
var (
	// ErrInvalidCredentials means credentials were present but wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserNotFound means the username is unknown to the user store.
	ErrUserNotFound = errors.New("user not found")

	// ErrTokenNotFound means the token is absent from the token store.
	// An unknown token and an invalid one are indistinguishable to callers.
	ErrTokenNotFound = errors.New("token not found")

	// ErrMissingCredentials means no provider supports the submitted
	// credential, or a login attempt lacked required headers. Treated as
	// a caller/configuration defect, not an authentication rejection.
	ErrMissingCredentials = errors.New("missing or unsupported credentials")
)

// IsRejection reports whether err is a credential-validation failure
// (surfaced as 401) as opposed to an internal or configuration fault
// (surfaced as 500).
func IsRejection(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrTokenNotFound)
}

// Provider validates a single credential kind.
type Provider interface {
	// Supports reports whether this provider can validate the credential.
	Supports(c Credential) bool

	// Authenticate validates the credential. It returns the authenticated
	// identity or one of the sentinel errors above; any other error is an
	// internal provider fault.
	Authenticate(ctx context.Context, c Credential) (*Identity, error)
}

// Manager dispatches a credential to an ordered list of providers.
//
// The first provider whose Supports returns true is invoked and its result
// returned unmodified. Credential kinds are mutually exclusive by
// construction, so at most one provider ever runs per credential. There is
// no retry and no fallback across kinds: a password failure never triggers
// a token attempt, because the Filter has already disambiguated which kind
// of credential is present.
type Manager struct {
	providers []Provider
}

// NewManager creates a manager trying providers in the given order.
func NewManager(providers ...Provider) *Manager {
	return &Manager{providers: slices.Clone(providers)}
}

// Authenticate runs the provider chain for the credential. If no provider
// supports the credential kind, it fails with ErrMissingCredentials.
func (m *Manager) Authenticate(ctx context.Context, c Credential) (*Identity, error) {
	for _, p := range m.providers {
		if p.Supports(c) {
			debug.Log("providers", "provider selected", "credential", c.Kind())
			return p.Authenticate(ctx, c)
		}
	}
	return nil, ErrMissingCredentials
}
