// Package password provides the username/password authentication provider.
// Successful logins mint an opaque token in the token store.
package password

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"golang.org/x/crypto/bcrypt"

	"github.com/ausweis-dev/ausweis/pkg/auth"
	"github.com/ausweis-dev/ausweis/pkg/token"
	"github.com/ausweis-dev/ausweis/pkg/user"
)

// Provider validates PasswordCredentials against a user store.
type Provider struct {
	users  user.Store
	tokens token.Store
}

var _ auth.Provider = (*Provider)(nil)

// New creates a password provider backed by the given stores.
func New(users user.Store, tokens token.Store) *Provider {
	return &Provider{users: users, tokens: tokens}
}

// Supports reports true only for PasswordCredential.
func (p *Provider) Supports(c auth.Credential) bool {
	_, ok := c.(auth.PasswordCredential)
	return ok
}

// Authenticate looks the user up, compares the submitted password against
// the stored bcrypt hash, and on a match issues a fresh token. Every
// successful login mints a new token without invalidating earlier ones, so
// multiple concurrent sessions per user stay valid.
func (p *Provider) Authenticate(ctx context.Context, c auth.Credential) (*auth.Identity, error) {
	cred, ok := c.(auth.PasswordCredential)
	if !ok {
		return nil, auth.ErrMissingCredentials
	}

	u, err := p.users.FindByUsername(ctx, cred.Username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, auth.ErrUserNotFound
		}
		return nil, fmt.Errorf("looking up user %q: %w", cred.Username, err)
	}

	// bcrypt compares in constant shape with respect to the submitted
	// password; the hashing scheme itself is opaque to callers.
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(cred.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("comparing password for %q: %w", cred.Username, err)
	}

	identity := auth.Identity{
		Subject:     u.Username,
		DisplayName: u.DisplayName,
		Roles:       withUserRole(u.Roles),
	}

	tok, err := p.tokens.Issue(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("issuing token for %q: %w", cred.Username, err)
	}

	identity.IssuedToken = tok
	return &identity, nil
}

// withUserRole guarantees the USER role on every password-authenticated
// identity, preserving any further roles from the store.
func withUserRole(roles []string) []string {
	out := slices.Clone(roles)
	if !slices.Contains(out, auth.RoleUser) {
		out = append(out, auth.RoleUser)
	}
	return out
}
