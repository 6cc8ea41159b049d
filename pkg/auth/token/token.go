// Package token provides the bearer-token authentication provider, resolving
// opaque tokens against the token store.
package token

import (
	"context"
	"errors"
	"fmt"

	"github.com/ausweis-dev/ausweis/pkg/auth"
	"github.com/ausweis-dev/ausweis/pkg/token"
)

// Provider validates TokenCredentials against a token store.
type Provider struct {
	tokens token.Store
}

var _ auth.Provider = (*Provider)(nil)

// New creates a token provider backed by the given store.
func New(tokens token.Store) *Provider {
	return &Provider{tokens: tokens}
}

// Supports reports true only for TokenCredential.
func (p *Provider) Supports(c auth.Credential) bool {
	_, ok := c.(auth.TokenCredential)
	return ok
}

// Authenticate resolves the token to its stored identity. The lookup is a
// pure read; no token is re-issued, so IssuedToken stays unset on the
// returned identity.
func (p *Provider) Authenticate(ctx context.Context, c auth.Credential) (*auth.Identity, error) {
	cred, ok := c.(auth.TokenCredential)
	if !ok {
		return nil, auth.ErrMissingCredentials
	}

	id, err := p.tokens.Lookup(ctx, cred.Token)
	if err != nil {
		if errors.Is(err, token.ErrNotFound) {
			return nil, auth.ErrTokenNotFound
		}
		return nil, fmt.Errorf("looking up token: %w", err)
	}

	id.IssuedToken = ""
	return id, nil
}
