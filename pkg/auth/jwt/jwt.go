// Package jwt provides a JWT authentication provider validating HS256-signed
// tokens minted by an external issuer. It maps the sub, name, and roles
// claims onto an identity, letting services that already hold a signed JWT
// skip the password login entirely.
package jwt

import (
	"context"
	"fmt"
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/ausweis-dev/ausweis/pkg/auth"
)

// Config holds the JWT provider configuration.
type Config struct {
	// Secret is the HMAC signing key shared with the issuer.
	Secret string

	// Issuer is the expected iss claim. If empty, issuer is not validated.
	Issuer string

	// SubjectClaim is the claim used as the identity subject. Default: "sub".
	SubjectClaim string

	// NameClaim is the claim used as the display name. Default: "name".
	NameClaim string

	// RolesClaim is the claim holding granted roles, either a JSON array
	// or a space-separated string. Default: "roles".
	RolesClaim string
}

// applyDefaults fills in zero-value fields.
func (c *Config) applyDefaults() {
	if c.SubjectClaim == "" {
		c.SubjectClaim = "sub"
	}
	if c.NameClaim == "" {
		c.NameClaim = "name"
	}
	if c.RolesClaim == "" {
		c.RolesClaim = "roles"
	}
}

// Provider validates JWTCredentials with a static HMAC secret.
type Provider struct {
	config Config
}

var _ auth.Provider = (*Provider)(nil)

// New creates a JWT provider with the given configuration.
func New(cfg Config) *Provider {
	cfg.applyDefaults()
	return &Provider{config: cfg}
}

// Supports reports true only for JWTCredential.
func (p *Provider) Supports(c auth.Credential) bool {
	_, ok := c.(auth.JWTCredential)
	return ok
}

// Authenticate parses and verifies the token, then builds an identity from
// its claims. Every verification failure (bad signature, expiry, wrong
// issuer, missing subject) surfaces as invalid credentials.
func (p *Provider) Authenticate(_ context.Context, c auth.Credential) (*auth.Identity, error) {
	cred, ok := c.(auth.JWTCredential)
	if !ok {
		return nil, auth.ErrMissingCredentials
	}

	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{"HS256"}),
		jwtlib.WithExpirationRequired(),
	}
	if p.config.Issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(p.config.Issuer))
	}

	tok, err := jwtlib.Parse(cred.Token, func(t *jwtlib.Token) (interface{}, error) {
		return []byte(p.config.Secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", auth.ErrInvalidCredentials, err)
	}

	claims, ok := tok.Claims.(jwtlib.MapClaims)
	if !ok || !tok.Valid {
		return nil, fmt.Errorf("%w: malformed claims", auth.ErrInvalidCredentials)
	}

	subject := claimString(claims, p.config.SubjectClaim)
	if subject == "" {
		return nil, fmt.Errorf("%w: missing %q claim", auth.ErrInvalidCredentials, p.config.SubjectClaim)
	}

	return &auth.Identity{
		Subject:     subject,
		DisplayName: claimString(claims, p.config.NameClaim),
		Roles:       claimRoles(claims, p.config.RolesClaim),
	}, nil
}

// claimString extracts a string claim, or "" when absent or not a string.
func claimString(claims jwtlib.MapClaims, name string) string {
	if v, ok := claims[name].(string); ok {
		return v
	}
	return ""
}

// claimRoles extracts the roles claim as either a JSON array of strings or
// a space-separated string.
func claimRoles(claims jwtlib.MapClaims, name string) []string {
	switch v := claims[name].(type) {
	case []interface{}:
		var roles []string
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				roles = append(roles, s)
			}
		}
		return roles
	case string:
		if v == "" {
			return nil
		}
		return strings.Fields(v)
	default:
		return nil
	}
}
