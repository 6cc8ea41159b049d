// Package token defines the token store contract: issuing, looking up, and
// revoking the opaque tokens minted on password login.
package token

import (
	"context"
	"errors"

	"github.com/ausweis-dev/ausweis/pkg/auth"
)

// ErrNotFound is returned when a token does not map to a live record.
// It is a normal lookup result, not a fault; callers cannot distinguish
// an unknown token from an invalid one.
var ErrNotFound = errors.New("token not found")

// Store issues, resolves, and revokes opaque authentication tokens.
//
// Tokens have no TTL in this design: they live until explicitly revoked.
// Expiry and cross-process sharing are deliberate extension points for
// implementations backed by shared storage; the in-memory store does not
// add them silently.
type Store interface {
	// Issue generates an unguessable opaque token, binds it to the
	// identity, and returns it. Token values are unique across all live
	// records.
	Issue(ctx context.Context, identity auth.Identity) (string, error)

	// Lookup resolves a token to its bound identity. It is a pure read:
	// it does not extend or refresh any lifetime. Returns ErrNotFound for
	// unknown tokens.
	Lookup(ctx context.Context, tok string) (*auth.Identity, error)

	// Revoke removes a token. Idempotent: revoking an absent token is
	// not an error.
	Revoke(ctx context.Context, tok string) error
}
