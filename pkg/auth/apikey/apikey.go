// Package apikey provides an API key authentication provider that validates
// static keys using SHA-256 hashing and constant-time comparison.
package apikey

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"

	"github.com/ausweis-dev/ausweis/pkg/auth"
)

// KeyEntry maps a key hash to an identity.
type KeyEntry struct {
	KeyHash  [32]byte
	Identity auth.Identity
}

// RawKeyEntry is the configuration format for API keys.
type RawKeyEntry struct {
	Key      string
	Identity auth.Identity
}

// Provider validates API keys against a static key store.
type Provider struct {
	keys []KeyEntry
}

var _ auth.Provider = (*Provider)(nil)

// New creates an API key provider from a list of raw keys and identities.
// Keys are hashed immediately; plaintext keys are not stored.
func New(entries []RawKeyEntry) *Provider {
	p := &Provider{}
	for _, e := range entries {
		p.keys = append(p.keys, KeyEntry{
			KeyHash:  sha256.Sum256([]byte(e.Key)),
			Identity: e.Identity,
		})
	}
	return p
}

// Supports reports true only for APIKeyCredential.
func (p *Provider) Supports(c auth.Credential) bool {
	_, ok := c.(auth.APIKeyCredential)
	return ok
}

// Authenticate hashes the submitted key and compares it against every
// stored hash in constant time.
func (p *Provider) Authenticate(_ context.Context, c auth.Credential) (*auth.Identity, error) {
	cred, ok := c.(auth.APIKeyCredential)
	if !ok {
		return nil, auth.ErrMissingCredentials
	}

	keyHash := sha256.Sum256([]byte(cred.Key))

	for _, entry := range p.keys {
		if subtle.ConstantTimeCompare(keyHash[:], entry.KeyHash[:]) == 1 {
			// Copy identity to avoid shared state.
			id := entry.Identity
			return &id, nil
		}
	}

	return nil, auth.ErrInvalidCredentials
}
