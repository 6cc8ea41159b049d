// Package memory provides an in-memory implementation of token.Store.
// Tokens are lost when the process restarts; persistence and multi-node
// sharing are out of scope by design.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/ausweis-dev/ausweis/pkg/auth"
	"github.com/ausweis-dev/ausweis/pkg/token"
)

// tokenBytes is the entropy of a generated token (256 bits).
const tokenBytes = 32

// record binds a token to its identity. Records are immutable once inserted;
// all mutation is map-level insert/remove under the store mutex.
type record struct {
	identity auth.Identity
	issuedAt time.Time
}

// Store is an in-memory token store safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	records map[string]record
}

// Ensure Store implements token.Store at compile time.
var _ token.Store = (*Store)(nil)

// New creates an empty in-memory token store.
func New() *Store {
	return &Store{records: make(map[string]record)}
}

// Issue generates a cryptographically random token and binds it to identity.
// On the astronomically rare collision with a live token it regenerates.
func (s *Store) Issue(_ context.Context, identity auth.Identity) (string, error) {
	identity.Roles = slices.Clone(identity.Roles)

	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		tok, err := generate()
		if err != nil {
			return "", err
		}
		if _, exists := s.records[tok]; exists {
			continue
		}
		s.records[tok] = record{identity: identity, issuedAt: time.Now()}
		return tok, nil
	}
}

// Lookup resolves a token to a copy of its bound identity.
func (s *Store) Lookup(_ context.Context, tok string) (*auth.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[tok]
	if !ok {
		return nil, token.ErrNotFound
	}

	// Copy so callers cannot mutate the stored record.
	id := rec.identity
	id.Roles = slices.Clone(id.Roles)
	return &id, nil
}

// Revoke removes the token. Absent tokens are ignored.
func (s *Store) Revoke(_ context.Context, tok string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, tok)
	return nil
}

// Len returns the number of live tokens, for the active-token gauge.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

// generate returns a 256-bit random token in unpadded base64url.
func generate() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
