// Package memory provides an in-memory user.Store, seeded at startup from
// configuration. Suitable for development and tests.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/ausweis-dev/ausweis/pkg/user"
)

// Store is an in-memory user store safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	users map[string]user.User
}

var _ user.Store = (*Store)(nil)

// New creates a store holding the given users.
func New(users ...user.User) *Store {
	s := &Store{users: make(map[string]user.User, len(users))}
	for _, u := range users {
		s.users[u.Username] = u
	}
	return s
}

// Add inserts or replaces a user.
func (s *Store) Add(u user.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[u.Username] = u
}

// FindByUsername returns a copy of the stored user or user.ErrNotFound.
func (s *Store) FindByUsername(_ context.Context, username string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return nil, user.ErrNotFound
	}

	u.Roles = slices.Clone(u.Roles)
	u.PasswordHash = slices.Clone(u.PasswordHash)
	return &u, nil
}
