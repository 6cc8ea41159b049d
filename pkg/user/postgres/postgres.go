// Package postgres provides a PostgreSQL-backed user.Store using pgx/v5
// connection pooling. The password hash is stored as an opaque bytea; the
// comparator lives with the password provider, not here.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ausweis-dev/ausweis/pkg/user"
)

// Store is a PostgreSQL-backed user store.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements user.Store at compile time.
var _ user.Store = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// FindByUsername returns the stored user or user.ErrNotFound.
func (s *Store) FindByUsername(ctx context.Context, username string) (*user.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT username, display_name, password_hash, roles
		 FROM users WHERE username = $1`,
		username,
	)

	var u user.User
	if err := row.Scan(&u.Username, &u.DisplayName, &u.PasswordHash, &u.Roles); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("querying user %q: %w", username, err)
	}

	return &u, nil
}

// Upsert inserts or updates a user record. Used by provisioning and tests.
func (s *Store) Upsert(ctx context.Context, u user.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (username, display_name, password_hash, roles)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (username) DO UPDATE SET
		   display_name = EXCLUDED.display_name,
		   password_hash = EXCLUDED.password_hash,
		   roles = EXCLUDED.roles,
		   updated_at = now()`,
		u.Username, u.DisplayName, u.PasswordHash, u.Roles,
	)
	if err != nil {
		return fmt.Errorf("upserting user %q: %w", u.Username, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}
