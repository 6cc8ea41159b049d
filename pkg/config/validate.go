package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	// server.port must be positive.
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}

	// auth paths must be absolute.
	if !strings.HasPrefix(c.Auth.LoginPath, "/") {
		errs = append(errs, fmt.Errorf("auth.login_path must start with \"/\", got %q", c.Auth.LoginPath))
	}
	if !strings.HasPrefix(c.Auth.LogoutPath, "/") {
		errs = append(errs, fmt.Errorf("auth.logout_path must start with \"/\", got %q", c.Auth.LogoutPath))
	}

	// users.type must be a known value.
	switch c.Users.Type {
	case "memory", "postgres":
		// valid
	default:
		errs = append(errs, fmt.Errorf("users.type must be \"memory\" or \"postgres\", got %q", c.Users.Type))
	}

	// If users.type is "postgres", DSN or DSNFile must be set.
	if c.Users.Type == "postgres" {
		if c.Users.Postgres.DSN == "" && c.Users.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("users.postgres.dsn or users.postgres.dsn_file is required when users.type is \"postgres\""))
		}
	}

	// Memory seed users need a username and some form of password.
	if c.Users.Type == "memory" {
		for i, u := range c.Users.Seed {
			if u.Username == "" {
				errs = append(errs, fmt.Errorf("users.seed[%d].username is required", i))
			}
			if u.Password == "" && u.PasswordFile == "" && u.PasswordHash == "" {
				errs = append(errs, fmt.Errorf("users.seed[%d]: password, password_file, or password_hash is required", i))
			}
		}
	}

	// API key entries need both key material and a subject.
	for i, k := range c.Auth.APIKeys {
		if k.Key == "" && k.KeyFile == "" {
			errs = append(errs, fmt.Errorf("auth.api_keys[%d].key or key_file is required", i))
		}
		if k.Subject == "" {
			errs = append(errs, fmt.Errorf("auth.api_keys[%d].subject is required", i))
		}
	}

	// A configured JWT secret must not be trivially short.
	if c.Auth.JWT.Secret != "" && len(c.Auth.JWT.Secret) < 32 {
		errs = append(errs, fmt.Errorf("auth.jwt.secret must be at least 32 characters"))
	}

	return errors.Join(errs...)
}
