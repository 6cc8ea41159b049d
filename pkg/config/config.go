// Package config provides unified configuration for the ausweis gateway.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (AUSWEIS_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the ausweis gateway.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Auth          AuthConfig          `yaml:"auth"`
	Users         UsersConfig         `yaml:"users"`
	Logging       LoggingConfig       `yaml:"logging"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// LoggingConfig holds log level and debug category settings. The AUSWEIS_DEBUG
// and AUSWEIS_LOG_LEVEL environment variables take precedence over these.
type LoggingConfig struct {
	Level string `yaml:"level"` // ERROR, WARN, INFO, DEBUG; default: "INFO"
	Debug string `yaml:"debug"` // comma-separated debug categories
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `yaml:"port"`          // default: 8080
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"` // default: 30s
}

// AuthConfig holds authentication pipeline settings.
type AuthConfig struct {
	// LoginPath is the POST endpoint exchanging username/password headers
	// for a token. Default: "/auth/login".
	LoginPath string `yaml:"login_path"`

	// LogoutPath is the POST endpoint revoking the caller's token.
	// Default: "/auth/logout".
	LogoutPath string `yaml:"logout_path"`

	// APIKeys lists static API key entries for the API key provider.
	// The provider is registered only when at least one key is configured.
	APIKeys []APIKeyConfig `yaml:"api_keys"`

	// JWT configures the optional JWT provider. Registered only when a
	// secret is configured.
	JWT JWTConfig `yaml:"jwt"`
}

// APIKeyConfig describes a single API key entry.
type APIKeyConfig struct {
	Key     string   `yaml:"key"`
	KeyFile string   `yaml:"key_file"` // _file variant for key
	Subject string   `yaml:"subject"`
	Roles   []string `yaml:"roles"`
}

// JWTConfig holds JWT provider settings.
type JWTConfig struct {
	Secret     string `yaml:"secret"`
	SecretFile string `yaml:"secret_file"` // _file variant for secret
	Issuer     string `yaml:"issuer"`
}

// UsersConfig holds credential store settings.
type UsersConfig struct {
	Type     string           `yaml:"type"` // "memory" or "postgres", default: "memory"
	Seed     []SeedUserConfig `yaml:"seed"` // memory store accounts
	Postgres PostgresConfig   `yaml:"postgres"`
}

// SeedUserConfig describes one memory-store account. Password is bcrypt-hashed
// at startup; PasswordHash may carry a pre-computed hash instead.
type SeedUserConfig struct {
	Username     string   `yaml:"username"`
	DisplayName  string   `yaml:"display_name"`
	Password     string   `yaml:"password"`
	PasswordFile string   `yaml:"password_file"` // _file variant for password
	PasswordHash string   `yaml:"password_hash"`
	Roles        []string `yaml:"roles"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"` // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`
	MigrateOnStart bool   `yaml:"migrate_on_start"`
}

// ObservabilityConfig holds monitoring settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Auth: AuthConfig{
			LoginPath:  "/auth/login",
			LogoutPath: "/auth/logout",
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
		Users: UsersConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				MaxConns: 10,
			},
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}
