// Command server runs the ausweis authentication gateway.
//
// Configuration is loaded from a YAML file (see pkg/config for the discovery
// order) with AUSWEIS_* environment overrides:
//
//	AUSWEIS_CONFIG       - Config file path
//	AUSWEIS_PORT         - Listen port (default: 8080)
//	AUSWEIS_USERS        - User store type: "memory" or "postgres"
//	AUSWEIS_POSTGRES_DSN - PostgreSQL DSN for the user store
//	AUSWEIS_JWT_SECRET   - Enables the JWT provider
//	AUSWEIS_API_KEYS     - JSON array of API key entries
//	AUSWEIS_LOG_LEVEL    - ERROR, WARN, INFO, DEBUG
//	AUSWEIS_DEBUG        - Comma-separated debug categories (e.g. "auth,tokens")
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/crypto/bcrypt"

	"github.com/ausweis-dev/ausweis/pkg/auth"
	"github.com/ausweis-dev/ausweis/pkg/auth/apikey"
	authjwt "github.com/ausweis-dev/ausweis/pkg/auth/jwt"
	"github.com/ausweis-dev/ausweis/pkg/auth/password"
	authtoken "github.com/ausweis-dev/ausweis/pkg/auth/token"
	"github.com/ausweis-dev/ausweis/pkg/config"
	"github.com/ausweis-dev/ausweis/pkg/debug"
	"github.com/ausweis-dev/ausweis/pkg/observability"
	"github.com/ausweis-dev/ausweis/pkg/service"
	"github.com/ausweis-dev/ausweis/pkg/transport"
	tokenmemory "github.com/ausweis-dev/ausweis/pkg/token/memory"
	"github.com/ausweis-dev/ausweis/pkg/user"
	usermemory "github.com/ausweis-dev/ausweis/pkg/user/memory"
	userpostgres "github.com/ausweis-dev/ausweis/pkg/user/postgres"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	debug.Init(cfg.Logging.Debug, cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Build the user store.
	users, cleanup, err := buildUserStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("building user store: %w", err)
	}
	defer cleanup()

	// Token store and the active-token gauge.
	tokens := tokenmemory.New()
	observability.RegisterActiveTokens(func() float64 { return float64(tokens.Len()) })

	// Provider chain in fixed registration order.
	providers := []auth.Provider{
		password.New(users, tokens),
		authtoken.New(tokens),
	}
	if len(cfg.Auth.APIKeys) > 0 {
		providers = append(providers, apikey.New(apiKeyEntries(cfg.Auth.APIKeys)))
		slog.Info("api key provider enabled", "keys", len(cfg.Auth.APIKeys))
	}
	if cfg.Auth.JWT.Secret != "" {
		providers = append(providers, authjwt.New(authjwt.Config{
			Secret: cfg.Auth.JWT.Secret,
			Issuer: cfg.Auth.JWT.Issuer,
		}))
		slog.Info("jwt provider enabled", "issuer", cfg.Auth.JWT.Issuer)
	}

	manager := auth.NewManager(providers...)
	filter := auth.NewFilter(manager, auth.FilterConfig{LoginPath: cfg.Auth.LoginPath})

	// Routes. The login endpoint is handled inside the filter.
	mux := http.NewServeMux()
	mux.Handle("POST "+cfg.Auth.LogoutPath, service.Logout(tokens, slog.Default()))
	mux.Handle("GET /whoami", service.RequireAuth(service.WhoAmI()))
	mux.Handle("GET /orders", service.RequireAuth(ordersHandler()))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	if cfg.Observability.Metrics.Enabled {
		mux.Handle("GET "+cfg.Observability.Metrics.Path, promhttp.Handler())
	}

	// Middleware chain, outermost first: request ID, access log, metrics,
	// then the authentication filter in front of the routes.
	var handler http.Handler = filter.Middleware(mux)
	handler = observability.MetricsMiddleware(handler)
	handler = transport.AccessLog(slog.Default())(handler)
	handler = transport.RequestID(handler)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in background.
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port, "login_path", cfg.Auth.LoginPath, "users", cfg.Users.Type)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error.
	select {
	case <-ctx.Done():
		slog.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// buildUserStore creates the configured credential store. The returned
// cleanup releases any held resources.
func buildUserStore(ctx context.Context, cfg *config.Config) (user.Store, func(), error) {
	switch cfg.Users.Type {
	case "postgres":
		store, err := userpostgres.New(ctx, userpostgres.Config{
			DSN:            cfg.Users.Postgres.DSN,
			MaxConns:       cfg.Users.Postgres.MaxConns,
			MigrateOnStart: cfg.Users.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, nil, err
		}
		slog.Info("user store enabled", "type", "postgres")
		return store, store.Close, nil

	default:
		seeded, err := seedUsers(cfg.Users.Seed)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("user store enabled", "type", "memory", "users", len(seeded))
		return usermemory.New(seeded...), func() {}, nil
	}
}

// seedUsers converts configured accounts into stored users, hashing any
// plaintext passwords with bcrypt.
func seedUsers(seed []config.SeedUserConfig) ([]user.User, error) {
	users := make([]user.User, 0, len(seed))
	for _, s := range seed {
		hash := []byte(s.PasswordHash)
		if len(hash) == 0 {
			var err error
			hash, err = bcrypt.GenerateFromPassword([]byte(s.Password), bcrypt.DefaultCost)
			if err != nil {
				return nil, fmt.Errorf("hashing password for %q: %w", s.Username, err)
			}
		}
		users = append(users, user.User{
			Username:     s.Username,
			DisplayName:  s.DisplayName,
			PasswordHash: hash,
			Roles:        s.Roles,
		})
	}
	return users, nil
}

// apiKeyEntries converts configured API keys into provider entries.
func apiKeyEntries(keys []config.APIKeyConfig) []apikey.RawKeyEntry {
	entries := make([]apikey.RawKeyEntry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, apikey.RawKeyEntry{
			Key: k.Key,
			Identity: auth.Identity{
				Subject: k.Subject,
				Roles:   k.Roles,
			},
		})
	}
	return entries
}

// ordersHandler is a demo protected resource showing the security context
// flowing to downstream handlers.
func ordersHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := auth.IdentityFromContext(r.Context())
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"owner":%q,"orders":[]}`+"\n", id.Subject)
	})
}
