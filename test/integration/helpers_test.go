// Package integration provides integration tests for the ausweis gateway.
//
// Tests run against a real in-process HTTP server assembled the same way
// cmd/server does it: request ID and metrics middleware, the authentication
// filter in front of a mux with logout, whoami, and a protected resource.
package integration

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ausweis-dev/ausweis/pkg/auth"
	"github.com/ausweis-dev/ausweis/pkg/auth/apikey"
	authjwt "github.com/ausweis-dev/ausweis/pkg/auth/jwt"
	"github.com/ausweis-dev/ausweis/pkg/auth/password"
	authtoken "github.com/ausweis-dev/ausweis/pkg/auth/token"
	"github.com/ausweis-dev/ausweis/pkg/observability"
	"github.com/ausweis-dev/ausweis/pkg/service"
	tokenmemory "github.com/ausweis-dev/ausweis/pkg/token/memory"
	"github.com/ausweis-dev/ausweis/pkg/transport"
	"github.com/ausweis-dev/ausweis/pkg/user"
	usermemory "github.com/ausweis-dev/ausweis/pkg/user/memory"
)

const (
	testJWTSecret = "integration-test-secret-0123456789ab"
	testAPIKey    = "svc-key-integration"
)

// testEnv holds the shared server for all integration tests.
var testEnv *TestEnvironment

// TestEnvironment holds the ausweis server for testing.
type TestEnvironment struct {
	Server *httptest.Server
}

// TestMain starts the gateway before running tests.
func TestMain(m *testing.M) {
	testEnv = setupTestEnvironment()
	code := m.Run()
	testEnv.Server.Close()
	os.Exit(code)
}

// setupTestEnvironment assembles the gateway with a seeded memory user store.
func setupTestEnvironment() *TestEnvironment {
	hash, err := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.MinCost)
	if err != nil {
		panic(fmt.Sprintf("hashing seed password: %v", err))
	}
	users := usermemory.New(
		user.User{Username: "alice", DisplayName: "Alice", PasswordHash: hash, Roles: []string{auth.RoleAdmin}},
		user.User{Username: "bob", DisplayName: "Bob", PasswordHash: hash},
	)

	tokens := tokenmemory.New()

	manager := auth.NewManager(
		password.New(users, tokens),
		authtoken.New(tokens),
		apikey.New([]apikey.RawKeyEntry{
			{Key: testAPIKey, Identity: auth.Identity{Subject: "service-a", Roles: []string{auth.RoleUser}}},
		}),
		authjwt.New(authjwt.Config{Secret: testJWTSecret}),
	)
	filter := auth.NewFilter(manager, auth.FilterConfig{})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	// Mux matching the production layout.
	mux := http.NewServeMux()
	mux.Handle("POST /auth/logout", service.Logout(tokens, logger))
	mux.Handle("GET /whoami", service.RequireAuth(service.WhoAmI()))
	mux.Handle("GET /admin", service.RequireRole(auth.RoleAdmin)(okHandler()))
	mux.Handle("GET /orders", service.RequireAuth(okHandler()))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	var handler http.Handler = filter.Middleware(mux)
	handler = observability.MetricsMiddleware(handler)
	handler = transport.RequestID(handler)

	return &TestEnvironment{
		Server: httptest.NewServer(handler),
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
}

// BaseURL returns the gateway base URL.
func (env *TestEnvironment) BaseURL() string {
	return env.Server.URL
}

// --- HTTP helpers ---

// doRequest sends a request with the given headers and returns the response.
func doRequest(t *testing.T, method, url string, headers map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatalf("creating %s request: %v", method, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

// login performs a password login and returns the minted token.
func login(t *testing.T, username, pass string) string {
	t.Helper()
	resp := doRequest(t, http.MethodPost, testEnv.BaseURL()+"/auth/login", map[string]string{
		auth.HeaderUsername: username,
		auth.HeaderPassword: pass,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200: %s", resp.StatusCode, readBody(t, resp))
	}
	var tr struct {
		Token string `json:"token"`
	}
	decodeJSON(t, resp, &tr)
	if tr.Token == "" {
		t.Fatal("login returned empty token")
	}
	return tr.Token
}

// signJWT mints an HS256 token with the shared test secret.
func signJWT(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	tok := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("signing JWT: %v", err)
	}
	return signed
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading response body: %v", err)
	}
	return string(body)
}

// decodeJSON reads the response body and decodes it into the target.
func decodeJSON(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		t.Fatalf("decoding JSON: %v", err)
	}
}
