package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// credProvider validates one credential kind with canned results, recording
// what it was invoked with.
type credProvider struct {
	match func(Credential) bool
	auth  func(Credential) (*Identity, error)
	got   []Credential
}

func (p *credProvider) Supports(c Credential) bool { return p.match(c) }

func (p *credProvider) Authenticate(_ context.Context, c Credential) (*Identity, error) {
	p.got = append(p.got, c)
	return p.auth(c)
}

func passwordStub(auth func(Credential) (*Identity, error)) *credProvider {
	return &credProvider{
		match: func(c Credential) bool { _, ok := c.(PasswordCredential); return ok },
		auth:  auth,
	}
}

func tokenStub(auth func(Credential) (*Identity, error)) *credProvider {
	return &credProvider{
		match: func(c Credential) bool { _, ok := c.(TokenCredential); return ok },
		auth:  auth,
	}
}

// downstream records whether it ran and what identity it observed.
type downstream struct {
	called   bool
	identity *Identity
}

func (d *downstream) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d.called = true
		d.identity = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func newTestFilter(providers ...Provider) *Filter {
	return NewFilter(NewManager(providers...), FilterConfig{})
}

func TestFilter_LoginSuccess(t *testing.T) {
	pw := passwordStub(func(c Credential) (*Identity, error) {
		cred := c.(PasswordCredential)
		if cred.Username != "alice" || cred.Password != "correct" {
			return nil, ErrInvalidCredentials
		}
		return &Identity{Subject: "alice", Roles: []string{RoleUser}, IssuedToken: "tok-123"}, nil
	})
	next := &downstream{}
	handler := newTestFilter(pw).Middleware(next.handler())

	req := httptest.NewRequest("POST", DefaultLoginPath, nil)
	req.Header.Set(HeaderUsername, "alice")
	req.Header.Set(HeaderPassword, "correct")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var body struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Token != "tok-123" {
		t.Errorf("token = %q, want %q", body.Token, "tok-123")
	}
	if next.called {
		t.Error("login success must not forward downstream")
	}
}

func TestFilter_LoginWrongPassword(t *testing.T) {
	pw := passwordStub(func(Credential) (*Identity, error) {
		return nil, ErrInvalidCredentials
	})
	next := &downstream{}
	handler := newTestFilter(pw).Middleware(next.handler())

	req := httptest.NewRequest("POST", DefaultLoginPath, nil)
	req.Header.Set(HeaderUsername, "alice")
	req.Header.Set(HeaderPassword, "wrong")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if next.called {
		t.Error("rejected login must not forward downstream")
	}
}

func TestFilter_LoginUnknownUser(t *testing.T) {
	pw := passwordStub(func(Credential) (*Identity, error) {
		return nil, ErrUserNotFound
	})
	handler := newTestFilter(pw).Middleware((&downstream{}).handler())

	req := httptest.NewRequest("POST", DefaultLoginPath, nil)
	req.Header.Set(HeaderUsername, "nobody")
	req.Header.Set(HeaderPassword, "x")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestFilter_LoginMissingHeaders(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
	}{
		{"no password", map[string]string{HeaderUsername: "alice"}},
		{"no username", map[string]string{HeaderPassword: "secret"}},
		{"neither", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pw := passwordStub(func(Credential) (*Identity, error) {
				t.Error("provider must not run without both headers")
				return nil, ErrInvalidCredentials
			})
			next := &downstream{}
			handler := newTestFilter(pw).Middleware(next.handler())

			req := httptest.NewRequest("POST", DefaultLoginPath, nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			// Missing headers indicate a misconfigured caller, not bad
			// end-user credentials.
			if rec.Code != http.StatusInternalServerError {
				t.Errorf("status = %d, want 500", rec.Code)
			}
			if next.called {
				t.Error("failed login must not forward downstream")
			}
		})
	}
}

func TestFilter_LoginInternalFault(t *testing.T) {
	pw := passwordStub(func(Credential) (*Identity, error) {
		return nil, errors.New("user store unavailable")
	})
	handler := newTestFilter(pw).Middleware((&downstream{}).handler())

	req := httptest.NewRequest("POST", DefaultLoginPath, nil)
	req.Header.Set(HeaderUsername, "alice")
	req.Header.Set(HeaderPassword, "correct")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestFilter_TokenAuthPopulatesContext(t *testing.T) {
	tp := tokenStub(func(c Credential) (*Identity, error) {
		if c.(TokenCredential).Token != "tok-123" {
			return nil, ErrTokenNotFound
		}
		return &Identity{Subject: "alice", Roles: []string{RoleUser}}, nil
	})
	next := &downstream{}
	handler := newTestFilter(tp).Middleware(next.handler())

	req := httptest.NewRequest("GET", "/orders", nil)
	req.Header.Set(HeaderToken, "tok-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !next.called {
		t.Fatal("request was not forwarded")
	}
	if next.identity == nil || next.identity.Subject != "alice" {
		t.Errorf("downstream identity = %+v, want alice", next.identity)
	}
}

func TestFilter_BadTokenPassesThrough(t *testing.T) {
	tp := tokenStub(func(Credential) (*Identity, error) {
		return nil, ErrTokenNotFound
	})
	next := &downstream{}
	handler := newTestFilter(tp).Middleware(next.handler())

	req := httptest.NewRequest("GET", "/orders", nil)
	req.Header.Set(HeaderToken, "unknown")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	// The filter never rejects non-login requests; downstream
	// authorization decides.
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !next.called {
		t.Error("request was not forwarded")
	}
	if next.identity != nil {
		t.Errorf("identity leaked on failed auth: %+v", next.identity)
	}
}

func TestFilter_NoCredentialsPassesThrough(t *testing.T) {
	next := &downstream{}
	handler := newTestFilter().Middleware(next.handler())

	req := httptest.NewRequest("GET", "/public", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !next.called {
		t.Error("request was not forwarded")
	}
	if next.identity != nil {
		t.Errorf("unexpected identity: %+v", next.identity)
	}
}

func TestFilter_TokenTakesPrecedenceOverPassword(t *testing.T) {
	pw := passwordStub(func(Credential) (*Identity, error) {
		return &Identity{Subject: "via-password"}, nil
	})
	tp := tokenStub(func(Credential) (*Identity, error) {
		return &Identity{Subject: "via-token"}, nil
	})
	next := &downstream{}
	handler := newTestFilter(pw, tp).Middleware(next.handler())

	req := httptest.NewRequest("GET", "/orders", nil)
	req.Header.Set(HeaderToken, "tok-123")
	req.Header.Set(HeaderUsername, "alice")
	req.Header.Set(HeaderPassword, "correct")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if next.identity == nil || next.identity.Subject != "via-token" {
		t.Errorf("identity = %+v, want via-token", next.identity)
	}
	if len(pw.got) != 0 {
		t.Error("password provider consulted on a non-login path")
	}
}

func TestFilter_EmptyTokenHeaderIsPresent(t *testing.T) {
	tp := tokenStub(func(c Credential) (*Identity, error) {
		if c.(TokenCredential).Token != "" {
			t.Errorf("token = %q, want empty", c.(TokenCredential).Token)
		}
		return nil, ErrTokenNotFound
	})
	next := &downstream{}
	handler := newTestFilter(tp).Middleware(next.handler())

	req := httptest.NewRequest("GET", "/orders", nil)
	req.Header.Set(HeaderToken, "")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if len(tp.got) != 1 {
		t.Errorf("token provider invoked %d times, want 1 (empty header counts as present)", len(tp.got))
	}
	if !next.called {
		t.Error("request was not forwarded")
	}
}

func TestFilter_GetOnLoginPathIsNotLogin(t *testing.T) {
	next := &downstream{}
	handler := newTestFilter().Middleware(next.handler())

	req := httptest.NewRequest("GET", DefaultLoginPath, nil)
	req.Header.Set(HeaderUsername, "alice")
	req.Header.Set(HeaderPassword, "correct")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !next.called {
		t.Error("GET on the login path must forward downstream")
	}
}

func TestFilter_PanicIsRecovered(t *testing.T) {
	tp := tokenStub(func(Credential) (*Identity, error) {
		panic("boom")
	})
	next := &downstream{}
	handler := newTestFilter(tp).Middleware(next.handler())

	req := httptest.NewRequest("GET", "/orders", nil)
	req.Header.Set(HeaderToken, "tok")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if next.called {
		t.Error("request forwarded after a panic")
	}
}

func TestFilter_CustomLoginPath(t *testing.T) {
	pw := passwordStub(func(Credential) (*Identity, error) {
		return &Identity{Subject: "alice", IssuedToken: "tok"}, nil
	})
	f := NewFilter(NewManager(pw), FilterConfig{LoginPath: "/api/session"})
	next := &downstream{}
	handler := f.Middleware(next.handler())

	req := httptest.NewRequest("POST", "/api/session", nil)
	req.Header.Set(HeaderUsername, "alice")
	req.Header.Set(HeaderPassword, "correct")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if next.called {
		t.Error("login must not forward downstream")
	}
}
