package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benvon/hotsauce-api/internal/models"
	"github.com/benvon/hotsauce-api/internal/services/auth"
	"github.com/benvon/hotsauce-api/internal/services/session"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// fakeAuthenticator records the arguments it was called with
type fakeAuthenticator struct {
	mu       sync.Mutex
	variant  models.UserVariant
	err      error
	token    string
	username string
}

var _ Authenticator = (*fakeAuthenticator)(nil)

func (f *fakeAuthenticator) result() *auth.Result {
	return &auth.Result{
		UserID:  9,
		Token:   "session-token",
		Created: true,
		Session: models.Session{UserID: 9, ExpiresAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
}

func (f *fakeAuthenticator) Login(_ context.Context, token string) (*auth.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
	if f.err != nil {
		return nil, f.err
	}
	return f.result(), nil
}

func (f *fakeAuthenticator) Signup(_ context.Context, token, username string) (*auth.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token, f.username = token, username
	if f.err != nil {
		return nil, f.err
	}
	return f.result(), nil
}

func (f *fakeAuthenticator) Variant() models.UserVariant {
	if f.variant == "" {
		return models.UserVariantUsername
	}
	return f.variant
}

var testCookies = session.NewCookieConfig("http://localhost:8080", session.DefaultCookiePath)

func TestAuthHandler_Login(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		gatewayErr error
		wantStatus int
		wantToken  string
		wantCookie bool
	}{
		{name: "identity_token", body: `{"identity_token":"abc"}`, wantStatus: http.StatusOK, wantToken: "abc", wantCookie: true},
		{name: "google_id_token alias", body: `{"google_id_token":"legacy"}`, wantStatus: http.StatusOK, wantToken: "legacy", wantCookie: true},
		{name: "identity_token wins over alias", body: `{"identity_token":"new","google_id_token":"old"}`, wantStatus: http.StatusOK, wantToken: "new", wantCookie: true},
		{name: "missing token", body: `{}`, wantStatus: http.StatusBadRequest},
		{name: "bad json", body: `{`, wantStatus: http.StatusBadRequest},
		{name: "no account", body: `{"identity_token":"abc"}`, gatewayErr: auth.ErrNoSuchAccount, wantStatus: http.StatusUnauthorized, wantToken: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gw := &fakeAuthenticator{err: tt.gatewayErr}
			h := NewAuthHandler(gw, testCookies, false, zap.NewNop())

			req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			h.Login(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if gw.token != tt.wantToken {
				t.Errorf("gateway saw token %q, want %q", gw.token, tt.wantToken)
			}
			cookies := w.Result().Cookies()
			if got := len(cookies) == 1 && cookies[0].Name == session.CookieName; got != tt.wantCookie {
				t.Errorf("session cookie set = %v, want %v", got, tt.wantCookie)
			}
			if tt.wantCookie {
				var body struct {
					Data sessionResponse `json:"data"`
				}
				if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
					t.Fatalf("Failed to decode response: %v", err)
				}
				if body.Data.UserID != 9 || !body.Data.Created {
					t.Errorf("data = %+v", body.Data)
				}
			}
		})
	}
}

func TestAuthHandler_SignupPassesUsername(t *testing.T) {
	t.Parallel()

	gw := &fakeAuthenticator{}
	h := NewAuthHandler(gw, testCookies, false, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/signup", strings.NewReader(`{"identity_token":"abc","username":"chilihead"}`))
	w := httptest.NewRecorder()
	h.Signup(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gw.username != "chilihead" {
		t.Errorf("gateway saw username %q", gw.username)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	t.Parallel()

	h := NewAuthHandler(&fakeAuthenticator{}, testCookies, false, zap.NewNop())
	w := httptest.NewRecorder()
	h.Logout(w, httptest.NewRequest(http.MethodPost, "/api/logout", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != session.CookieName || cookies[0].MaxAge >= 0 {
		t.Errorf("expected an expiring %s cookie, got %+v", session.CookieName, cookies)
	}
}

func TestAuthHandler_RegisterRoutes(t *testing.T) {
	t.Parallel()

	passthrough := mux.MiddlewareFunc(func(next http.Handler) http.Handler { return next })

	tests := []struct {
		name       string
		variant    models.UserVariant
		debug      bool
		path       string
		method     string
		wantRouted bool
	}{
		{name: "signup in username variant", variant: models.UserVariantUsername, path: "/api/signup", method: http.MethodPost, wantRouted: true},
		{name: "no signup in profile variant", variant: models.UserVariantProfile, path: "/api/signup", method: http.MethodPost},
		{name: "login always", variant: models.UserVariantProfile, path: "/api/login", method: http.MethodPost, wantRouted: true},
		{name: "debug route off", variant: models.UserVariantUsername, path: "/api/debug_login_cookie", method: http.MethodGet},
		{name: "debug route on", variant: models.UserVariantUsername, debug: true, path: "/api/debug_login_cookie", method: http.MethodGet, wantRouted: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := mux.NewRouter()
			api := r.PathPrefix("/api").Subrouter()
			NewAuthHandler(&fakeAuthenticator{variant: tt.variant}, testCookies, tt.debug, zap.NewNop()).RegisterRoutes(api, passthrough)

			var match mux.RouteMatch
			routed := r.Match(httptest.NewRequest(tt.method, tt.path, nil), &match) && match.MatchErr == nil
			if routed != tt.wantRouted {
				t.Errorf("route %s %s registered = %v, want %v", tt.method, tt.path, routed, tt.wantRouted)
			}
		})
	}
}
