package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/benvon/hotsauce-api/internal/models"
	"github.com/benvon/hotsauce-api/internal/request"
	"github.com/benvon/hotsauce-api/internal/services/auth"
	"github.com/benvon/hotsauce-api/internal/services/session"
	"github.com/benvon/hotsauce-api/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Authenticator runs the login and signup flows
type Authenticator interface {
	Login(ctx context.Context, identityToken string) (*auth.Result, error)
	Signup(ctx context.Context, identityToken, username string) (*auth.Result, error)
	Variant() models.UserVariant
}

var _ Authenticator = (*auth.Gateway)(nil)

// credentialsRequest is the body of login and signup requests.
// google_id_token is accepted as an alias of identity_token.
type credentialsRequest struct {
	IdentityToken string `json:"identity_token" validate:"required"`
	GoogleIDToken string `json:"google_id_token,omitempty"`
	Username      string `json:"username,omitempty"`
}

// sessionResponse describes a freshly established session
type sessionResponse struct {
	UserID    int64     `json:"user_id"`
	Created   bool      `json:"created"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuthHandler handles authentication requests
type AuthHandler struct {
	gateway      Authenticator
	cookies      session.CookieConfig
	debugEnabled bool
	logger       *zap.Logger
}

// NewAuthHandler creates a new auth handler. debugEnabled exposes the
// session inspection endpoint.
func NewAuthHandler(gateway Authenticator, cookies session.CookieConfig, debugEnabled bool, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		gateway:      gateway,
		cookies:      cookies,
		debugEnabled: debugEnabled,
		logger:       logger,
	}
}

// RegisterRoutes registers auth routes on the /api router. requireSession
// guards routes that need a logged-in caller.
func (h *AuthHandler) RegisterRoutes(r *mux.Router, requireSession mux.MiddlewareFunc) {
	handle(r, "/login", http.HandlerFunc(h.Login), http.MethodPost)
	if h.gateway.Variant() == models.UserVariantUsername {
		handle(r, "/signup", http.HandlerFunc(h.Signup), http.MethodPost)
	}
	handle(r, "/logout", http.HandlerFunc(h.Logout), http.MethodPost)
	if h.debugEnabled {
		handle(r, "/debug_login_cookie", requireSession(http.HandlerFunc(h.DebugLoginCookie)), http.MethodGet)
	}
}

// Login handles POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	result, err := h.gateway.Login(r.Context(), req.IdentityToken)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	h.startSession(w, result)
}

// Signup handles POST /api/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	result, err := h.gateway.Signup(r.Context(), req.IdentityToken, req.Username)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	h.startSession(w, result)
}

// Logout handles POST /api/logout. Sessions live only in the cookie, so
// clearing it is all there is to do.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.cookies.ClearCookie())
	respondJSON(w, http.StatusOK, map[string]bool{"logged_out": true})
}

// DebugLoginCookie handles GET /api/debug_login_cookie
func (h *AuthHandler) DebugLoginCookie(w http.ResponseWriter, r *http.Request) {
	sess, ok := request.SessionFromContext(r.Context())
	if !ok {
		respondServiceError(w, r, h.logger, session.ErrUnauthorized)
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

func (h *AuthHandler) decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, bool) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return req, false
	}
	if req.IdentityToken == "" {
		req.IdentityToken = req.GoogleIDToken
	}
	if err := validation.Validate.Struct(req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "invalid_request", "identity_token is required")
		return req, false
	}
	return req, true
}

func (h *AuthHandler) startSession(w http.ResponseWriter, result *auth.Result) {
	http.SetCookie(w, h.cookies.NewCookie(result.Token))
	respondJSON(w, http.StatusOK, sessionResponse{
		UserID:    result.UserID,
		Created:   result.Created,
		ExpiresAt: result.Session.ExpiresAt,
	})
}
