package session

import (
	"net/http"
	"strings"

	"github.com/benvon/hotsauce-api/internal/models"
)

const (
	// CookieName is the name of the session cookie
	CookieName = "login_cookie"
	// DefaultCookiePath scopes the cookie to API routes
	DefaultCookiePath = "/api"
)

// CookieConfig controls how the session cookie is written
type CookieConfig struct {
	Name   string
	Path   string
	Secure bool
}

// NewCookieConfig builds the cookie settings for a deployment served at baseURL
func NewCookieConfig(baseURL, path string) CookieConfig {
	if path == "" {
		path = DefaultCookiePath
	}
	return CookieConfig{
		Name:   CookieName,
		Path:   path,
		Secure: strings.HasPrefix(strings.ToLower(baseURL), "https://"),
	}
}

// NewCookie wraps a session token in a cookie
func (c CookieConfig) NewCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     c.Path,
		MaxAge:   int(models.SessionValidity.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// ClearCookie returns a cookie that removes the session from the browser
func (c CookieConfig) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     c.Path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// Token returns the session token carried by r, if any
func (c CookieConfig) Token(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(c.Name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}
