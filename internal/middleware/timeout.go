package middleware

import (
	"net/http"
	"time"
)

// DefaultRequestTimeout is the default request timeout. It also bounds the
// key-set fetch and storage calls made while handling a login.
const DefaultRequestTimeout = 15 * time.Second

const timeoutBody = `{"success":false,"error":"Service Unavailable","message":"Request timed out"}`

// Timeout enforces a deadline on request handlers through their context
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, timeoutBody)
	}
}
