package middleware

import (
	"net/http"

	logpkg "github.com/benvon/hotsauce-api/internal/logger"
	"github.com/benvon/hotsauce-api/internal/models"
	"github.com/benvon/hotsauce-api/internal/request"
	"github.com/benvon/hotsauce-api/internal/services/session"
	"go.uber.org/zap"
)

// LoginRequiredMessage is returned to clients without a valid session
const LoginRequiredMessage = "Login required to perform this action"

// SessionVerifier decodes a session cookie value
type SessionVerifier interface {
	Verify(token string) (models.Session, error)
}

// Authenticated rejects requests without a valid session cookie before the
// handler runs, and stores the session in the request context otherwise.
func Authenticated(verifier SessionVerifier, cookies session.CookieConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := cookies.Token(r)
			if !ok {
				respondErrorJSON(w, r, http.StatusUnauthorized, "Unauthorized", LoginRequiredMessage, logger)
				return
			}

			sess, err := verifier.Verify(token)
			if err != nil {
				logger.Debug("session_rejected",
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					zap.String("error", logpkg.SanitizeError(err)),
				)
				respondErrorJSON(w, r, http.StatusUnauthorized, "Unauthorized", LoginRequiredMessage, logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(request.WithSession(r.Context(), sess)))
		})
	}
}
