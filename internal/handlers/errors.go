package handlers

import (
	"errors"
	"net/http"

	logpkg "github.com/benvon/hotsauce-api/internal/logger"
	"github.com/benvon/hotsauce-api/internal/services/auth"
	"github.com/benvon/hotsauce-api/internal/services/oidc"
	"github.com/benvon/hotsauce-api/internal/services/session"
	"github.com/benvon/hotsauce-api/internal/validation"
	"go.uber.org/zap"
)

const (
	tokenErrorMessage    = "An error occurred while validating a token"
	internalErrorMessage = "An internal server error occurred"
	loginRequiredMessage = "Login required to perform this action"
)

// apiError is the client-facing rendering of a service error
type apiError struct {
	status  int
	kind    string
	message string
}

// statusForError maps service errors onto HTTP responses. Anything
// unrecognised is reported as a generic 500.
func statusForError(err error) apiError {
	var verr *oidc.ValidationError
	switch {
	case errors.As(err, &verr):
		return apiError{status: tokenStatus(verr.Kind), kind: verr.Kind.String(), message: tokenErrorMessage}
	case errors.Is(err, validation.ErrAlreadyTaken):
		return apiError{status: http.StatusBadRequest, kind: "username_taken", message: validation.ErrAlreadyTaken.Error()}
	case validation.IsUsernameError(err):
		return apiError{status: http.StatusBadRequest, kind: "username_invalid", message: usernameMessage(err)}
	case errors.Is(err, auth.ErrNoSuchAccount):
		return apiError{status: http.StatusUnauthorized, kind: "no_such_account", message: auth.ErrNoSuchAccount.Error()}
	case errors.Is(err, auth.ErrReusedNonce):
		return apiError{status: http.StatusUnauthorized, kind: "reused_nonce", message: auth.ErrReusedNonce.Error()}
	case errors.Is(err, session.ErrUnauthorized):
		return apiError{status: http.StatusUnauthorized, kind: "unauthorized", message: loginRequiredMessage}
	case errors.Is(err, auth.ErrForbidden):
		return apiError{status: http.StatusForbidden, kind: "forbidden", message: auth.ErrForbidden.Error()}
	case errors.Is(err, auth.ErrSignupDisabled):
		return apiError{status: http.StatusNotFound, kind: "not_found", message: auth.ErrSignupDisabled.Error()}
	default:
		return apiError{status: http.StatusInternalServerError, kind: "internal", message: internalErrorMessage}
	}
}

// usernameMessage returns the grammar rule err violated, without wrapping context
func usernameMessage(err error) string {
	for _, rule := range []error{validation.ErrIllegalCharacters, validation.ErrTooShort, validation.ErrTooLong} {
		if errors.Is(err, rule) {
			return rule.Error()
		}
	}
	return err.Error()
}

func tokenStatus(kind oidc.Kind) int {
	switch kind {
	case oidc.KindMalformedToken, oidc.KindMissingKeyID, oidc.KindUnknownKey:
		return http.StatusBadRequest
	case oidc.KindKeyFetchFailed, oidc.KindUnsupportedAlgorithm:
		return http.StatusInternalServerError
	default:
		return http.StatusUnauthorized
	}
}

// respondServiceError renders err and logs server-side failures in full
func respondServiceError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	apiErr := statusForError(err)
	if apiErr.status >= http.StatusInternalServerError {
		logger.Error("request_failed",
			zap.String("path", logpkg.SanitizePath(r.URL.Path)),
			zap.String("kind", apiErr.kind),
			zap.Error(err),
		)
	}
	respondJSONError(w, apiErr.status, apiErr.kind, apiErr.message)
}
