package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/benvon/hotsauce-api/internal/database"
	"github.com/benvon/hotsauce-api/internal/models"
	"github.com/benvon/hotsauce-api/internal/request"
	"github.com/benvon/hotsauce-api/internal/services/session"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// UserReader loads user records
type UserReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// ProfileHandler serves the logged-in user's own record
type ProfileHandler struct {
	users  UserReader
	logger *zap.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(users UserReader, logger *zap.Logger) *ProfileHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileHandler{users: users, logger: logger}
}

// RegisterRoutes registers profile routes on the /api router
func (h *ProfileHandler) RegisterRoutes(r *mux.Router, requireSession mux.MiddlewareFunc) {
	handle(r, "/basic_profile", requireSession(http.HandlerFunc(h.BasicProfile)), http.MethodGet)
}

// BasicProfile handles GET /api/basic_profile
func (h *ProfileHandler) BasicProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := request.UserIDFromContext(r.Context())
	if !ok {
		respondServiceError(w, r, h.logger, session.ErrUnauthorized)
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		// A valid cookie for a user that no longer exists
		if errors.Is(err, database.ErrNotFound) {
			respondServiceError(w, r, h.logger, session.ErrUnauthorized)
			return
		}
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}
