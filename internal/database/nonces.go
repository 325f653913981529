package database

import (
	"context"
	"fmt"

	"github.com/benvon/hotsauce-api/internal/models"
)

// NonceRepository records used nonces
type NonceRepository struct {
	db *DB
}

// NewNonceRepository creates a new nonce repository
func NewNonceRepository(db *DB) *NonceRepository {
	return &NonceRepository{db: db}
}

// Insert records the nonce as used by the user. A second insert of the same
// (nonce, user_id) pair fails with a *ConflictError for used_nonces_pkey.
func (r *NonceRepository) Insert(ctx context.Context, used models.UsedNonce) error {
	query := `
		INSERT INTO used_nonces (nonce, user_id, used_at)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, query, used.Nonce, used.UserID, used.UsedAt); err != nil {
		return fmt.Errorf("failed to insert nonce: %w", classifyError(err))
	}
	return nil
}
