package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/hotsauce-api/internal/database"
	"github.com/benvon/hotsauce-api/internal/models"
)

// NonceLedger records which (nonce, user) pairs have started a session
type NonceLedger struct {
	store database.NonceStore
	now   func() time.Time
}

// NewNonceLedger creates a ledger backed by store
func NewNonceLedger(store database.NonceStore) *NonceLedger {
	return &NonceLedger{store: store, now: time.Now}
}

// Claim atomically records nonce for userID. It returns true the first time a
// pair is claimed and false for every later attempt, including concurrent ones.
func (l *NonceLedger) Claim(ctx context.Context, userID int64, nonce string) (bool, error) {
	err := l.store.Insert(ctx, models.UsedNonce{
		Nonce:  nonce,
		UserID: userID,
		UsedAt: l.now().UTC(),
	})
	if err == nil {
		return true, nil
	}
	if errors.Is(err, database.ErrConflict) {
		return false, nil
	}
	return false, fmt.Errorf("failed to claim nonce: %w", err)
}
