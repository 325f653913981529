package database

import (
	"context"

	"github.com/benvon/hotsauce-api/internal/models"
)

// UserStore defines the user and provider link operations the auth services need.
// Implementations must enforce username and subject uniqueness atomically.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	GetUserIDBySubject(ctx context.Context, subject string) (int64, error)
	CreateWithLink(ctx context.Context, user *models.User, subject string) error
}

// NonceStore defines the nonce ledger storage operation
type NonceStore interface {
	Insert(ctx context.Context, used models.UsedNonce) error
}

// Pinger is implemented by stores that can report reachability
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Ensure concrete types implement the interfaces
var (
	_ UserStore  = (*UserRepository)(nil)
	_ NonceStore = (*NonceRepository)(nil)
	_ UserStore  = (*MemoryStore)(nil)
	_ NonceStore = (*MemoryStore)(nil)
	_ Pinger     = (*DB)(nil)
	_ Pinger     = (*MemoryStore)(nil)
)
