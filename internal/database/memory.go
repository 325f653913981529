package database

import (
	"context"
	"sync"
	"time"

	"github.com/benvon/hotsauce-api/internal/models"
)

type nonceKey struct {
	nonce  string
	userID int64
}

// MemoryStore is an in-process UserStore and NonceStore with the same
// uniqueness rules as the PostgreSQL schema. State is lost on restart.
type MemoryStore struct {
	mu        sync.RWMutex
	nextID    int64
	users     map[int64]models.User
	usernames map[string]int64
	links     map[string]int64
	nonces    map[nonceKey]time.Time
	now       func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[int64]models.User),
		usernames: make(map[string]int64),
		links:     make(map[string]int64),
		nonces:    make(map[nonceKey]time.Time),
		now:       time.Now,
	}
}

// PingContext always succeeds
func (s *MemoryStore) PingContext(ctx context.Context) error {
	return ctx.Err()
}

// CreateWithLink inserts the user and link, or nothing if either would conflict
func (s *MemoryStore) CreateWithLink(ctx context.Context, user *models.User, subject string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if user.Username != nil {
		if _, taken := s.usernames[*user.Username]; taken {
			return &ConflictError{Constraint: ConstraintUsersUsername}
		}
	}
	if _, linked := s.links[subject]; linked {
		return &ConflictError{Constraint: ConstraintProviderLinksPkey}
	}

	s.nextID++
	user.ID = s.nextID
	user.CreatedAt = s.now().UTC()

	stored := *user
	stored.Username = copyString(user.Username)
	stored.Name = copyString(user.Name)
	stored.Email = copyString(user.Email)
	s.users[user.ID] = stored
	if user.Username != nil {
		s.usernames[*user.Username] = user.ID
	}
	s.links[subject] = user.ID
	return nil
}

// GetByID returns a copy of the user
func (s *MemoryStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	user.Username = copyString(user.Username)
	user.Name = copyString(user.Name)
	user.Email = copyString(user.Email)
	return &user, nil
}

// UsernameExists reports whether any user holds the username
func (s *MemoryStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.usernames[username]
	return ok, nil
}

// GetUserIDBySubject returns the linked user id or ErrNotFound
func (s *MemoryStore) GetUserIDBySubject(ctx context.Context, subject string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.links[subject]
	if !ok {
		return 0, ErrNotFound
	}
	return id, nil
}

// Insert records a nonce, failing with a ConflictError on reuse
func (s *MemoryStore) Insert(ctx context.Context, used models.UsedNonce) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := nonceKey{nonce: used.Nonce, userID: used.UserID}
	if _, seen := s.nonces[key]; seen {
		return &ConflictError{Constraint: ConstraintUsedNoncesPkey}
	}
	s.nonces[key] = used.UsedAt
	return nil
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
