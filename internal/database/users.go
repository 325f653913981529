package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/benvon/hotsauce-api/internal/models"
)

// UserRepository handles user and provider link database operations
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateWithLink inserts the user and its provider link in one transaction.
// On success user.ID and user.CreatedAt are populated. A uniqueness failure on
// either insert is returned as a *ConflictError naming the constraint.
func (r *UserRepository) CreateWithLink(ctx context.Context, user *models.User, subject string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `
		INSERT INTO users (username, name, email)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	if err = tx.QueryRowContext(ctx, query,
		nullString(user.Username),
		nullString(user.Name),
		nullString(user.Email),
	).Scan(&user.ID, &user.CreatedAt); err != nil {
		return fmt.Errorf("failed to create user: %w", classifyError(err))
	}

	linkQuery := `
		INSERT INTO provider_links (subject_id, user_id)
		VALUES ($1, $2)
	`
	if _, err = tx.ExecContext(ctx, linkQuery, subject, user.ID); err != nil {
		return fmt.Errorf("failed to create provider link: %w", classifyError(err))
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user creation: %w", classifyError(err))
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `
		SELECT id, username, name, email, created_at
		FROM users
		WHERE id = $1
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

// UsernameExists reports whether any user holds the username
func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`
	if err := r.db.QueryRowContext(ctx, query, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return exists, nil
}

// GetUserIDBySubject returns the user linked to a provider subject id
func (r *UserRepository) GetUserIDBySubject(ctx context.Context, subject string) (int64, error) {
	var userID int64
	query := `SELECT user_id FROM provider_links WHERE subject_id = $1`
	err := r.db.QueryRowContext(ctx, query, subject).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get provider link: %w", err)
	}
	return userID, nil
}

func (r *UserRepository) scanUser(row *sql.Row) (*models.User, error) {
	var (
		user                  models.User
		username, name, email sql.NullString
	)
	err := row.Scan(&user.ID, &username, &name, &email, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.Username = stringPtr(username)
	user.Name = stringPtr(name)
	user.Email = stringPtr(email)
	return &user, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
