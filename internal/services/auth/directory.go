package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/benvon/hotsauce-api/internal/database"
	"github.com/benvon/hotsauce-api/internal/models"
	"github.com/benvon/hotsauce-api/internal/validation"
	"go.uber.org/zap"
)

// UserDirectory maps provider subject ids to local users and provisions new ones
type UserDirectory struct {
	users  database.UserStore
	logger *zap.Logger
}

// NewUserDirectory creates a directory backed by users
func NewUserDirectory(users database.UserStore, logger *zap.Logger) *UserDirectory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserDirectory{users: users, logger: logger}
}

// Resolve returns the user linked to subject, or ErrNoSuchAccount
func (d *UserDirectory) Resolve(ctx context.Context, subject string) (int64, error) {
	id, err := d.users.GetUserIDBySubject(ctx, subject)
	if errors.Is(err, database.ErrNotFound) {
		return 0, ErrNoSuchAccount
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve subject: %w", err)
	}
	return id, nil
}

// ResolveOrCreate returns the user linked to subject, creating one from the
// provider profile on first use. created reports whether this call inserted it.
func (d *UserDirectory) ResolveOrCreate(ctx context.Context, subject string, profile models.Profile) (id int64, created bool, err error) {
	id, err = d.Resolve(ctx, subject)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, ErrNoSuchAccount) {
		return 0, false, err
	}

	user := &models.User{
		Name:  optional(profile.Name),
		Email: optional(profile.Email),
	}
	if err := d.users.CreateWithLink(ctx, user, subject); err != nil {
		return d.recoverFromCreate(ctx, subject, "", err)
	}

	d.logger.Info("user_provisioned", zap.Int64("user_id", user.ID))
	return user.ID, true, nil
}

// Create provisions a username account linked to subject. If subject is
// already linked, including by a concurrent request, the existing user id is
// returned with created set to false.
func (d *UserDirectory) Create(ctx context.Context, subject, username string) (id int64, created bool, err error) {
	if err := validation.ValidateUsername(username); err != nil {
		return 0, false, err
	}

	user := &models.User{Username: &username}
	if err := d.users.CreateWithLink(ctx, user, subject); err != nil {
		return d.recoverFromCreate(ctx, subject, username, err)
	}

	d.logger.Info("user_created", zap.Int64("user_id", user.ID), zap.String("username", username))
	return user.ID, true, nil
}

// recoverFromCreate decides what a failed insert means: the subject was linked
// meanwhile, the username is taken, or a genuine storage failure.
func (d *UserDirectory) recoverFromCreate(ctx context.Context, subject, username string, createErr error) (int64, bool, error) {
	id, err := d.users.GetUserIDBySubject(ctx, subject)
	if err == nil {
		d.logger.Info("user_create_lost_race", zap.Int64("user_id", id))
		return id, false, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return 0, false, fmt.Errorf("failed to re-check subject after create error (%v): %w", createErr, err)
	}

	if username != "" {
		if database.ConflictConstraint(createErr) == database.ConstraintUsersUsername {
			return 0, false, validation.ErrAlreadyTaken
		}
		taken, err := d.users.UsernameExists(ctx, username)
		if err != nil {
			return 0, false, fmt.Errorf("failed to re-check username after create error (%v): %w", createErr, err)
		}
		if taken {
			return 0, false, validation.ErrAlreadyTaken
		}
	}

	return 0, false, fmt.Errorf("failed to create user: %w", createErr)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
