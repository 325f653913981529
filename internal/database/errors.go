package database

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation
const uniqueViolation = "23505"

// Constraint names from migrations/000001_create_auth_tables.up.sql
const (
	ConstraintUsersUsername     = "users_username_key"
	ConstraintProviderLinksPkey = "provider_links_pkey"
	ConstraintUsedNoncesPkey    = "used_nonces_pkey"
)

var (
	// ErrNotFound indicates the requested row does not exist
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates an insert violated a uniqueness constraint
	ErrConflict = errors.New("unique constraint violation")
)

// ConflictError reports which uniqueness constraint rejected an insert
type ConflictError struct {
	Constraint string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("unique constraint %q violated", e.Constraint)
}

// Is makes errors.Is(err, ErrConflict) match any ConflictError
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// ConflictConstraint returns the violated constraint name, or "" if err is not a conflict
func ConflictConstraint(err error) string {
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return conflict.Constraint
	}
	return ""
}

// classifyError converts driver unique violations into ConflictError and leaves
// everything else untouched
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return &ConflictError{Constraint: pqErr.Constraint}
	}
	return err
}
