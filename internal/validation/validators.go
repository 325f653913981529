package validation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

const (
	// MinUsernameLength is the shortest accepted username
	MinUsernameLength = 5
	// MaxUsernameLength is the longest accepted username
	MaxUsernameLength = 25
)

var (
	ErrIllegalCharacters = errors.New("Usernames must contain only lowercase letters, numbers, hyphens, and underscores")
	ErrTooShort          = fmt.Errorf("Usernames must be at least %d characters long", MinUsernameLength)
	ErrTooLong           = fmt.Errorf("Usernames must be less than %d characters long", MaxUsernameLength)
	ErrAlreadyTaken      = errors.New("Username already in use")
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New(validator.WithRequiredStructEnabled())
}

// ValidateUsername checks the username grammar. Character set is checked
// before length so a short name with bad characters reports the characters.
func ValidateUsername(username string) error {
	for _, r := range username {
		if !isUsernameRune(r) {
			return ErrIllegalCharacters
		}
	}
	if len(username) < MinUsernameLength {
		return ErrTooShort
	}
	if len(username) > MaxUsernameLength {
		return ErrTooLong
	}
	return nil
}

// IsUsernameError reports whether err is one of the username rejections
func IsUsernameError(err error) bool {
	return errors.Is(err, ErrIllegalCharacters) ||
		errors.Is(err, ErrTooShort) ||
		errors.Is(err, ErrTooLong) ||
		errors.Is(err, ErrAlreadyTaken)
}

func isUsernameRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_'
}
