package models

import (
	"time"
)

// User represents a user in the system.
// Username is set for accounts created through signup; Name and Email are set for
// accounts provisioned from the provider profile on first login.
type User struct {
	ID        int64     `json:"id"`
	Username  *string   `json:"username,omitempty"`
	Name      *string   `json:"name,omitempty"`
	Email     *string   `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile carries the provider-derived fields stored for profile-variant users
type Profile struct {
	Name  string
	Email string
}

// ProviderLink maps a provider subject id to exactly one local user
type ProviderLink struct {
	SubjectID string    `json:"subject_id"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// UsedNonce records the first use of a nonce by a user
type UsedNonce struct {
	Nonce  string    `json:"nonce"`
	UserID int64     `json:"user_id"`
	UsedAt time.Time `json:"used_at"`
}

// UserVariant selects how user records are provisioned
type UserVariant string

const (
	// UserVariantUsername requires an explicit signup with a chosen username
	UserVariantUsername UserVariant = "username"
	// UserVariantProfile creates users from provider profile fields on first login
	UserVariantProfile UserVariant = "profile"
)

// IsValid reports whether v names a known variant
func (v UserVariant) IsValid() bool {
	return v == UserVariantUsername || v == UserVariantProfile
}
