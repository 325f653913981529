package models

import "time"

// SessionValidity is how long an issued session stays valid
const SessionValidity = 7 * 24 * time.Hour

// Session is the payload carried inside the client-held session cookie
type Session struct {
	UserID    int64     `json:"user_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ValidAt reports whether the session is still valid at now
func (s Session) ValidAt(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}
