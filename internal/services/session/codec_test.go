package session

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/benvon/hotsauce-api/internal/models"
)

const testSecret = "an-adequately-long-test-secret-for-sessions"

func newTestCodec(t *testing.T, secret string, now time.Time) *Codec {
	t.Helper()
	c, err := NewCodec([]byte(secret), nil)
	if err != nil {
		t.Fatalf("NewCodec() error: %v", err)
	}
	c.now = func() time.Time { return now }
	return c
}

func TestNewCodec_RejectsShortSecret(t *testing.T) {
	t.Parallel()

	if _, err := NewCodec([]byte("too-short"), nil); !errors.Is(err, ErrWeakSecret) {
		t.Fatalf("NewCodec() error = %v, want ErrWeakSecret", err)
	}
	if _, err := NewCodec([]byte(strings.Repeat("x", MinSecretLength)), nil); err != nil {
		t.Fatalf("NewCodec() with minimum length error: %v", err)
	}
}

func TestCodec_IssueVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	c := newTestCodec(t, testSecret, now)

	token, issued, err := c.Issue(42)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	if issued.UserID != 42 {
		t.Errorf("UserID = %d, want 42", issued.UserID)
	}
	if !issued.IssuedAt.Equal(now) {
		t.Errorf("IssuedAt = %v, want %v", issued.IssuedAt, now)
	}
	if got := issued.ExpiresAt.Sub(issued.IssuedAt); got != models.SessionValidity {
		t.Errorf("validity = %v, want %v", got, models.SessionValidity)
	}

	if parts := strings.Split(token, "."); len(parts) != 5 {
		t.Errorf("token has %d segments, want 5 (compact JWE)", len(parts))
	}
	if strings.Contains(token, "user_id") {
		t.Error("token must not expose the payload in clear text")
	}

	got, err := c.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if got.UserID != issued.UserID || !got.IssuedAt.Equal(issued.IssuedAt) || !got.ExpiresAt.Equal(issued.ExpiresAt) {
		t.Errorf("Verify() = %+v, want %+v", got, issued)
	}
}

func TestCodec_VerifyRejects(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	issuer := newTestCodec(t, testSecret, now)
	token, _, err := issuer.Issue(7)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	tamper := func(tok string) string {
		parts := strings.Split(tok, ".")
		ct := []byte(parts[3])
		mid := len(ct) / 2
		if ct[mid] == 'A' {
			ct[mid] = 'B'
		} else {
			ct[mid] = 'A'
		}
		parts[3] = string(ct)
		return strings.Join(parts, ".")
	}

	tests := []struct {
		name   string
		token  string
		secret string
		at     time.Time
	}{
		{name: "empty", token: "", secret: testSecret, at: now},
		{name: "garbage", token: "not.a.session", secret: testSecret, at: now},
		{name: "plain JSON payload", token: `{"user_id":1,"logged_in_at":"2026-03-14T12:00:00Z","valid_until":"2099-01-01T00:00:00Z"}`, secret: testSecret, at: now},
		{name: "tampered ciphertext", token: tamper(token), secret: testSecret, at: now},
		{name: "different secret", token: token, secret: "another-adequately-long-secret-value!!", at: now},
		{name: "expires exactly now", token: token, secret: testSecret, at: now.Add(models.SessionValidity)},
		{name: "long expired", token: token, secret: testSecret, at: now.Add(30 * 24 * time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			verifier := newTestCodec(t, tt.secret, tt.at)
			sess, err := verifier.Verify(tt.token)
			if !errors.Is(err, ErrUnauthorized) {
				t.Fatalf("Verify() error = %v, want ErrUnauthorized", err)
			}
			if sess.UserID != 0 {
				t.Errorf("Verify() returned session %+v on failure", sess)
			}
		})
	}
}

func TestCodec_VerifyJustBeforeExpiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	token, _, err := newTestCodec(t, testSecret, now).Issue(9)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	later := newTestCodec(t, testSecret, now.Add(models.SessionValidity-time.Second))
	if _, err := later.Verify(token); err != nil {
		t.Fatalf("Verify() one second before expiry error: %v", err)
	}
}

func TestCodec_TokensAreUnique(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t, testSecret, time.Now())
	a, _, err := c.Issue(1)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	b, _, err := c.Issue(1)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	if a == b {
		t.Error("two issues for the same user produced identical tokens")
	}
}
