// Package session issues and verifies the client-held login session token.
//
// A session is a nested JWT: an HS256 JWS over the session payload, encrypted
// as a dir/A256GCM JWE. Both keys are derived from one server secret, so the
// cookie is opaque to the client and any modification is detected.
package session

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/benvon/hotsauce-api/internal/models"
	"github.com/go-jose/go-jose/v4"
	josejwt "github.com/go-jose/go-jose/v4/jwt"
	"go.uber.org/zap"
	"golang.org/x/crypto/hkdf"
)

// MinSecretLength is the minimum accepted SESSION_SECRET length in bytes
const MinSecretLength = 32

const (
	encryptionKeyInfo = "hotsauce-api session encryption v1"
	signingKeyInfo    = "hotsauce-api session signing v1"
)

var (
	// ErrUnauthorized is returned for any session token that must not be trusted
	ErrUnauthorized = errors.New("login required")
	// ErrWeakSecret is returned when the configured secret is too short
	ErrWeakSecret = fmt.Errorf("session secret must be at least %d bytes", MinSecretLength)
)

// Codec issues and verifies session tokens
type Codec struct {
	encKey    []byte
	signKey   []byte
	encrypter jose.Encrypter
	signer    jose.Signer
	validity  time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewCodec derives the session keys from secret
func NewCodec(secret []byte, logger *zap.Logger) (*Codec, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	encKey, err := deriveKey(secret, encryptionKeyInfo)
	if err != nil {
		return nil, err
	}
	signKey, err := deriveKey(secret, signingKeyInfo)
	if err != nil {
		return nil, err
	}

	encrypter, err := jose.NewEncrypter(
		jose.A256GCM,
		jose.Recipient{Algorithm: jose.DIRECT, Key: encKey},
		(&jose.EncrypterOptions{}).WithType("JWT").WithContentType("JWT"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session encrypter: %w", err)
	}
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: signKey},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session signer: %w", err)
	}

	return &Codec{
		encKey:    encKey,
		signKey:   signKey,
		encrypter: encrypter,
		signer:    signer,
		validity:  models.SessionValidity,
		logger:    logger,
		now:       time.Now,
	}, nil
}

func deriveKey(secret []byte, info string) ([]byte, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("failed to derive session key: %w", err)
	}
	return key, nil
}

// Issue creates a session for userID valid from now for the session validity period
func (c *Codec) Issue(userID int64) (string, models.Session, error) {
	issuedAt := c.now().UTC().Truncate(time.Second)
	sess := models.Session{
		UserID:    userID,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(c.validity),
	}

	token, err := josejwt.SignedAndEncrypted(c.signer, c.encrypter).Claims(sess).Serialize()
	if err != nil {
		return "", models.Session{}, fmt.Errorf("failed to serialize session: %w", err)
	}
	return token, sess, nil
}

// Verify decrypts and authenticates token. Every rejection wraps ErrUnauthorized.
func (c *Codec) Verify(token string) (models.Session, error) {
	sess, err := c.decode(token)
	if err != nil {
		c.logger.Debug("session_rejected", zap.Error(err))
		return models.Session{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return sess, nil
}

func (c *Codec) decode(token string) (models.Session, error) {
	if token == "" {
		return models.Session{}, errors.New("empty session token")
	}

	nested, err := josejwt.ParseSignedAndEncrypted(token,
		[]jose.KeyAlgorithm{jose.DIRECT},
		[]jose.ContentEncryption{jose.A256GCM},
		[]jose.SignatureAlgorithm{jose.HS256},
	)
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to parse session: %w", err)
	}

	inner, err := nested.Decrypt(c.encKey)
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to decrypt session: %w", err)
	}

	var sess models.Session
	if err := inner.Claims(c.signKey, &sess); err != nil {
		return models.Session{}, fmt.Errorf("failed to verify session: %w", err)
	}

	if sess.UserID <= 0 {
		return models.Session{}, fmt.Errorf("invalid user id %d", sess.UserID)
	}
	if !sess.ValidAt(c.now()) {
		return models.Session{}, fmt.Errorf("session expired at %s", sess.ExpiresAt.Format(time.RFC3339))
	}
	return sess, nil
}
