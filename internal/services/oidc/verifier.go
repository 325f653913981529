package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/benvon/hotsauce-api/internal/models"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"go.uber.org/zap"
)

const (
	// DefaultMaxTokenSize caps the accepted identity token length in bytes
	DefaultMaxTokenSize = 8 * 1024
	// GoogleIssuer is the issuer value Google puts in ID tokens
	GoogleIssuer = "https://accounts.google.com"
)

// DefaultIssuers lists both issuer spellings Google uses
var DefaultIssuers = []string{GoogleIssuer, "accounts.google.com"}

var rsaAlgorithms = map[jwa.SignatureAlgorithm]bool{
	jwa.RS256: true,
	jwa.RS384: true,
	jwa.RS512: true,
	jwa.PS256: true,
	jwa.PS384: true,
	jwa.PS512: true,
}

// KeyResolver looks up a provider verification key by key id
type KeyResolver interface {
	Resolve(ctx context.Context, kid string) (jwk.Key, error)
}

// TokenValidatorConfig configures a TokenValidator
type TokenValidatorConfig struct {
	ClientID     string
	Issuers      []string
	MaxTokenSize int
}

// TokenValidator verifies provider identity tokens
type TokenValidator struct {
	keys         KeyResolver
	clientID     string
	issuers      []string
	maxTokenSize int
	logger       *zap.Logger
	now          func() time.Time
}

// NewTokenValidator creates a validator for tokens addressed to cfg.ClientID
func NewTokenValidator(keys KeyResolver, cfg TokenValidatorConfig, logger *zap.Logger) *TokenValidator {
	if len(cfg.Issuers) == 0 {
		cfg.Issuers = DefaultIssuers
	}
	if cfg.MaxTokenSize <= 0 {
		cfg.MaxTokenSize = DefaultMaxTokenSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenValidator{
		keys:         keys,
		clientID:     cfg.ClientID,
		issuers:      slices.Clone(cfg.Issuers),
		maxTokenSize: cfg.MaxTokenSize,
		logger:       logger,
		now:          time.Now,
	}
}

// Validate checks the token's signature and registered claims and returns its
// identity claims. Every failure is a *ValidationError.
func (v *TokenValidator) Validate(ctx context.Context, token string) (*models.Claims, error) {
	claims, err := v.validate(ctx, token)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			v.logger.Debug("token_validation_failed",
				zap.String("kind", verr.Kind.String()),
				zap.Error(verr.Err))
		}
		return nil, err
	}
	return claims, nil
}

func (v *TokenValidator) validate(ctx context.Context, token string) (*models.Claims, error) {
	if token == "" {
		return nil, reject(KindMalformedToken, errors.New("token is empty"))
	}
	if len(token) > v.maxTokenSize {
		return nil, reject(KindMalformedToken, fmt.Errorf("token exceeds %d bytes", v.maxTokenSize))
	}

	raw := []byte(token)
	msg, err := jws.Parse(raw, jws.WithCompact())
	if err != nil {
		return nil, reject(KindMalformedToken, err)
	}
	sigs := msg.Signatures()
	if len(sigs) != 1 {
		return nil, reject(KindMalformedToken, fmt.Errorf("expected 1 signature, got %d", len(sigs)))
	}
	headers := sigs[0].ProtectedHeaders()

	kid := headers.KeyID()
	if kid == "" {
		return nil, reject(KindMissingKeyID, nil)
	}

	key, err := v.keys.Resolve(ctx, kid)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownKey):
			return nil, reject(KindUnknownKey, err)
		case errors.Is(err, ErrUnsupportedAlgorithm):
			return nil, reject(KindUnsupportedAlgorithm, err)
		default:
			return nil, reject(KindKeyFetchFailed, err)
		}
	}

	alg := headers.Algorithm()
	if !rsaAlgorithms[alg] {
		return nil, reject(KindUnsupportedAlgorithm, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg))
	}

	payload, err := jws.Verify(raw, jws.WithKey(alg, key), jws.WithCompact())
	if err != nil {
		return nil, reject(KindInvalidSignature, err)
	}

	registered, err := jwt.ParseInsecure(payload)
	if err != nil {
		return nil, reject(KindMalformedClaims, err)
	}

	now := v.now()
	exp := registered.Expiration()
	if exp.IsZero() {
		return nil, reject(KindMalformedClaims, errors.New("missing exp claim"))
	}
	if !now.Before(exp) {
		return nil, reject(KindExpired, fmt.Errorf("expired at %s", exp.UTC().Format(time.RFC3339)))
	}
	if nbf := registered.NotBefore(); !nbf.IsZero() && now.Before(nbf) {
		return nil, reject(KindNotYetValid, fmt.Errorf("not valid before %s", nbf.UTC().Format(time.RFC3339)))
	}

	if !slices.Contains(registered.Audience(), v.clientID) {
		return nil, reject(KindInvalidAudience, fmt.Errorf("audience %v", registered.Audience()))
	}
	if !slices.Contains(v.issuers, registered.Issuer()) {
		return nil, reject(KindInvalidIssuer, fmt.Errorf("issuer %q", registered.Issuer()))
	}

	var claims models.Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, reject(KindMalformedClaims, err)
	}
	if claims.Subject == "" {
		return nil, reject(KindMalformedClaims, errors.New("missing sub claim"))
	}
	if claims.Email == "" {
		return nil, reject(KindMalformedClaims, errors.New("missing email claim"))
	}
	return &claims, nil
}
