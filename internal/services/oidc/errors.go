package oidc

import (
	"errors"
	"fmt"
)

var (
	// ErrKeyFetchFailed indicates the provider key set could not be retrieved or parsed
	ErrKeyFetchFailed = errors.New("failed to fetch provider key set")
	// ErrUnknownKey indicates no key in the provider key set carries the requested key id
	ErrUnknownKey = errors.New("unknown signing key")
	// ErrUnsupportedAlgorithm indicates a key type or signature algorithm outside the RSA family
	ErrUnsupportedAlgorithm = errors.New("unsupported key algorithm")
)

// Kind classifies why an identity token was rejected
type Kind int

const (
	KindMalformedToken Kind = iota + 1
	KindMissingKeyID
	KindKeyFetchFailed
	KindUnknownKey
	KindUnsupportedAlgorithm
	KindInvalidSignature
	KindExpired
	KindNotYetValid
	KindInvalidAudience
	KindInvalidIssuer
	KindMalformedClaims
)

var kindNames = map[Kind]string{
	KindMalformedToken:       "malformed_token",
	KindMissingKeyID:         "missing_key_id",
	KindKeyFetchFailed:       "key_fetch_failed",
	KindUnknownKey:           "unknown_key",
	KindUnsupportedAlgorithm: "unsupported_algorithm",
	KindInvalidSignature:     "invalid_signature",
	KindExpired:              "expired",
	KindNotYetValid:          "not_yet_valid",
	KindInvalidAudience:      "invalid_audience",
	KindInvalidIssuer:        "invalid_issuer",
	KindMalformedClaims:      "malformed_claims",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ValidationError is returned by TokenValidator.Validate for every rejected token
type ValidationError struct {
	Kind Kind
	Err  error
}

func (e *ValidationError) Error() string {
	if e.Err == nil {
		return "identity token rejected: " + e.Kind.String()
	}
	return fmt.Sprintf("identity token rejected: %s: %v", e.Kind, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// KindOf extracts the rejection kind from err
func KindOf(err error) (Kind, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Kind, true
	}
	return 0, false
}

func reject(kind Kind, err error) *ValidationError {
	return &ValidationError{Kind: kind, Err: err}
}
