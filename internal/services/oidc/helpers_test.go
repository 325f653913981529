package oidc

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
)

const testClientID = "test-client.apps.googleusercontent.com"

var (
	rsaKeyOnce sync.Once
	rsaKeys    []*rsa.PrivateKey
)

// sharedRSAKeys generates a small pool of keys once per test binary
func sharedRSAKeys(t *testing.T) []*rsa.PrivateKey {
	t.Helper()
	rsaKeyOnce.Do(func() {
		for i := 0; i < 3; i++ {
			k, err := rsa.GenerateKey(rand.Reader, 2048)
			if err != nil {
				panic(err)
			}
			rsaKeys = append(rsaKeys, k)
		}
	})
	return rsaKeys
}

type signingKey struct {
	kid  string
	priv any
	pub  any
}

func rsaSigningKey(t *testing.T, kid string, index int) *signingKey {
	t.Helper()
	priv := sharedRSAKeys(t)[index]
	return &signingKey{kid: kid, priv: priv, pub: &priv.PublicKey}
}

func ecSigningKey(t *testing.T, kid string) *signingKey {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate EC key: %v", err)
	}
	return &signingKey{kid: kid, priv: priv, pub: &priv.PublicKey}
}

func (k *signingKey) publicJWK(t *testing.T) jwk.Key {
	t.Helper()
	key, err := jwk.FromRaw(k.pub)
	if err != nil {
		t.Fatalf("failed to build JWK: %v", err)
	}
	if err := key.Set(jwk.KeyIDKey, k.kid); err != nil {
		t.Fatalf("failed to set kid: %v", err)
	}
	return key
}

func keySetJSON(t *testing.T, keys ...*signingKey) []byte {
	t.Helper()
	set := jwk.NewSet()
	for _, k := range keys {
		if err := set.AddKey(k.publicJWK(t)); err != nil {
			t.Fatalf("failed to add key: %v", err)
		}
	}
	data, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("failed to marshal key set: %v", err)
	}
	return data
}

func signClaims(t *testing.T, key *signingKey, alg jwa.SignatureAlgorithm, claims map[string]any) string {
	t.Helper()
	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("failed to marshal claims: %v", err)
	}
	hdrs := jws.NewHeaders()
	if key.kid != "" {
		if err := hdrs.Set(jws.KeyIDKey, key.kid); err != nil {
			t.Fatalf("failed to set kid header: %v", err)
		}
	}
	signed, err := jws.Sign(payload, jws.WithKey(alg, key.priv, jws.WithProtectedHeaders(hdrs)))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return string(signed)
}

func validClaims(now time.Time) map[string]any {
	return map[string]any{
		"iss":            GoogleIssuer,
		"aud":            testClientID,
		"sub":            "110169484474386276334",
		"email":          "fan@example.com",
		"email_verified": true,
		"name":           "Scoville Fan",
		"given_name":     "Scoville",
		"family_name":    "Fan",
		"nonce":          "nonce-1",
		"iat":            now.Add(-time.Minute).Unix(),
		"exp":            now.Add(time.Hour).Unix(),
	}
}

// jwksServer serves a swappable key set and counts requests
type jwksServer struct {
	*httptest.Server
	hits   atomic.Int32
	mu     sync.Mutex
	body   []byte
	status int
	delay  time.Duration
}

func newJWKSServer(t *testing.T, body []byte) *jwksServer {
	t.Helper()
	s := &jwksServer{body: body, status: http.StatusOK}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		s.mu.Lock()
		body, status, delay := s.body, s.status, s.delay
		s.mu.Unlock()
		if delay > 0 {
			time.Sleep(delay)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *jwksServer) setBody(body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.body = body
}

func (s *jwksServer) setStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

func (s *jwksServer) setDelay(delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = delay
}
