package oidc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	logpkg "github.com/benvon/hotsauce-api/internal/logger"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultJWKSURL is Google's public signing key endpoint
	DefaultJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"
	// DefaultKeySetTTL is how long a fetched key set is reused
	DefaultKeySetTTL = time.Hour
	// DefaultMinRefreshInterval bounds forced refreshes caused by unseen key ids
	DefaultMinRefreshInterval = 10 * time.Second

	maxKeySetBytes = 1 << 20
)

// FetchObserver receives the outcome of every key set fetch
type FetchObserver interface {
	ObserveKeySetFetch(success bool, duration time.Duration)
}

// KeySetResolverConfig configures a KeySetResolver
type KeySetResolverConfig struct {
	URL string
	// TTL of a cached key set. Zero disables caching and fetches on every call.
	TTL                time.Duration
	MinRefreshInterval time.Duration
	HTTPClient         *http.Client
	Observer           FetchObserver
}

// KeySetResolver fetches the provider's JWKS and looks keys up by key id.
// Concurrent fetches for the same URL are collapsed into a single request.
type KeySetResolver struct {
	url        string
	ttl        time.Duration
	minRefresh time.Duration
	client     *http.Client
	cache      KeySetCache
	observer   FetchObserver
	logger     *zap.Logger
	group      singleflight.Group

	mu          sync.Mutex
	lastFetched time.Time
	now         func() time.Time
}

// NewKeySetResolver creates a resolver. cache may be nil when cfg.TTL is zero.
func NewKeySetResolver(cfg KeySetResolverConfig, cache KeySetCache, logger *zap.Logger) *KeySetResolver {
	if cfg.URL == "" {
		cfg.URL = DefaultJWKSURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.TTL > 0 && cache == nil {
		cache = NewMemoryKeySetCache(cfg.TTL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KeySetResolver{
		url:        cfg.URL,
		ttl:        cfg.TTL,
		minRefresh: cfg.MinRefreshInterval,
		client:     cfg.HTTPClient,
		cache:      cache,
		observer:   cfg.Observer,
		logger:     logger,
		now:        time.Now,
	}
}

// Resolve returns the RSA verification key with the given key id
func (r *KeySetResolver) Resolve(ctx context.Context, kid string) (jwk.Key, error) {
	if r.ttl > 0 {
		if set, ok := r.cached(ctx); ok {
			if key, found := set.LookupKeyID(kid); found {
				return checkKeyType(key)
			}
			if !r.refreshAllowed() {
				return nil, fmt.Errorf("%w: %q", ErrUnknownKey, kid)
			}
			r.logger.Info("jwks_refresh_unknown_kid", zap.String("kid", logpkg.SanitizeSubject(kid)))
		}
	}

	set, err := r.refresh(ctx)
	if err != nil {
		return nil, err
	}
	key, found := set.LookupKeyID(kid)
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, kid)
	}
	return checkKeyType(key)
}

// Fetch retrieves the key set directly from the provider, bypassing the cache
func (r *KeySetResolver) Fetch(ctx context.Context) (jwk.Set, error) {
	return r.fetch(ctx)
}

func checkKeyType(key jwk.Key) (jwk.Key, error) {
	if key.KeyType() != jwa.RSA {
		return nil, fmt.Errorf("%w: key type %s", ErrUnsupportedAlgorithm, key.KeyType())
	}
	return key, nil
}

func (r *KeySetResolver) cached(ctx context.Context) (jwk.Set, bool) {
	if r.cache == nil {
		return nil, false
	}
	set, ok, err := r.cache.Get(ctx, r.url)
	if err != nil {
		r.logger.Warn("jwks_cache_read_failed", zap.Error(err))
		return nil, false
	}
	return set, ok
}

func (r *KeySetResolver) refreshAllowed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastFetched.IsZero() || r.now().Sub(r.lastFetched) >= r.minRefresh
}

func (r *KeySetResolver) refresh(ctx context.Context) (jwk.Set, error) {
	// The shared fetch must not be aborted by whichever caller started it.
	fetchCtx := context.WithoutCancel(ctx)
	v, err, _ := r.group.Do(r.url, func() (any, error) {
		set, err := r.fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.lastFetched = r.now()
		r.mu.Unlock()

		if r.ttl > 0 && r.cache != nil {
			if err := r.cache.Set(fetchCtx, r.url, set, r.ttl); err != nil {
				r.logger.Warn("jwks_cache_write_failed", zap.Error(err))
			}
		}
		return set, nil
	})
	if err != nil {
		return nil, err
	}
	set, ok := v.(jwk.Set)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected result type %T", ErrKeyFetchFailed, v)
	}
	return set, nil
}

func (r *KeySetResolver) fetch(ctx context.Context) (set jwk.Set, err error) {
	start := time.Now()
	defer func() {
		if r.observer != nil {
			r.observer.ObserveKeySetFetch(err == nil, time.Since(start))
		}
		if err != nil {
			r.logger.Error("jwks_fetch_failed", zap.String("url", r.url), zap.Error(err))
		} else {
			r.logger.Debug("jwks_fetched", zap.String("url", r.url), zap.Int("keys", set.Len()))
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", ErrKeyFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyFetchFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: endpoint returned status %d", ErrKeyFetchFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxKeySetBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", ErrKeyFetchFailed, err)
	}
	if len(body) > maxKeySetBytes {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", ErrKeyFetchFailed, maxKeySetBytes)
	}

	set, err = jwk.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse key set: %w", ErrKeyFetchFailed, err)
	}
	if set.Len() == 0 {
		return nil, fmt.Errorf("%w: key set is empty", ErrKeyFetchFailed)
	}
	return set, nil
}
