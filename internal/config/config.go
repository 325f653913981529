package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/benvon/hotsauce-api/internal/models"
	"github.com/benvon/hotsauce-api/internal/services/oidc"
	"github.com/benvon/hotsauce-api/internal/services/session"
	"github.com/joho/godotenv"
)

const (
	// EnvironmentProduction disables diagnostic endpoints and the memory store
	EnvironmentProduction = "production"
	// EnvironmentDevelopment switches to the console logger
	EnvironmentDevelopment = "development"

	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config holds application configuration
type Config struct {
	Environment     string
	ServerPort      string
	BaseURL         string
	FrontendURL     string
	EnableHSTS      bool
	ServerDebugMode bool
	RequestTimeout  time.Duration

	StorageDriver string
	DatabaseURL   string
	RunMigrations bool
	// RedisURL enables the shared key set cache when set
	RedisURL string

	GoogleClientID       string
	JWKSURL              string
	OIDCIssuers          []string
	JWKSCacheTTL         time.Duration
	JWKSMinRefresh       time.Duration
	UserVariant          models.UserVariant
	RequireNonce         bool
	SessionSecret        string
	CookiePath           string
	EnableDebugRoutes    bool
	MaxIdentityTokenSize int

	OTELEnabled     bool
	OTELEndpoint    string
	OTELInsecure    bool
	OTELSampleRatio float64
	OTELServiceName string
}

// LoadDotEnv seeds the environment from a .env file. Variables already set
// win, and a missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	e := env{getenv: getenv}
	cfg := &Config{
		Environment:     e.get("ENVIRONMENT", EnvironmentDevelopment),
		ServerPort:      e.get("SERVER_PORT", "8080"),
		BaseURL:         e.get("BASE_URL", "http://localhost:8080"),
		FrontendURL:     e.get("FRONTEND_URL", "http://localhost:3000"),
		EnableHSTS:      e.getBool("ENABLE_HSTS", false),
		ServerDebugMode: e.getBool("SERVER_DEBUG_MODE", false),
		RequestTimeout:  e.getDuration("REQUEST_TIMEOUT", 15*time.Second),

		StorageDriver: e.get("STORAGE_DRIVER", StorageDriverPostgres),
		DatabaseURL:   e.get("DATABASE_URL", ""),
		RunMigrations: e.getBool("RUN_MIGRATIONS", true),
		RedisURL:      e.get("REDIS_URL", ""),

		GoogleClientID:       e.get("GOOGLE_CLIENT_ID", ""),
		JWKSURL:              e.get("JWKS_URL", oidc.DefaultJWKSURL),
		OIDCIssuers:          e.getList("OIDC_ISSUERS", oidc.DefaultIssuers),
		JWKSCacheTTL:         e.getDuration("JWKS_CACHE_TTL", oidc.DefaultKeySetTTL),
		JWKSMinRefresh:       e.getDuration("JWKS_MIN_REFRESH_INTERVAL", oidc.DefaultMinRefreshInterval),
		UserVariant:          models.UserVariant(e.get("USER_VARIANT", string(models.UserVariantUsername))),
		RequireNonce:         e.getBool("REQUIRE_NONCE", true),
		SessionSecret:        e.get("SESSION_SECRET", ""),
		CookiePath:           e.get("COOKIE_PATH", session.DefaultCookiePath),
		EnableDebugRoutes:    e.getBool("ENABLE_DEBUG_ENDPOINTS", false),
		MaxIdentityTokenSize: e.getInt("MAX_IDENTITY_TOKEN_SIZE", oidc.DefaultMaxTokenSize),

		OTELEnabled:     e.getBool("OTEL_ENABLED", false),
		OTELEndpoint:    e.get("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELInsecure:    e.getBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELSampleRatio: e.getFloat("OTEL_TRACES_SAMPLE_RATIO", 1),
		OTELServiceName: e.get("OTEL_SERVICE_NAME", "hotsauce-api"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageDriver {
	case StorageDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
	case StorageDriverMemory:
		if c.IsProduction() {
			return fmt.Errorf("STORAGE_DRIVER=memory is not allowed in production")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	if c.GoogleClientID == "" {
		return fmt.Errorf("GOOGLE_CLIENT_ID is required")
	}
	if len(c.SessionSecret) < session.MinSecretLength {
		return fmt.Errorf("SESSION_SECRET must be at least %d bytes", session.MinSecretLength)
	}
	if !c.UserVariant.IsValid() {
		return fmt.Errorf("unknown USER_VARIANT %q", c.UserVariant)
	}
	return nil
}

// IsProduction reports whether this is a production deployment
func (c *Config) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

// DebugEndpointsEnabled reports whether diagnostic routes may be registered.
// Production never exposes them, whatever ENABLE_DEBUG_ENDPOINTS says.
func (c *Config) DebugEndpointsEnabled() bool {
	return c.EnableDebugRoutes && !c.IsProduction()
}

type env struct {
	getenv func(string) string
}

func (e env) get(key, defaultValue string) string {
	if value := e.getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (e env) getBool(key string, defaultValue bool) bool {
	if value := e.getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func (e env) getInt(key string, defaultValue int) int {
	if value := e.getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (e env) getFloat(key string, defaultValue float64) float64 {
	if value := e.getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func (e env) getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := e.getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d >= 0 {
			return d
		}
	}
	return defaultValue
}

func (e env) getList(key string, defaultValue []string) []string {
	value := e.getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
