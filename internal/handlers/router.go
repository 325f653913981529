package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/benvon/hotsauce-api/internal/middleware"
	"github.com/benvon/hotsauce-api/internal/services/session"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RouterConfig carries everything the HTTP surface is built from
type RouterConfig struct {
	ServiceName string
	Logger      *zap.Logger

	Gateway  Authenticator
	Sessions middleware.SessionVerifier
	Cookies  session.CookieConfig
	Users    UserReader
	Health   *HealthChecker
	OpenAPI  *OpenAPIHandler

	// Metrics serves /metrics when set
	Metrics  http.Handler
	Recorder middleware.HTTPRecorder
	// TracerProvider enables per-route spans when set
	TracerProvider trace.TracerProvider

	AllowedOrigins []string
	EnableHSTS     bool
	DebugEndpoints bool
	RequestTimeout time.Duration
	MaxRequestSize int64
}

// NewRouter assembles routes and middleware. Middleware that must also see
// unmatched routes and CORS preflights wraps the router from outside.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := mux.NewRouter()

	// gorilla/mux runs route middleware in registration order
	if cfg.TracerProvider != nil {
		r.Use(otelmux.Middleware(cfg.ServiceName, otelmux.WithTracerProvider(cfg.TracerProvider)))
	}
	r.Use(middleware.ErrorHandler(logger))
	r.Use(middleware.MaxRequestSize(cfg.MaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	if cfg.Health != nil {
		handle(r, "/healthz", http.HandlerFunc(cfg.Health.HealthCheck), http.MethodGet)
	}
	if cfg.Metrics != nil {
		handle(r, "/metrics", cfg.Metrics, http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()
	requireSession := mux.MiddlewareFunc(middleware.Authenticated(cfg.Sessions, cfg.Cookies, logger))

	NewAuthHandler(cfg.Gateway, cfg.Cookies, cfg.DebugEndpoints, logger).RegisterRoutes(api, requireSession)
	if cfg.Users != nil {
		NewProfileHandler(cfg.Users, logger).RegisterRoutes(api, requireSession)
	}
	if cfg.OpenAPI != nil {
		cfg.OpenAPI.RegisterRoutes(api)
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondJSONError(w, http.StatusNotFound, "not_found", "The requested resource does not exist")
	})

	var h http.Handler = r
	h = middleware.CORS(cfg.AllowedOrigins, logger)(h)
	h = middleware.SecurityHeaders(cfg.EnableHSTS)(h)
	h = middleware.Audit(logger)(h)
	h = middleware.Logging(logger, cfg.Recorder)(h)
	h = middleware.RequestID(h)
	return h
}

// handle registers handler for the given methods on path, then a catch-all
// route on the same path answering 405. mux forgets a method mismatch once a
// later route on another path is tried, so the fallback has to sit next to
// the route it guards.
func handle(r *mux.Router, path string, handler http.Handler, methods ...string) {
	r.Handle(path, handler).Methods(methods...)
	r.Handle(path, methodNotAllowed(methods))
}

func methodNotAllowed(allowed []string) http.Handler {
	allow := strings.Join(allowed, ", ")
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Allow", allow)
		respondJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	})
}
