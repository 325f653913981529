package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/hotsauce-api/api"
	"github.com/benvon/hotsauce-api/internal/config"
	"github.com/benvon/hotsauce-api/internal/database"
	"github.com/benvon/hotsauce-api/internal/handlers"
	"github.com/benvon/hotsauce-api/internal/logger"
	"github.com/benvon/hotsauce-api/internal/metrics"
	"github.com/benvon/hotsauce-api/internal/middleware"
	"github.com/benvon/hotsauce-api/internal/services/auth"
	"github.com/benvon/hotsauce-api/internal/services/oidc"
	"github.com/benvon/hotsauce-api/internal/services/session"
	"github.com/benvon/hotsauce-api/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// stores is the storage backend selected by STORAGE_DRIVER
type stores struct {
	users  database.UserStore
	nonces database.NonceStore
	pinger database.Pinger
	close  func() error
}

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	envFile := flag.String("env-file", ".env", "Optional dotenv file seeding the environment")
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		log.Fatalf("Failed to load environment file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.New(logger.Options{
		Service:     cfg.OTELServiceName,
		Environment: cfg.Environment,
		Debug:       debugMode,
		Development: cfg.Environment == config.EnvironmentDevelopment,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_server",
		zap.String("environment", cfg.Environment),
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("storage_driver", cfg.StorageDriver),
		zap.String("user_variant", string(cfg.UserVariant)),
		zap.Bool("require_nonce", cfg.RequireNonce),
		zap.Bool("debug_endpoints", cfg.DebugEndpointsEnabled()),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	var tracerProvider trace.TracerProvider
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), telemetry.Config{
				ServiceName: cfg.OTELServiceName,
				Endpoint:    cfg.OTELEndpoint,
				Insecure:    cfg.OTELInsecure,
				SampleRatio: cfg.OTELSampleRatio,
			})
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				tracerProvider = tp
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	st, err := openStores(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_open_storage", zap.Error(err))
	}
	defer func() {
		if err := st.close(); err != nil {
			zapLogger.Warn("failed_to_close_storage", zap.Error(err))
		}
	}()

	var redisClient redis.UniversalClient
	var keyCache oidc.KeySetCache
	if cfg.RedisURL != "" {
		client, err := openRedis(cfg.RedisURL)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
		}
		defer func() {
			if err := client.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		redisClient = client
		keyCache = oidc.NewRedisKeySetCache(client)
		zapLogger.Info("connected_to_redis")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	resolver := oidc.NewKeySetResolver(oidc.KeySetResolverConfig{
		URL:                cfg.JWKSURL,
		TTL:                cfg.JWKSCacheTTL,
		MinRefreshInterval: cfg.JWKSMinRefresh,
		Observer:           collector,
	}, keyCache, zapLogger)
	validator := oidc.NewTokenValidator(resolver, oidc.TokenValidatorConfig{
		ClientID:     cfg.GoogleClientID,
		Issuers:      cfg.OIDCIssuers,
		MaxTokenSize: cfg.MaxIdentityTokenSize,
	}, zapLogger)

	codec, err := session.NewCodec([]byte(cfg.SessionSecret), zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_create_session_codec", zap.Error(err))
	}

	gateway := auth.NewGateway(validator,
		auth.NewUserDirectory(st.users, zapLogger),
		auth.NewNonceLedger(st.nonces),
		codec,
		auth.GatewayConfig{
			Variant:        cfg.UserVariant,
			RequireNonce:   cfg.RequireNonce,
			Recorder:       collector,
			TracerProvider: tracerProvider,
		},
		zapLogger,
	)

	openAPI, err := handlers.NewOpenAPIHandler(api.OpenAPI)
	if err != nil {
		zapLogger.Fatal("failed_to_load_openapi_document", zap.Error(err))
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		ServiceName:    cfg.OTELServiceName,
		Logger:         zapLogger,
		Gateway:        gateway,
		Sessions:       codec,
		Cookies:        session.NewCookieConfig(cfg.BaseURL, cfg.CookiePath),
		Users:          st.users,
		Health:         handlers.NewHealthChecker(st.pinger, redisClient, zapLogger),
		OpenAPI:        openAPI,
		Metrics:        metrics.Handler(registry),
		Recorder:       collector,
		TracerProvider: tracerProvider,
		AllowedOrigins: middleware.ParseOrigins(cfg.FrontendURL),
		EnableHSTS:     cfg.EnableHSTS,
		DebugEndpoints: cfg.DebugEndpointsEnabled(),
		RequestTimeout: cfg.RequestTimeout,
		MaxRequestSize: middleware.DefaultMaxRequestSize,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
		return
	}

	zapLogger.Info("server_exited")
}

func openStores(cfg *config.Config, zapLogger *zap.Logger) (*stores, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		zapLogger.Warn("using_memory_storage")
		mem := database.NewMemoryStore()
		return &stores{users: mem, nonces: mem, pinger: mem, close: func() error { return nil }}, nil
	}

	if cfg.RunMigrations {
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return nil, err
		}
		zapLogger.Info("database_migrations_applied")
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	zapLogger.Info("connected_to_database")
	return &stores{
		users:  database.NewUserRepository(db),
		nonces: database.NewNonceRepository(db),
		pinger: db,
		close:  db.Close,
	}, nil
}

func openRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}
