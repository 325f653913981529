package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/benvon/hotsauce-api/internal/database"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const healthCheckTimeout = 5 * time.Second

// HealthChecker handles health check requests
type HealthChecker struct {
	db     database.Pinger
	redis  redis.UniversalClient
	logger *zap.Logger
}

// NewHealthChecker creates a new health checker. redisClient may be nil when
// the key set cache is in-process.
func NewHealthChecker(db database.Pinger, redisClient redis.UniversalClient, logger *zap.Logger) *HealthChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthChecker{db: db, redis: redisClient, logger: logger}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles the /healthz endpoint. ?mode=extended also checks
// storage and the shared cache.
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	statusCode := http.StatusOK

	if r.URL.Query().Get("mode") == "extended" {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		checks := map[string]string{
			"database": h.checkResult("database", h.db.PingContext(ctx)),
		}
		if h.redis != nil {
			checks["redis"] = h.checkResult("redis", h.redis.Ping(ctx).Err())
		}
		for _, result := range checks {
			if result != "healthy" {
				response.Status = "unhealthy"
				statusCode = http.StatusServiceUnavailable
			}
		}
		response.Checks = checks
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

// checkResult keeps failure detail out of the public response
func (h *HealthChecker) checkResult(dependency string, err error) string {
	if err != nil {
		h.logger.Warn("health_check_failed", zap.String("dependency", dependency), zap.Error(err))
		return "unhealthy"
	}
	return "healthy"
}
