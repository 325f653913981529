package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/rs/cors"
	"go.uber.org/zap"
)

// DefaultFrontendOrigin is allowed when no origins are configured
const DefaultFrontendOrigin = "http://localhost:3000"

// ParseOrigins splits a comma separated origin list, dropping blanks and duplicates
func ParseOrigins(raw string) []string {
	var origins []string
	for _, part := range strings.Split(raw, ",") {
		origin := strings.TrimRight(strings.TrimSpace(part), "/")
		if origin == "" || slices.Contains(origins, origin) {
			continue
		}
		origins = append(origins, origin)
	}
	if len(origins) == 0 {
		return []string{DefaultFrontendOrigin}
	}
	return origins
}

// CORS allows credentialed requests from the given frontend origins.
// Credentials are required because the session travels in a cookie.
func CORS(origins []string, logger *zap.Logger) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           86400,
	})
	logger.Info("cors_configured", zap.Strings("allowed_origins", origins))
	return c.Handler
}
