package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// devOrigins serve the Vite and CRA dev servers when no origin is configured.
var devOrigins = []string{"http://localhost:5173", "http://localhost:3000"}

// CORS applies the origin policy of the register and admin frontends.
// Origins may use one wildcard, e.g. "https://*.eliteacai.com.br".
func CORS(origins []string) func(http.Handler) http.Handler {
	allowed := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			allowed = append(allowed, o)
		}
	}
	if len(allowed) == 0 {
		allowed = devOrigins
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept", "Authorization", "Content-Type",
			IdempotencyKeyHeader, requestIDHeader, "X-Requested-With",
		},
		ExposedHeaders:   []string{requestIDHeader, replayedHeader, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           600,
	})
}
