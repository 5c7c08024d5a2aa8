package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/metrics"
)

// quietPrefixes are polled by probes and scrapers; they log at debug only.
var quietPrefixes = []string{"/health/", "/metrics"}

// Logging writes one access line per request and feeds the request metrics.
// Failed requests log at warn; WriteError already logged the cause.
func Logging(logg *logger.Logger, httpMetrics *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{"method": r.Method, "path": r.URL.Path})
			}
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(started)
			route := routePattern(r)
			httpMetrics.ObserveRequest(r.Method, route, status, elapsed)

			if logg == nil {
				return
			}
			ctx = logg.WithFields(ctx, map[string]any{
				"route":       route,
				"status":      status,
				"bytes":       ww.BytesWritten(),
				"duration_ms": elapsed.Milliseconds(),
			})
			switch {
			case status >= http.StatusBadRequest:
				logg.Warn(ctx, "request finished")
			case quiet(r.URL.Path):
				logg.Debug(ctx, "request finished")
			default:
				logg.Info(ctx, "request finished")
			}
		})
	}
}

// routePattern is only complete once chi has routed the request.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}

func quiet(path string) bool {
	for _, prefix := range quietPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
