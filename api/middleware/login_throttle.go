package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/gleilsonbarbosa2/elitepedidos2/api/responses"
	pkgerrors "github.com/gleilsonbarbosa2/elitepedidos2/pkg/errors"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
)

// maxLoginBody bounds how much of a login request is buffered to read the code.
const maxLoginBody = 4 << 10

type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// LoginLimits caps login attempts inside one fixed window. A zero cap turns
// that counter off; a zero window turns the throttle off.
type LoginLimits struct {
	Window  time.Duration
	PerIP   int
	PerCode int
}

func (l LoginLimits) active() bool {
	return l.Window > 0 && (l.PerIP > 0 || l.PerCode > 0)
}

// counter is one throttled dimension of a login attempt.
type counter struct {
	dimension string
	key       string
	limit     int
}

// LoginThrottle counts login attempts per client address and per operator
// code. Codes are hashed before they reach Redis or the logs.
func LoginThrottle(limits LoginLimits, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil || !limits.active() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			counters, err := loginCounters(r, limits)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			for _, c := range counters {
				allowed, attempts, err := store.FixedWindowAllow(r.Context(), "login:"+c.dimension+":"+c.key, int64(c.limit), limits.Window)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if !allowed {
					throttled(r.Context(), logg, w, limits.Window, c, attempts)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// loginCounters lists the counters a request touches. The body is buffered
// and put back for the login handler.
func loginCounters(r *http.Request, limits LoginLimits) ([]counter, error) {
	var out []counter
	if limits.PerIP > 0 {
		if addr := clientIP(r); addr != "" {
			out = append(out, counter{dimension: "ip", key: addr, limit: limits.PerIP})
		}
	}
	if limits.PerCode <= 0 || r.Body == nil {
		return out, nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxLoginBody+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request")
	}
	if len(body) > maxLoginBody {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "login request too large")
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	var login struct {
		Code string `json:"code"`
	}
	if json.Unmarshal(body, &login) == nil {
		if code := strings.ToUpper(strings.TrimSpace(login.Code)); code != "" {
			sum := sha256.Sum256([]byte(code))
			out = append(out, counter{dimension: "code", key: hex.EncodeToString(sum[:]), limit: limits.PerCode})
		}
	}
	return out, nil
}

func throttled(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, window time.Duration, c counter, attempts int64) {
	if logg != nil {
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"dimension": c.dimension,
			"key":       c.key,
			"attempts":  attempts,
			"limit":     c.limit,
		}), "login throttled")
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(window.Round(time.Second)/time.Second)))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many login attempts, try again later"))
}

// clientIP prefers the first valid X-Forwarded-For hop, then X-Real-IP, then
// the socket peer.
func clientIP(r *http.Request) string {
	if first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ","); first != "" {
		if addr, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
			return addr.Unmap().String()
		}
	}
	if addr, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return addr.Unmap().String()
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
