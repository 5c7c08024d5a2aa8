package middleware

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgredis "github.com/gleilsonbarbosa2/elitepedidos2/pkg/redis"
)

func throttleStore(t *testing.T) (*pkgredis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := pkgredis.NewFromRaw(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func loginRequest(body, addr string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.RemoteAddr = addr
	return req
}

func TestLoginThrottleKeepsBodyForHandler(t *testing.T) {
	store, _ := throttleStore(t)
	var seen string
	handler := LoginThrottle(LoginLimits{Window: time.Minute, PerIP: 5, PerCode: 5}, store, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			seen = string(raw)
			w.WriteHeader(http.StatusOK)
		}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest(`{"code":"caixa01","password":"1234"}`, "10.1.1.1:4000"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"code":"caixa01","password":"1234"}`, seen)
}

func TestLoginThrottleCountsCodeCaseInsensitively(t *testing.T) {
	store, _ := throttleStore(t)
	handler := LoginThrottle(LoginLimits{Window: time.Minute, PerCode: 2}, store, nil)(okHandler())

	codes := []string{"caixa01", " CAIXA01 ", "Caixa01"}
	for i, code := range codes {
		rec := httptest.NewRecorder()
		// a different address each time: only the code counter can trip
		handler.ServeHTTP(rec, loginRequest(`{"code":"`+code+`","password":"x"}`, fmt.Sprintf("10.0.0.%d:80", i+1)))
		if i < 2 {
			assert.Equal(t, http.StatusOK, rec.Code, "attempt %d", i)
			continue
		}
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "60", rec.Header().Get("Retry-After"))
		assert.Contains(t, rec.Body.String(), "RATE_LIMIT_EXCEEDED")
	}
}

func TestLoginThrottleCountsForwardedAddress(t *testing.T) {
	store, mr := throttleStore(t)
	handler := LoginThrottle(LoginLimits{Window: time.Minute, PerIP: 1}, store, nil)(okHandler())

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := loginRequest(`{"code":"c","password":"p"}`, "192.168.0.9:1234")
		req.Header.Set("X-Forwarded-For", "5.6.7.8, 10.0.0.1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, "attempt %d", i)
	}
	assert.True(t, mr.Exists(store.RateLimitKey("login:ip:5.6.7.8")))

	// the window expiring lets the address in again
	mr.FastForward(2 * time.Minute)
	req := loginRequest(`{}`, "192.168.0.9:1234")
	req.Header.Set("X-Forwarded-For", "5.6.7.8")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginThrottleRejectsOversizedBody(t *testing.T) {
	store, _ := throttleStore(t)
	handler := LoginThrottle(LoginLimits{Window: time.Minute, PerCode: 3}, store, nil)(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest(`{"code":"`+strings.Repeat("a", maxLoginBody)+`"}`, "1.2.3.4:5"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginThrottleStoreDown(t *testing.T) {
	handler := LoginThrottle(LoginLimits{Window: time.Minute, PerIP: 3}, failingLimiter{}, nil)(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest(`{}`, "1.2.3.4:5"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLoginThrottleInactive(t *testing.T) {
	cases := map[string]LoginLimits{
		"no window": {PerIP: 1, PerCode: 1},
		"no caps":   {Window: time.Minute},
	}
	for name, limits := range cases {
		t.Run(name, func(t *testing.T) {
			handler := LoginThrottle(limits, failingLimiter{}, nil)(okHandler())
			for i := 0; i < 3; i++ {
				rec := httptest.NewRecorder()
				handler.ServeHTTP(rec, loginRequest(`{}`, "1.2.3.4:5"))
				assert.Equal(t, http.StatusOK, rec.Code)
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[::1]:443"
	assert.Equal(t, "::1", clientIP(req))

	req.Header.Set("X-Real-IP", "::ffff:8.8.8.8")
	assert.Equal(t, "8.8.8.8", clientIP(req))

	req.Header.Set("X-Forwarded-For", "not-an-ip, 9.9.9.9")
	assert.Equal(t, "8.8.8.8", clientIP(req))
}

type failingLimiter struct{}

func (failingLimiter) FixedWindowAllow(context.Context, string, int64, time.Duration) (bool, int64, error) {
	return false, 0, errors.New("redis down")
}
