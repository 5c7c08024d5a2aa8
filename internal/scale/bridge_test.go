package scale

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/config"
	pkgerrors "github.com/gleilsonbarbosa2/elitepedidos2/pkg/errors"
)

func newBridge(t *testing.T, handler http.HandlerFunc, cfg config.ScaleConfig) *BridgeClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg.BridgeURL = server.URL + "/"
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Second
	}
	client, err := NewBridgeClient(cfg, server.Client(), nil)
	require.NoError(t, err)
	return client
}

func TestBridgeClientRead(t *testing.T) {
	client := newBridge(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weight", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"grams":"512","stable":true}`))
	}, config.ScaleConfig{RequireStability: true})

	reading, err := client.Read(context.Background())
	require.NoError(t, err)
	assert.True(t, reading.Stable)
	assert.Equal(t, "0.512", reading.Kilograms().String())
	assert.False(t, reading.ReadAt.IsZero())
}

func TestBridgeClientRejectsUnstable(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"grams":300,"stable":false}`))
	}

	strict := newBridge(t, handler, config.ScaleConfig{RequireStability: true})
	_, err := strict.Read(context.Background())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	lenient := newBridge(t, handler, config.ScaleConfig{RequireStability: false})
	reading, err := lenient.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0.3", reading.Kilograms().String())
}

func TestBridgeClientRejectsEmptyScale(t *testing.T) {
	client := newBridge(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"grams":0,"stable":true}`))
	}, config.ScaleConfig{})

	_, err := client.Read(context.Background())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestBridgeClientBreakerOpens(t *testing.T) {
	var calls atomic.Int32
	client := newBridge(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}, config.ScaleConfig{BreakerFailures: 2, BreakerOpenFor: time.Minute, BreakerHalfOpen: 1})

	for i := 0; i < 2; i++ {
		_, err := client.Read(context.Background())
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	}

	_, err := client.Read(context.Background())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	assert.Contains(t, err.Error(), "scale unavailable")
	assert.Equal(t, int32(2), calls.Load(), "open breaker must not reach the bridge")
}

func TestNewBridgeClientRequiresURL(t *testing.T) {
	_, err := NewBridgeClient(config.ScaleConfig{}, nil, nil)
	require.Error(t, err)
}
