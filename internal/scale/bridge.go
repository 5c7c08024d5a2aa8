package scale

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/config"
	pkgerrors "github.com/gleilsonbarbosa2/elitepedidos2/pkg/errors"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
)

const weightPath = "/weight"

type bridgePayload struct {
	Grams  decimal.Decimal `json:"grams"`
	Stable bool            `json:"stable"`
}

// BridgeClient calls the scale bridge behind a circuit breaker so a disconnected
// scale fails fast instead of stalling every weighed add.
type BridgeClient struct {
	baseURL          string
	httpClient       *http.Client
	breaker          *gobreaker.CircuitBreaker[Reading]
	requireStability bool
	logg             *logger.Logger
	now              func() time.Time
}

// NewBridgeClient builds a reader for cfg.BridgeURL. httpClient may be nil.
func NewBridgeClient(cfg config.ScaleConfig, httpClient *http.Client, logg *logger.Logger) (*BridgeClient, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BridgeURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("scale bridge url required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logg == nil {
		logg = logger.Nop()
	}

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 3
	}

	client := &BridgeClient{
		baseURL:          baseURL,
		httpClient:       httpClient,
		requireStability: cfg.RequireStability,
		logg:             logg,
		now:              time.Now,
	}
	client.breaker = gobreaker.NewCircuitBreaker[Reading](gobreaker.Settings{
		Name:        "scale-bridge",
		MaxRequests: cfg.BreakerHalfOpen,
		Timeout:     cfg.BreakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			ctx := logg.WithFields(context.Background(), map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			logg.Warn(ctx, "scale breaker state changed")
		},
	})
	return client, nil
}

// Read fetches the current weight. An unstable sample is rejected when the
// client is configured to require stability.
func (c *BridgeClient) Read(ctx context.Context) (Reading, error) {
	reading, err := c.breaker.Execute(func() (Reading, error) {
		return c.fetch(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Reading{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "scale unavailable")
		}
		if pkgerrors.As(err) != nil {
			return Reading{}, err
		}
		return Reading{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read scale")
	}

	if c.requireStability && !reading.Stable {
		return Reading{}, pkgerrors.New(pkgerrors.CodeValidation, "scale reading is not stable")
	}
	if !reading.Grams.IsPositive() {
		return Reading{}, pkgerrors.New(pkgerrors.CodeValidation, "scale reports no weight")
	}
	return reading, nil
}

func (c *BridgeClient) fetch(ctx context.Context) (Reading, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+weightPath, nil)
	if err != nil {
		return Reading{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Reading{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Reading{}, fmt.Errorf("scale bridge returned status %d", resp.StatusCode)
	}

	var payload bridgePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Reading{}, fmt.Errorf("decode scale payload: %w", err)
	}
	return Reading{Grams: payload.Grams, Stable: payload.Stable, ReadAt: c.now().UTC()}, nil
}
