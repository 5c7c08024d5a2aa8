package writer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	cbigquery "cloud.google.com/go/bigquery"

	"github.com/gleilsonbarbosa2/elitepedidos2/internal/analytics/types"
	pkgbigquery "github.com/gleilsonbarbosa2/elitepedidos2/pkg/bigquery"
)

// Config controls batching and retries of the sales writer. Zero values fall
// back to one row per insert and three attempts.
type Config struct {
	SalesTable  string
	BatchSize   int
	RetryPolicy RetryPolicy
}

type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaximumBackoff time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = 250 * time.Millisecond
	}
	if p.MaximumBackoff < p.InitialBackoff {
		p.MaximumBackoff = max(2*time.Second, p.InitialBackoff)
	}
	return p
}

type tableInserter interface {
	InsertRows(ctx context.Context, table string, rows []any) error
}

// BigQueryWriter streams sale rows into BigQuery. Every row is sent with its
// outbox event id as insert id, so a redelivered event that slips past the
// Redis dedup is still collapsed by BigQuery's best-effort dedup window.
type BigQueryWriter struct {
	inserter  tableInserter
	table     string
	batchSize int
	retry     RetryPolicy

	mu      sync.Mutex
	pending []types.SaleRow
}

func New(client *pkgbigquery.Client, cfg Config) (*BigQueryWriter, error) {
	if client == nil {
		return nil, errors.New("writer: bigquery client required")
	}
	table := strings.TrimSpace(cfg.SalesTable)
	if table == "" {
		return nil, errors.New("writer: sales table required")
	}
	return &BigQueryWriter{
		inserter:  client,
		table:     table,
		batchSize: max(cfg.BatchSize, 1),
		retry:     cfg.RetryPolicy.withDefaults(),
	}, nil
}

// InsertSale queues row and writes the queue once it reaches the batch size.
// On failure the queue is kept so the next flush retries it.
func (w *BigQueryWriter) InsertSale(ctx context.Context, row types.SaleRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = append(w.pending, row)
	if len(w.pending) < w.batchSize {
		return nil
	}
	return w.flushLocked(ctx)
}

// Flush writes whatever is queued.
func (w *BigQueryWriter) Flush(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushLocked(ctx)
}

func (w *BigQueryWriter) flushLocked(ctx context.Context) error {
	if len(w.pending) == 0 {
		return nil
	}
	if err := w.putWithRetry(ctx, saversFor(w.pending)); err != nil {
		return err
	}
	w.pending = w.pending[:0]
	return nil
}

func saversFor(rows []types.SaleRow) []any {
	schema := SalesSchema()
	out := make([]any, len(rows))
	for i := range rows {
		out[i] = &cbigquery.StructSaver{Schema: schema, InsertID: rows[i].EventID, Struct: &rows[i]}
	}
	return out
}

func (w *BigQueryWriter) putWithRetry(ctx context.Context, rows []any) error {
	wait := w.retry.InitialBackoff
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := w.inserter.InsertRows(ctx, w.table, rows)
		if err == nil {
			return nil
		}
		if attempt >= w.retry.MaxAttempts || !isRetryableBigQueryError(err) {
			return fmt.Errorf("insert %d rows into %s (attempt %d): %w", len(rows), w.table, attempt, err)
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		wait = min(wait*2, w.retry.MaximumBackoff)
	}
}

// EncodeJSON turns a raw event payload into a JSON column value. Empty input
// becomes NULL.
func EncodeJSON(payload any) (cbigquery.NullJSON, error) {
	var raw []byte
	switch v := payload.(type) {
	case nil:
		return cbigquery.NullJSON{}, nil
	case cbigquery.NullJSON:
		return v, nil
	case json.RawMessage:
		raw = v
	case []byte:
		raw = v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return cbigquery.NullJSON{}, fmt.Errorf("encode json column: %w", err)
		}
		raw = encoded
	}
	if len(raw) == 0 || string(raw) == "null" {
		return cbigquery.NullJSON{}, nil
	}
	return cbigquery.NullJSON{Valid: true, JSONVal: string(raw)}, nil
}
