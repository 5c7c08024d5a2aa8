package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/config"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
)

const metadataTimeout = 10 * time.Second

var (
	errNoProject   = errors.New("bigquery: gcp project id is required")
	errNoDataset   = errors.New("bigquery: dataset is required")
	errNoTable     = errors.New("bigquery: table name is required")
	errNotReady    = errors.New("bigquery: client not initialized")
	errEmptySchema = errors.New("bigquery: schema is required")
)

// Client wraps the BigQuery SDK around the single analytics dataset the PDV writes to.
type Client struct {
	bq         *bigquery.Client
	dataset    *bigquery.Dataset
	salesTable string
}

// NewClient opens the SDK client and checks that the dataset is reachable.
// Tables are verified lazily by Ping or created by EnsureTable.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.BigQueryConfig, logg *logger.Logger) (*Client, error) {
	project := strings.TrimSpace(gcp.ProjectID)
	datasetID := strings.TrimSpace(cfg.Dataset)
	table := strings.TrimSpace(cfg.SalesTable)
	switch {
	case project == "":
		return nil, errNoProject
	case datasetID == "":
		return nil, errNoDataset
	case table == "":
		return nil, errNoTable
	}

	bq, err := bigquery.NewClient(ctx, project, credentialOptions(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("bigquery: open client: %w", err)
	}
	c := &Client{bq: bq, dataset: bq.Dataset(datasetID), salesTable: table}

	checkCtx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()
	if _, err := c.dataset.Metadata(checkCtx); err != nil {
		_ = bq.Close()
		if isNotFound(err) {
			return nil, fmt.Errorf("bigquery: dataset %s.%s not found", project, datasetID)
		}
		return nil, fmt.Errorf("bigquery: read dataset %s: %w", datasetID, err)
	}

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{"dataset": datasetID, "sales_table": table}), "bigquery client ready")
	}
	return c, nil
}

func credentialOptions(gcp config.GCPConfig) []option.ClientOption {
	if raw := strings.TrimSpace(gcp.CredentialsJSON); raw != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(raw))}
	}
	if path := strings.TrimSpace(gcp.ApplicationCredentials); path != "" {
		return []option.ClientOption{option.WithCredentialsFile(path)}
	}
	return nil
}

// SalesTable is the table receiving one row per committed sale.
func (c *Client) SalesTable() string {
	if c == nil {
		return ""
	}
	return c.salesTable
}

// EnsureTable creates the table when it does not exist yet. Existing tables are
// left untouched; schema drift is reported by the inserts themselves.
// partitionField, when set, enables daily time partitioning on that column.
func (c *Client) EnsureTable(ctx context.Context, name string, schema bigquery.Schema, partitionField string) error {
	if c == nil || c.dataset == nil {
		return errNotReady
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return errNoTable
	}
	if len(schema) == 0 {
		return errEmptySchema
	}

	ctx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()

	table := c.dataset.Table(name)
	_, err := table.Metadata(ctx)
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("bigquery: read table %s: %w", name, err)
	}

	meta := &bigquery.TableMetadata{Schema: schema}
	if partitionField != "" {
		meta.TimePartitioning = &bigquery.TimePartitioning{Type: bigquery.DayPartitioningType, Field: partitionField}
	}
	if err := table.Create(ctx, meta); err != nil && !isConflict(err) {
		return fmt.Errorf("bigquery: create table %s: %w", name, err)
	}
	return nil
}

// Ping checks that the sales table can be read.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.dataset == nil {
		return errNotReady
	}
	ctx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()
	if _, err := c.dataset.Table(c.salesTable).Metadata(ctx); err != nil {
		return fmt.Errorf("bigquery: read table %s: %w", c.salesTable, err)
	}
	return nil
}

// InsertRows streams rows into table. Rows implementing bigquery.ValueSaver
// carry their own insert ids; struct rows are inferred from their tags.
func (c *Client) InsertRows(ctx context.Context, table string, rows []any) error {
	if c == nil || c.dataset == nil {
		return errNotReady
	}
	table = strings.TrimSpace(table)
	if table == "" {
		return errNoTable
	}
	if len(rows) == 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return c.dataset.Table(table).Inserter().Put(ctx, rows)
}

func (c *Client) Close() error {
	if c == nil || c.bq == nil {
		return nil
	}
	return c.bq.Close()
}

func isNotFound(err error) bool { return apiStatus(err) == http.StatusNotFound }

func isConflict(err error) bool { return apiStatus(err) == http.StatusConflict }

func apiStatus(err error) int {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}
