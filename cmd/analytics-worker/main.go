package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gleilsonbarbosa2/elitepedidos2/internal/analytics"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/analytics/worker"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/analytics/writer"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/bigquery"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/config"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/instance"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/metrics"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/outbox/idempotency"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/pubsub"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/redis"
)

const serviceName = "analytics-worker"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})
	if err := godotenv.Load(); err != nil {
		logg.Debug(context.Background(), "no .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"instance":     instance.GetID(),
		"subscription": cfg.PubSub.AnalyticsSubscription,
	})

	if err := run(ctx, cfg, logg); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "analytics worker failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "analytics worker stopped")
}

// run wires the sale consumer: pubsub subscription -> dedup ledger -> BigQuery rows.
func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	if !cfg.GCP.Enabled() {
		return errors.New("analytics worker needs PDV_GCP_PROJECT_ID")
	}
	loc, err := cfg.Store.Location()
	if err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer closeQuietly(logg, "redis", redisClient.Close)

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, true, logg)
	if err != nil {
		return err
	}
	defer closeQuietly(logg, "pubsub", pubsubClient.Close)

	bqClient, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
	if err != nil {
		return err
	}
	defer closeQuietly(logg, "bigquery", bqClient.Close)

	subscription := pubsubClient.AnalyticsSubscription()
	if subscription == nil {
		return fmt.Errorf("subscription %q not configured", cfg.PubSub.AnalyticsSubscription)
	}
	if err := bqClient.EnsureTable(ctx, bqClient.SalesTable(), writer.SalesSchema(), writer.SalesPartitionField); err != nil {
		return fmt.Errorf("provision sales table: %w", err)
	}

	ledger, err := idempotency.NewLedger(redisClient, cfg.Outbox.ConsumerDedupTTL)
	if err != nil {
		return err
	}
	salesWriter, err := writer.New(bqClient, writer.Config{SalesTable: bqClient.SalesTable()})
	if err != nil {
		return err
	}
	// rows still buffered when the subscription stops are written before exit
	defer func() {
		if err := salesWriter.Flush(context.WithoutCancel(ctx)); err != nil {
			logg.Error(ctx, "failed to flush buffered sale rows", err)
		}
	}()

	handler, err := analytics.NewSalesHandler(salesWriter, loc, logg)
	if err != nil {
		return err
	}
	service, err := worker.NewService(subscription, handler, ledger, metrics.NewWorkerMetrics(prometheus.DefaultRegisterer), logg)
	if err != nil {
		return err
	}

	logg.Info(ctx, "analytics worker ready")
	return service.Run(ctx)
}

func closeQuietly(logg *logger.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(context.Background(), "failed to close "+what, err)
	}
}
