package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gleilsonbarbosa2/elitepedidos2/internal/cron"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/registers"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/config"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/instance"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/metrics"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/migrate"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/outbox"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/redis"
)

const serviceName = "cron-worker"

var onlyJobs []string

func main() {
	once := flag.Bool("once", false, "run one maintenance cycle and exit")
	flag.Func("job", "with -once, run only this job (repeatable)", func(name string) error {
		onlyJobs = append(onlyJobs, name)
		return nil
	})
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
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

	if err := run(ctx, cfg, logg, *once); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker shutting down gracefully")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, once bool) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	// the flag expires before the next tick so a crashed instance never blocks a cycle
	lock, err := cron.NewRedisLock(redisClient, redisClient.JobLockKey(serviceName), cfg.Maintenance.Interval*11/12)
	if err != nil {
		return err
	}

	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:           logg,
		DB:               dbClient,
		Repository:       outbox.NewRepository(dbClient.DB()),
		RetentionDays:    cfg.Maintenance.OutboxRetentionDays,
		TerminalAttempts: cfg.Outbox.MaxAttempts,
	})
	if err != nil {
		return err
	}
	staleRegisters, err := cron.NewStaleRegisterJob(cron.StaleRegisterJobParams{
		Logger:     logg,
		Repository: registers.NewRepository(dbClient.DB()),
		After:      cfg.Maintenance.StaleRegisterAfter,
	})
	if err != nil {
		return err
	}

	registry, err := cron.NewRegistry(retention, staleRegisters)
	if err != nil {
		return err
	}
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewWorkerMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Maintenance.Interval,
	})
	if err != nil {
		return err
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"instance": instance.GetID(),
		"interval": cfg.Maintenance.Interval.String(),
	})
	if once {
		logg.Info(logg.WithField(ctx, "jobs", onlyJobs), "running one maintenance cycle")
		return service.RunOnce(ctx, onlyJobs...)
	}
	logg.Info(ctx, "starting cron worker")
	return service.Run(ctx)
}
