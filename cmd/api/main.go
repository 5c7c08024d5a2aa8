package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gleilsonbarbosa2/elitepedidos2/api/routes"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/cart"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/checkout"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/media"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/notifications"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/operators"
	products "github.com/gleilsonbarbosa2/elitepedidos2/internal/products"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/receipt"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/registers"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/sales"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/scale"
	"github.com/gleilsonbarbosa2/elitepedidos2/internal/storehours"
	pkgAuth "github.com/gleilsonbarbosa2/elitepedidos2/pkg/auth"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/auth/session"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/config"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/db"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/instance"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/logger"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/metrics"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/migrate"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/outbox"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/pubsub"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/redis"
	"github.com/gleilsonbarbosa2/elitepedidos2/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "api stopped", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	loc, err := cfg.Store.Location()
	if err != nil {
		return err
	}

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

	checks := map[string]db.Pinger{"postgres": dbClient, "redis": redisClient}

	mediaOpts := media.Options{Cache: redisClient, CacheTTL: cfg.Redis.ImageURLTTL, MaxUploadMB: cfg.GCS.MaxUploadMB}
	if cfg.GCP.Enabled() && cfg.GCS.BucketName != "" {
		gcsClient, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
		if err != nil {
			return err
		}
		defer func() { _ = gcsClient.Close() }()
		mediaOpts.Objects = gcsClient
		checks["gcs"] = gcsClient
	}

	var printPublisher pubsub.MessagePublisher
	if cfg.GCP.Enabled() && cfg.PubSub.PrintTopic != "" {
		psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, false, logg)
		if err != nil {
			return err
		}
		defer func() { _ = psClient.Close() }()
		printPublisher = pubsub.WrapPublisher(psClient.PrintPublisher())
	}

	var scaleReader scale.Reader
	if cfg.Scale.BridgeURL != "" {
		bridge, err := scale.NewBridgeClient(cfg.Scale, nil, logg)
		if err != nil {
			return err
		}
		scaleReader = bridge
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	sessionManager, err := session.NewManager(redisClient, pkgAuth.TTL(cfg.JWT))
	if err != nil {
		return err
	}
	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	bus := notifications.NewBus(notifications.DefaultBuffer)

	operatorSvc, err := operators.NewService(operators.ServiceParams{
		Repo:           operators.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return err
	}

	mediaSvc, err := media.NewService(media.NewRepository(dbClient.DB()), mediaOpts, logg)
	if err != nil {
		return err
	}
	productSvc, err := products.NewService(products.NewRepository(dbClient.DB()), dbClient, outboxSvc, mediaSvc, logg)
	if err != nil {
		return err
	}
	hoursSvc, err := storehours.NewService(storehours.NewRepository(dbClient.DB()), loc, logg)
	if err != nil {
		return err
	}
	registerSvc, err := registers.NewService(registers.NewRepository(dbClient.DB()), dbClient, outboxSvc, logg)
	if err != nil {
		return err
	}
	salesSvc, err := sales.NewService(sales.NewRepository(dbClient.DB()), dbClient, outboxSvc, logg)
	if err != nil {
		return err
	}

	cartStore, err := cart.NewRedisStore(redisClient, cfg.Redis.CartTTL)
	if err != nil {
		return err
	}
	cartSvc, err := cart.NewService(cartStore, productSvc, registerSvc, scaleReader, logg)
	if err != nil {
		return err
	}
	checkoutSvc, err := checkout.NewService(checkout.Params{
		Carts:    cartStore,
		Sales:    salesSvc,
		Flags:    redisClient,
		Printer:  receipt.NewPrinter(printPublisher, logg),
		Notifier: bus,
		Metrics:  checkoutMetrics,
		Config:   cfg.Checkout,
		Store:    cfg.Store,
		Location: loc,
		Logger:   logg,
	})
	if err != nil {
		return err
	}

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		Handler: routes.NewRouter(routes.Deps{
			Config:      cfg,
			Logger:      logg,
			Checks:      checks,
			Redis:       redisClient,
			Sessions:    sessionManager,
			Metrics:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
			HTTPMetrics: metrics.NewHTTPMetrics(registry),
			Operators:   operatorSvc,
			Products:    productSvc,
			Media:       mediaSvc,
			StoreHours:  hoursSvc,
			Registers:   registerSvc,
			Sales:       salesSvc,
			Cart:        cartSvc,
			Checkout:    checkoutSvc,
			Events:      bus,
		}),
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(logCtx, "starting api server")

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
