package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/prejin2310/megora-inventory/api/routes"
	"github.com/prejin2310/megora-inventory/internal/customers"
	"github.com/prejin2310/megora-inventory/internal/ledger"
	"github.com/prejin2310/megora-inventory/internal/orders"
	"github.com/prejin2310/megora-inventory/internal/products"
	"github.com/prejin2310/megora-inventory/pkg/config"
	"github.com/prejin2310/megora-inventory/pkg/db"
	"github.com/prejin2310/megora-inventory/pkg/logger"
	"github.com/prejin2310/megora-inventory/pkg/metrics"
	"github.com/prejin2310/megora-inventory/pkg/migrate"
	"github.com/prejin2310/megora-inventory/pkg/outbox"
	"github.com/prejin2310/megora-inventory/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "redis not configured; idempotency keys and public rate limiting disabled")
	}

	var (
		reg            prometheus.Registerer
		metricsHandler http.Handler
	)
	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		reg = registry
		metricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	}

	conn := dbClient.DB()
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn))
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)

	productRepo := products.NewRepository(conn)
	productSvc, err := products.NewService(productRepo, dbClient, ledgerSvc, emitter, metrics.NewInventoryMetrics(reg))
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	customerSvc, err := customers.NewService(customers.NewRepository(conn))
	if err != nil {
		logg.Error(context.Background(), "failed to create customer service", err)
		os.Exit(1)
	}

	orderSvc, err := orders.NewService(orders.Deps{
		Repo:           orders.NewRepository(conn),
		Tx:             dbClient,
		Outbox:         emitter,
		Products:       productRepo,
		Stock:          productSvc,
		Customers:      customerSvc,
		Ledger:         ledgerSvc,
		Logger:         logg,
		Metrics:        metrics.NewOrderMetrics(reg),
		PublicIDLength: cfg.PublicLookup.PublicIDLength,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":    cfg.App.Env,
		"addr":   addr,
		"driver": cfg.DB.Driver,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			metrics.NewHTTPMetrics(reg),
			metricsHandler,
			productSvc,
			customerSvc,
			orderSvc,
			ledgerSvc,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "api server shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}
}
