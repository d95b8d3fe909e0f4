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

	"github.com/prejin2310/megora-inventory/pkg/config"
	"github.com/prejin2310/megora-inventory/pkg/db"
	"github.com/prejin2310/megora-inventory/pkg/enums"
	"github.com/prejin2310/megora-inventory/pkg/logger"
	"github.com/prejin2310/megora-inventory/pkg/metrics"
	"github.com/prejin2310/megora-inventory/pkg/migrate"
	"github.com/prejin2310/megora-inventory/pkg/outbox"
	"github.com/prejin2310/megora-inventory/pkg/pubsub"
	"github.com/prejin2310/megora-inventory/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "outbox-publisher"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "outbox-publisher",
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

	kind, err := enums.ParseOutboxTransport(cfg.Outbox.Transport)
	if err != nil {
		logg.Error(context.Background(), "unknown outbox transport", err)
		os.Exit(1)
	}

	var sink transport
	switch kind {
	case enums.OutboxTransportPubSub:
		pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub client", err)
			}
		}()
		sink = newPubSubTransport(pubsubClient, cfg.PubSub)
	case enums.OutboxTransportRedis:
		if !cfg.Redis.Enabled() {
			logg.Error(context.Background(), "redis transport selected without redis configuration", errors.New("redis not configured"))
			os.Exit(1)
		}
		redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		sink = newRedisTransport(redisClient, cfg.Outbox.ChannelPrefix)
	}

	var reg prometheus.Registerer
	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		reg = registry
		go serveMetrics(logg, cfg.Metrics.WorkerAddr, registry)
	}

	service, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logg,
		DB:         dbClient,
		Repository: outbox.NewRepository(dbClient.DB()),
		Transport:  sink,
		Metrics:    metrics.NewJobMetrics(reg),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox publisher", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": "outbox-publisher",
		"transport":   sink.Name(),
	})
	logg.Info(ctx, "starting outbox publisher")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "outbox publisher stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "outbox publisher shutting down gracefully")
}

func serveMetrics(logg *logger.Logger, addr string, registry *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	ctx := logg.WithField(context.Background(), "addr", addr)
	logg.Info(ctx, "serving worker metrics")
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "worker metrics server stopped", err)
	}
}
