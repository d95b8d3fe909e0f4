package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/prejin2310/megora-inventory/internal/ledger"
	"github.com/prejin2310/megora-inventory/pkg/config"
	"github.com/prejin2310/megora-inventory/pkg/db"
	"github.com/prejin2310/megora-inventory/pkg/logger"
	"github.com/prejin2310/megora-inventory/pkg/metrics"
	"github.com/prejin2310/megora-inventory/pkg/outbox"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "reconcile"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "reconcile",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(ctx, "failed to create ledger service", err)
		os.Exit(1)
	}

	pending, err := outbox.NewRepository(dbClient.DB()).CountPending(dbClient.DB().WithContext(ctx))
	if err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "unable to count pending outbox events")
	} else {
		logg.Info(logg.WithField(ctx, "pending_outbox_events", pending), "outbox backlog")
	}

	if _, err := runReconcile(ctx, ledgerSvc, logg, metrics.NewJobMetrics(nil)); err != nil {
		logg.Error(logg.WithField(ctx, "drift_count", len(multierr.Errors(err))), "reconciliation failed", err)
		os.Exit(1)
	}
}
