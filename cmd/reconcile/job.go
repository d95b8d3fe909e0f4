package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/prejin2310/megora-inventory/internal/ledger"
	"github.com/prejin2310/megora-inventory/pkg/logger"
	"github.com/prejin2310/megora-inventory/pkg/metrics"
)

const reconcileJob = "ledger_reconcile"

type reconciler interface {
	Reconcile(ctx context.Context) (*ledger.ReconcileReport, error)
}

// runReconcile returns a combined error with one entry per drifting product.
func runReconcile(ctx context.Context, svc reconciler, logg *logger.Logger, jobMetrics *metrics.JobMetrics) (*ledger.ReconcileReport, error) {
	started := time.Now()
	defer func() { jobMetrics.ObserveDuration(reconcileJob, time.Since(started)) }()

	report, err := svc.Reconcile(ctx)
	if err != nil {
		jobMetrics.IncFailure(reconcileJob)
		return nil, fmt.Errorf("reconcile ledger: %w", err)
	}

	var drifts error
	for _, drift := range report.Drifts {
		driftCtx := logg.WithFields(ctx, map[string]any{
			"product_id":    drift.ProductID.String(),
			"sku":           drift.SKU,
			"stock":         drift.Stock,
			"initial_stock": drift.InitialStock,
			"ledger_sum":    drift.LedgerSum,
			"difference":    drift.Difference,
		})
		logg.Warn(driftCtx, "ledger drift detected")
		drifts = multierr.Append(drifts, fmt.Errorf("product %s (%s): stock off by %d", drift.ProductID, drift.SKU, drift.Difference))
	}

	summary := logg.WithFields(ctx, map[string]any{
		"checked_products": report.CheckedProducts,
		"drift_count":      len(report.Drifts),
	})
	if drifts != nil {
		jobMetrics.IncFailure(reconcileJob)
		logg.Warn(summary, "ledger reconciliation found drift")
		return report, drifts
	}
	jobMetrics.IncSuccess(reconcileJob)
	logg.Info(summary, "ledger reconciliation consistent")
	return report, nil
}
