package main

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/prejin2310/megora-inventory/internal/ledger"
	"github.com/prejin2310/megora-inventory/pkg/logger"
	"github.com/prejin2310/megora-inventory/pkg/metrics"
)

type stubReconciler struct {
	report *ledger.ReconcileReport
	err    error
}

func (s stubReconciler) Reconcile(context.Context) (*ledger.ReconcileReport, error) {
	return s.report, s.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "reconcile-test", Output: io.Discard})
}

func TestRunReconcileConsistent(t *testing.T) {
	reg := prometheus.NewRegistry()
	jobMetrics := metrics.NewJobMetrics(reg)
	svc := stubReconciler{report: &ledger.ReconcileReport{CheckedProducts: 3, Drifts: []ledger.Drift{}, CheckedAt: time.Now()}}

	report, err := runReconcile(context.Background(), svc, testLogger(), jobMetrics)
	require.NoError(t, err)
	require.True(t, report.Consistent())

	count, err := testutil.GatherAndCount(reg, "megora_job_success_total")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestRunReconcileAggregatesDrift(t *testing.T) {
	svc := stubReconciler{report: &ledger.ReconcileReport{
		CheckedProducts: 2,
		Drifts: []ledger.Drift{
			{ProductID: uuid.New(), SKU: "RING-1", Stock: 5, InitialStock: 10, LedgerSum: -2, Difference: -3},
			{ProductID: uuid.New(), SKU: "NECK-2", Stock: 8, InitialStock: 8, LedgerSum: 1, Difference: -1},
		},
	}}

	report, err := runReconcile(context.Background(), svc, testLogger(), metrics.NewJobMetrics(nil))
	require.Error(t, err)
	require.Len(t, multierr.Errors(err), 2)
	require.Contains(t, err.Error(), "RING-1")
	require.False(t, report.Consistent())
}

func TestRunReconcileWrapsServiceError(t *testing.T) {
	svc := stubReconciler{err: errors.New("db unavailable")}

	report, err := runReconcile(context.Background(), svc, testLogger(), metrics.NewJobMetrics(nil))
	require.Error(t, err)
	require.Nil(t, report)
	require.Contains(t, err.Error(), "db unavailable")
}
