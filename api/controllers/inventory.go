package controllers

import (
	"net/http"

	"github.com/prejin2310/megora-inventory/api/responses"
	"github.com/prejin2310/megora-inventory/internal/ledger"
	"github.com/prejin2310/megora-inventory/pkg/logger"
)

// InventoryReconcile compares every product's stock against its ledger. Drift
// is reported in the body; the request itself succeeds.
func InventoryReconcile(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := svc.Reconcile(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !report.Consistent() && logg != nil {
			ctx := logg.WithField(r.Context(), "drifted_products", len(report.Drifts))
			logg.Warn(ctx, "inventory.reconcile.drift")
		}
		responses.WriteSuccess(w, map[string]any{
			"consistent":       report.Consistent(),
			"checked_products": report.CheckedProducts,
			"drifts":           report.Drifts,
			"checked_at":       report.CheckedAt,
		})
	}
}
