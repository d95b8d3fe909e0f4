package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeNoop    = "noop"
)

// OrderMetrics counts order operations by outcome.
type OrderMetrics struct {
	operations *prometheus.CounterVec
	conflicts  *prometheus.CounterVec
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_operations_total",
		Help:      "Order operations by kind and outcome.",
	}, []string{"operation", "outcome"})
	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_transaction_conflicts_total",
		Help:      "Order transactions rejected because a concurrent writer won.",
	}, []string{"operation"})
	reg.MustRegister(operations, conflicts)
	return &OrderMetrics{operations: operations, conflicts: conflicts}
}

// RecordOperation counts one order operation.
func (m *OrderMetrics) RecordOperation(operation, outcome string) {
	if m == nil || m.operations == nil {
		return
	}
	m.operations.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

// RecordConflict counts a lost race for the operation.
func (m *OrderMetrics) RecordConflict(operation string) {
	if m == nil || m.conflicts == nil {
		return
	}
	m.conflicts.WithLabelValues(normalizeLabel(operation)).Inc()
}

// InventoryMetrics counts stock movements.
type InventoryMetrics struct {
	movements *prometheus.CounterVec
	units     *prometheus.CounterVec
}

// NewInventoryMetrics registers the inventory metrics on the provided registerer.
func NewInventoryMetrics(reg prometheus.Registerer) *InventoryMetrics {
	if reg == nil {
		return &InventoryMetrics{}
	}
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stock_movements_total",
		Help:      "Stock movements recorded in the ledger by reason.",
	}, []string{"reason"})
	units := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stock_units_moved_total",
		Help:      "Absolute stock units moved by reason and direction.",
	}, []string{"reason", "direction"})
	reg.MustRegister(movements, units)
	return &InventoryMetrics{movements: movements, units: units}
}

// ObserveMovement records one ledger-backed stock change.
func (m *InventoryMetrics) ObserveMovement(reason string, delta int) {
	if m == nil || m.movements == nil {
		return
	}
	m.movements.WithLabelValues(normalizeLabel(reason)).Inc()
	direction := "in"
	if delta < 0 {
		direction = "out"
		delta = -delta
	}
	m.units.WithLabelValues(normalizeLabel(reason), direction).Add(float64(delta))
}
