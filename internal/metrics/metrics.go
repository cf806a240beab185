// Package metrics exposes the executor's Prometheus series.
package metrics

import (
	"time"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Prometheus Metrics for the Executor
// =============================================================================

var (
	// operationsTotal counts executor entry point calls.
	// Labels: operation, width ("" for width-less calls), outcome (success or an error kind)
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clexec",
		Subsystem: "executor",
		Name:      "operations_total",
		Help:      "Executor calls by operation, width and outcome",
	}, []string{"operation", "width", "outcome"})

	// operationDuration measures how long each call held the ledger.
	// Labels: operation
	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "clexec",
		Subsystem: "executor",
		Name:      "operation_duration_seconds",
		Help:      "Executor call latency in seconds",
		Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
	}, []string{"operation"})

	// feesCollected accumulates collected fees in base units.
	// Labels: width, token, destination (vault or caller)
	feesCollected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clexec",
		Subsystem: "fees",
		Name:      "collected_base_units_total",
		Help:      "Fees collected from strategy positions in token base units",
	}, []string{"width", "token", "destination"})

	// vaultBalance tracks the vault's reserve-token counter.
	vaultBalance = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "clexec",
		Subsystem: "vault",
		Name:      "balance_base_units",
		Help:      "Reserve-token balance held by the vault in base units",
	})

	// keeperSweeps counts fee sweeps by outcome.
	// Labels: outcome (success, error)
	keeperSweeps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clexec",
		Subsystem: "keeper",
		Name:      "sweeps_total",
		Help:      "Keeper fee sweeps by outcome",
	}, []string{"outcome"})
)

// =============================================================================
// Metrics Recording Functions
// =============================================================================

// RecordOperation records one executor call.
func RecordOperation(operation, width, outcome string, duration time.Duration) {
	operationsTotal.WithLabelValues(operation, width, outcome).Inc()
	operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordFees adds a collected fee amount.
func RecordFees(width, token, destination string, amount *uint256.Int) {
	if amount == nil || amount.IsZero() {
		return
	}
	feesCollected.WithLabelValues(width, token, destination).Add(toFloat(amount))
}

// SetVaultBalance publishes the vault counter.
func SetVaultBalance(balance *uint256.Int) {
	vaultBalance.Set(toFloat(balance))
}

// RecordSweep records a keeper sweep.
func RecordSweep(success bool) {
	outcome := "success"
	if !success {
		outcome = "error"
	}
	keeperSweeps.WithLabelValues(outcome).Inc()
}

func toFloat(x *uint256.Int) float64 {
	if x == nil {
		return 0
	}
	return x.Float64()
}
