// Package metrics holds prometheus collectors for ledger operations.
// Collectors are registered in the default registry and served by promhttp.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "creditledger"

var PaymentsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "payments",
	Name:      "recorded_total",
	Help:      "Bill payments recorded, by bill category.",
}, []string{"category"})

var CreditsAwarded = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "credits",
	Name:      "awarded_total",
	Help:      "Credits awarded for bill payments.",
})

var CreditsRedeemed = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "credits",
	Name:      "redeemed_total",
	Help:      "Credits spent on rewards.",
})

var Redemptions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "redemptions",
	Name:      "total",
	Help:      "Redemption attempts, by outcome.",
}, []string{"outcome"})

var CardDebits = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "cards",
	Name:      "debits_total",
	Help:      "Card payment attempts, by outcome.",
}, []string{"outcome"})

var BalanceConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "balance",
	Name:      "cas_conflicts_total",
	Help:      "Balance compare-and-swap attempts lost to a concurrent writer.",
}, []string{"ledger"})

var OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "operation_duration_ms",
	Help:      "Ledger operation latency in milliseconds.",
	Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
}, []string{"operation"})

// Outcome labels
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Ledger labels
const (
	LedgerAccount = "account"
	LedgerCard    = "card"
)

// ObserveSince records the time passed since start for the operation.
// Meant to be deferred: defer metrics.ObserveSince("redeem", time.Now())
func ObserveSince(operation string, start time.Time) {
	OperationDuration.WithLabelValues(operation).Observe(float64(time.Since(start).Microseconds()) / 1000)
}

// Outcome maps an operation result to outcome label
func Outcome(err error, rejected func(error) bool) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case rejected != nil && rejected(err):
		return OutcomeRejected
	default:
		return OutcomeError
	}
}
