package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "stock_reservation"

var (
	// ReservationOps counts manager operations by operation and outcome.
	ReservationOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operations_total",
		Help:      "Reservation operations by operation and outcome.",
	}, []string{"operation", "outcome"})

	ReservedUnits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reserved_units_total",
		Help:      "Units moved from available to reserved.",
	})

	InvalidState = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ledger_invalid_state_total",
		Help:      "Ledger commit/release calls rejected because reserved < quantity.",
	})

	SweepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sweep_runs_total",
		Help:      "Expiry sweep cycles by result.",
	}, []string{"result"})

	SweepReservations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sweep_reservations_total",
		Help:      "Reservations handled by the expiry sweeper by outcome.",
	}, []string{"outcome"})

	// ExpirationMessages counts delayed expiration deliveries. Every delivery is acked.
	ExpirationMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "expiration_messages_total",
		Help:      "Delayed expiration messages consumed by outcome.",
	}, []string{"outcome"})

	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sweep_duration_seconds",
		Help:      "Duration of one expiry sweep cycle.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
	})
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)
