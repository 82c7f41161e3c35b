package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	statusMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_mutations_total",
			Help:      "Availability mutations by outcome (persisted, resync_pending).",
		},
		[]string{"outcome"},
	)

	resyncs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resyncs_total",
			Help:      "Authoritative re-reads after a failed mutation, by result (applied, failed).",
		},
		[]string{"result"},
	)

	entitiesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_created_total",
			Help:      "Participants and calendar dates created.",
		},
		[]string{"kind"},
	)

	notifyDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notify_deliveries_total",
			Help:      "Change notifications delivered to subscribers, by event and result.",
		},
		[]string{"event", "result"},
	)

	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state: 0 closed, 1 open, 2 half-open.",
		},
		[]string{"name"},
	)
)

func RecordStatusMutation(outcome string) {
	statusMutations.WithLabelValues(outcome).Inc()
}

func RecordResync(result string) {
	resyncs.WithLabelValues(result).Inc()
}

func RecordCreated(kind string, n int) {
	entitiesCreated.WithLabelValues(kind).Add(float64(n))
}

func RecordNotifyDelivery(event, result string) {
	notifyDeliveries.WithLabelValues(event, result).Inc()
}

// SetBreakerState publishes the numeric state of the named breaker.
func SetBreakerState(name string, state int) {
	breakerState.WithLabelValues(name).Set(float64(state))
}
