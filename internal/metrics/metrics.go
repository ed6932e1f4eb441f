package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ReconciliationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciliation_outcomes_total",
			Help: "Outcomes of charge verification and shipment debits",
		},
		[]string{"operation", "outcome"},
	)

	ShipmentTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shipment_transitions_total",
			Help: "Shipment status transition attempts by target status and result",
		},
		[]string{"to", "result"},
	)

	NotificationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Notifications that could not be stored or handed off",
		},
		[]string{"kind"},
	)

	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Latency of payment gateway calls",
			Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10},
		},
		[]string{"operation", "result"},
	)
)

// ObserveGateway records the duration of a gateway call started at start.
func ObserveGateway(operation, result string, start time.Time) {
	GatewayRequestDuration.WithLabelValues(operation, result).Observe(time.Since(start).Seconds())
}

func Handler() http.Handler {
	return promhttp.Handler()
}
