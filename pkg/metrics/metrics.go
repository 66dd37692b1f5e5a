// Package metrics exposes the service's prometheus instruments. A dropped
// payment confirmation is a financial integrity incident, so every settlement
// outcome is counted, including the rejected ones.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrdersCreated counts successful intakes.
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gigmart",
		Name:      "orders_created_total",
		Help:      "Number of orders created in PENDING state.",
	})

	// SettlementOutcomes counts webhook processing results by outcome:
	// applied, noop, failed, invalid_signature, unknown_order,
	// invalid_transition, error.
	SettlementOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gigmart",
		Name:      "settlement_outcomes_total",
		Help:      "Settlement callback outcomes by result.",
	}, []string{"outcome"})

	// GatewayRequestDuration observes the latency of gateway calls.
	GatewayRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gigmart",
		Name:      "gateway_request_duration_seconds",
		Help:      "Latency of payment gateway calls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "result"})
)
