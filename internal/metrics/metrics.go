// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BookingAttempts counts finished booking attempts by outcome.
	BookingAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_attempts_total",
		Help: "Booking attempts by terminal outcome.",
	}, []string{"outcome"})

	// IssuerRequestDuration observes calls to the ticket number issuer.
	IssuerRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "issuer_request_duration_seconds",
		Help:    "Latency of ticket number issuer calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})

	// CatalogQueries counts catalog store reads by filter kind.
	CatalogQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_queries_total",
		Help: "Catalog filter queries executed.",
	}, []string{"filter"})

	// GatewayDeliveries counts list responses pushed to the gateway.
	GatewayDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_deliveries_total",
		Help: "List responses forwarded to the gateway sink.",
	}, []string{"result"})

	// EventsPublished counts ticket.confirmed publications.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ticket_events_published_total",
		Help: "ticket.confirmed events handed to the broker.",
	}, []string{"driver", "result"})
)

// Result is the label value for an operation that returned err.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
