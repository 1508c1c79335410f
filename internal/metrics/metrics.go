// Package metrics exposes the receiver's Prometheus instrumentation.
// Handler failures never surface in HTTP responses, so the counters here
// are the only place they become visible.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Deliveries counts webhook requests by terminal status:
	// success, duplicate, unauthorized, invalid, error, rate_limited.
	Deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hooksink_deliveries_total",
		Help: "Webhook deliveries by terminal status.",
	}, []string{"status"})

	// SignatureFailures counts rejected signatures.
	SignatureFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hooksink_signature_failures_total",
		Help: "Deliveries rejected for a bad HMAC signature.",
	})

	// HandlerFailures counts business-handler errors per event type.
	HandlerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hooksink_handler_failures_total",
		Help: "Handler invocations that returned an error or panicked.",
	}, []string{"event"})

	// UnknownEvents counts deliveries whose event type has no handler.
	UnknownEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hooksink_unknown_events_total",
		Help: "Deliveries acknowledged without a registered handler.",
	}, []string{"event"})

	// LedgerSize tracks the number of delivery ids currently recorded.
	LedgerSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hooksink_ledger_size",
		Help: "Delivery identifiers currently held by the ledger.",
	})
)
