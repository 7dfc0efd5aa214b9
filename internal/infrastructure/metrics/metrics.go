// Package metrics exposes coordinator and HTTP activity as prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"txprop/internal/core/tx"
)

// Compile-time check that Metrics records coordinator activity.
var _ tx.Recorder = (*Metrics)(nil)

// Metrics holds the application collectors.
type Metrics struct {
	// Logical transactions begun (propagation, new: true/false)
	TransactionsBegun *prometheus.CounterVec

	// Logical transactions completed (propagation, outcome)
	TransactionsCompleted *prometheus.CounterVec

	// Physical transactions suspended by REQUIRES_NEW
	ConnectionsSuspended prometheus.Counter

	// HTTP requests (method, path, status_code)
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP latency (method, path)
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates Metrics registered with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates Metrics registered with reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TransactionsBegun: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tx_begun_total",
				Help: "Total number of logical transactions begun",
			},
			[]string{"propagation", "new"},
		),
		TransactionsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tx_completed_total",
				Help: "Total number of logical transactions completed, by outcome",
			},
			[]string{"propagation", "outcome"},
		),
		ConnectionsSuspended: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tx_suspended_total",
				Help: "Total number of physical transactions suspended for a new one",
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
	}

	reg.MustRegister(
		m.TransactionsBegun,
		m.TransactionsCompleted,
		m.ConnectionsSuspended,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)

	return m
}

// TransactionBegun implements tx.Recorder.
func (m *Metrics) TransactionBegun(def tx.Definition, isNew bool) {
	newLabel := "false"
	if isNew {
		newLabel = "true"
	}
	m.TransactionsBegun.WithLabelValues(def.Propagation.String(), newLabel).Inc()
}

// TransactionCompleted implements tx.Recorder.
func (m *Metrics) TransactionCompleted(def tx.Definition, outcome tx.Outcome) {
	m.TransactionsCompleted.WithLabelValues(def.Propagation.String(), string(outcome)).Inc()
}

// ConnectionSuspended implements tx.Recorder.
func (m *Metrics) ConnectionSuspended() {
	m.ConnectionsSuspended.Inc()
}
