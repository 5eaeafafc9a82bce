// Package instrument holds the prometheus metrics of the binding layer.
package instrument

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	iterations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "toxbind_iterations_total",
			Help: "Number of engine iterate steps",
		},
	)
	iterateDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "toxbind_iterate_duration_seconds",
			Help:    "Time spent inside the engine iterate step",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
	)
	eventsDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toxbind_events_dispatched_total",
			Help: "Number of engine events delivered to handlers",
		},
		[]string{"event"},
	)
	eventsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toxbind_events_dropped_total",
			Help: "Number of events dropped by a full event queue",
		},
		[]string{"event"},
	)
	operationErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toxbind_operation_errors_total",
			Help: "Number of failed binding operations",
		},
		[]string{"category"},
	)
	contractViolations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toxbind_contract_violations_total",
			Help: "Number of engine codes outside the known tables",
		},
		[]string{"category"},
	)
)

func init() {
	prometheus.MustRegister(iterations)
	prometheus.MustRegister(iterateDuration)
	prometheus.MustRegister(eventsDispatched)
	prometheus.MustRegister(eventsDropped)
	prometheus.MustRegister(operationErrors)
	prometheus.MustRegister(contractViolations)
}

// Handler returns the HTTP handler exposing the registered metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// StartPrometheusListener serves the metrics on address until the returned
// server is closed.
func StartPrometheusListener(address string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go srv.ListenAndServe()
	return srv
}

// Iteration records one iterate step.
func Iteration(d time.Duration) {
	iterations.Inc()
	iterateDuration.Observe(d.Seconds())
}

// EventDispatched increments the counter for a delivered event.
func EventDispatched(event string) {
	eventsDispatched.With(prometheus.Labels{"event": event}).Inc()
}

// EventDropped increments the counter for an event a full queue could not take.
func EventDropped(event string) {
	eventsDropped.With(prometheus.Labels{"event": event}).Inc()
}

// OperationError increments the error counter for an operation category.
func OperationError(category string) {
	operationErrors.With(prometheus.Labels{"category": category}).Inc()
}

// ContractViolation increments the counter for unknown engine codes.
func ContractViolation(category string) {
	contractViolations.With(prometheus.Labels{"category": category}).Inc()
}
