// Package metrics holds Prometheus instruments that are used across the
// service.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// SubmissionsTotal counts submit attempts by outcome: accepted,
	// invalid, in_flight, recorded, record_failed.
	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_form_submissions_total",
			Help: "Contact form submit attempts by outcome.",
		},
		[]string{"outcome"})

	FieldValidationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_form_field_validation_failures_total",
			Help: "Field validation failures by field and failing rule.",
		},
		[]string{"field", "rule"})

	StateTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_form_state_transitions_total",
			Help: "Submission state machine transitions.",
		},
		[]string{"from", "to"})

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "contact_active_sessions",
			Help: "Number of visitor sessions currently held in memory.",
		})

	SessionCreateTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "contact_session_create_total",
			Help: "Cumulative number of visitor sessions created.",
		})

	SessionEvictTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_session_evict_total",
			Help: "Cumulative number of visitor sessions evicted, by reason.",
		},
		[]string{"reason"})

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contact_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and status code.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "code"})
)

func init() {
	prometheus.MustRegister(
		SubmissionsTotal,
		FieldValidationFailuresTotal,
		StateTransitionsTotal,
		ActiveSessions,
		SessionCreateTotal,
		SessionEvictTotal,
		HTTPRequestDuration,
	)
}
