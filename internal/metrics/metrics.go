// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts requests by method, route pattern and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipehub_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration records request latency by method and route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "recipehub_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// RegistrationsTotal counts registrations by outcome (created, reissued, email_failed).
	RegistrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipehub_registrations_total",
		Help: "Total number of registration attempts that persisted an account",
	}, []string{"outcome"})

	// LoginsTotal counts login attempts by outcome (success, failure, oauth).
	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipehub_logins_total",
		Help: "Total number of login attempts",
	}, []string{"outcome"})

	ReviewsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recipehub_reviews_created_total",
		Help: "Total number of reviews created",
	})

	// RatingRecomputeFailuresTotal counts aggregate recomputes that failed after a review was stored.
	RatingRecomputeFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recipehub_rating_recompute_failures_total",
		Help: "Total number of failed recipe rating recomputes",
	})

	// EmailFailuresTotal counts undeliverable emails by template.
	EmailFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipehub_email_failures_total",
		Help: "Total number of emails that could not be sent",
	}, []string{"template"})

	// CacheEventsTotal counts recipe cache lookups by result (hit, miss, error).
	CacheEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipehub_cache_events_total",
		Help: "Total number of recipe cache events",
	}, []string{"event"})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
