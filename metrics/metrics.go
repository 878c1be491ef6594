// Package metrics provides Prometheus metrics for spacetraveling.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CMSRequestsTotal counts content source requests by operation and outcome.
	CMSRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spacetraveling",
			Name:      "cms_requests_total",
			Help:      "Total number of content source requests",
		},
		[]string{"operation", "outcome"},
	)

	// CMSRequestDuration measures content source round trips.
	CMSRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "spacetraveling",
			Name:      "cms_request_duration_seconds",
			Help:      "Duration of content source requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// PageBuildsTotal counts detail page builds by trigger and outcome.
	PageBuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spacetraveling",
			Name:      "page_builds_total",
			Help:      "Total number of detail page builds",
		},
		[]string{"trigger", "outcome"},
	)

	// LoadMoreTotal counts "load more" attempts by outcome.
	LoadMoreTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spacetraveling",
			Name:      "load_more_total",
			Help:      "Total number of listing load-more attempts",
		},
		[]string{"outcome"},
	)
)

// RecordCMSRequest records one content source request.
func RecordCMSRequest(operation, outcome string, seconds float64) {
	CMSRequestsTotal.WithLabelValues(operation, outcome).Inc()
	CMSRequestDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordPageBuild records one detail page build.
func RecordPageBuild(trigger, outcome string) {
	PageBuildsTotal.WithLabelValues(trigger, outcome).Inc()
}

// RecordLoadMore records one load-more attempt.
func RecordLoadMore(outcome string) {
	LoadMoreTotal.WithLabelValues(outcome).Inc()
}
