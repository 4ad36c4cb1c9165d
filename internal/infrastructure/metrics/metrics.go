// Package metrics declares the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auditalex",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "auditalex",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	AuditsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "auditalex",
		Name:      "audits_completed_total",
		Help:      "Audits transitioned to completed.",
	})

	DuplicatesRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "auditalex",
		Name:      "audit_duplicates_removed_total",
		Help:      "Duplicate audits deleted by the cleanup sweep.",
	})

	SyncWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "auditalex",
		Subsystem: "sync",
		Name:      "writes_total",
		Help:      "Draft writes sent to the audit store by class and outcome.",
	}, []string{"class", "outcome"})

	IdentifierSwaps = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "auditalex",
		Subsystem: "sync",
		Name:      "identifier_swaps_total",
		Help:      "Placeholder audit ids replaced by persisted ids.",
	})

	LocalCopiesPurged = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "auditalex",
		Subsystem: "sync",
		Name:      "local_copies_purged_total",
		Help:      "Local-only audit copies dropped in favor of the server copy.",
	})
)
