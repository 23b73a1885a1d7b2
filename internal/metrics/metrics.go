package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Scan pipeline metrics
	MessagesScanned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sentry_messages_scanned_total",
			Help: "Total messages scanned",
		},
	)

	ThreatsDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentry_threats_detected_total",
			Help: "Total threats detected by type",
		},
		[]string{"threat_type"},
	)

	MessagesBlocked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sentry_messages_blocked_total",
			Help: "Total messages blocked or quarantined",
		},
	)

	WarningsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sentry_warnings_issued_total",
			Help: "Total messages delivered with a warning annotation",
		},
	)

	DuplicatesSuppressed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sentry_duplicates_suppressed_total",
			Help: "Total inbound messages dropped as duplicate ids",
		},
	)

	// Reputation metrics
	ReputationCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sentry_reputation_cache_hits_total",
			Help: "Total reputation lookups answered from cache",
		},
	)

	ReputationCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sentry_reputation_cache_misses_total",
			Help: "Total reputation lookups that missed the cache",
		},
	)

	ReputationAPIErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sentry_reputation_api_errors_total",
			Help: "Total reputation lookups that failed open",
		},
	)

	// Ledger metrics
	FalsePositivesReported = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sentry_false_positives_reported_total",
			Help: "Total ledger entries reported as false positives",
		},
	)
)
