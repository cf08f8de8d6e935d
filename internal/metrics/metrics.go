package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Submission metrics
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formgate_submissions_total",
			Help: "Total number of form submissions received",
		},
		[]string{"endpoint", "status"},
	)

	RejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formgate_rejections_total",
			Help: "Total number of rejected submissions by error kind",
		},
		[]string{"endpoint", "kind"},
	)

	// Rate limiting metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formgate_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	RateLimitErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "formgate_rate_limit_errors_total",
			Help: "Total number of internal rate limit store errors",
		},
	)

	// Anti-spam metrics
	SpamDetections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formgate_spam_detections_total",
			Help: "Total number of submissions flagged as spam by rule",
		},
		[]string{"endpoint", "rule"},
	)

	// Validation metrics
	ValidationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "formgate_validation_duration_seconds",
			Help:    "Duration of schema validation in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Dispatch metrics
	DispatchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formgate_dispatch_failures_total",
			Help: "Total number of failed dispatch attempts by channel",
		},
		[]string{"channel"},
	)

	LeadsStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "formgate_leads_stored_total",
			Help: "Total number of leads persisted",
		},
	)
)
