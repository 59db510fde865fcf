// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wizard_sessions_started_total",
			Help: "Total number of wizard sessions started",
		},
	)

	StepTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_step_transitions_total",
			Help: "Step navigation attempts by origin step and result",
		},
		[]string{"from_step", "direction", "result"},
	)

	Violations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_violations_total",
			Help: "Violations reported when a step was blocked",
		},
		[]string{"field", "reason"},
	)

	Lookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_lookups_total",
			Help: "Address and registry lookups by kind and outcome",
		},
		[]string{"kind", "status"},
	)

	LookupCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_lookup_cache_total",
			Help: "Lookup cache results by kind (hit, miss, negative_hit)",
		},
		[]string{"kind", "result"},
	)

	LookupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wizard_lookup_duration_seconds",
			Help:    "Duration of upstream lookups in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	Uploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_uploads_total",
			Help: "File uploads by category and result",
		},
		[]string{"category", "result"},
	)

	UploadBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_upload_bytes_total",
			Help: "Bytes stored by category",
		},
		[]string{"category"},
	)

	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_submissions_total",
			Help: "Submission attempts by result",
		},
		[]string{"result"},
	)

	EmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_emails_total",
			Help: "Notification emails by provider and result",
		},
		[]string{"provider", "result"},
	)
)
