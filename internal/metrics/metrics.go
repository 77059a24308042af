package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Submission metrics
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telhawk_iris_submissions_total",
			Help: "Total number of HTTP submissions to IRIS",
		},
		[]string{"endpoint", "status"},
	)

	SubmissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "telhawk_iris_submission_duration_seconds",
			Help:    "Duration of IRIS HTTP submissions in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// IOC metrics
	IOCsAttachedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telhawk_iris_iocs_attached_total",
			Help: "Total number of IOC records attached to cases",
		},
	)

	// Dispatch metrics
	DispatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telhawk_iris_dispatches_total",
			Help: "Total number of rule dispatches processed",
		},
		[]string{"rule", "outcome"},
	)

	DispatchErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telhawk_iris_dispatch_errors_total",
			Help: "Total number of dispatch failures",
		},
	)
)
