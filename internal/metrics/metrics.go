package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CapabilityInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyloom_capability_invocations_total",
			Help: "Total number of capability invocations by capability and outcome.",
		},
		[]string{"capability", "outcome"},
	)

	CapabilityDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storyloom_capability_duration_seconds",
			Help:    "Duration of capability invocations including retries.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"capability"},
	)

	CapabilityRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyloom_capability_retries_total",
			Help: "Total number of retried capability attempts.",
		},
		[]string{"capability"},
	)

	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyloom_submissions_total",
			Help: "Total number of story submissions by outcome.",
		},
		[]string{"outcome"},
	)

	BadgesAwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyloom_badges_awarded_total",
			Help: "Total number of badges awarded by badge name.",
		},
		[]string{"badge"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyloom_http_requests_total",
			Help: "Total number of HTTP requests by method and status code.",
		},
		[]string{"method", "status"},
	)
)
