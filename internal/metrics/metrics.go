package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ApplicationsScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recruit_applications_scored_total",
			Help: "Total number of applications scored and routed",
		},
		[]string{"stream", "priority"},
	)

	ApplicationScore = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recruit_application_score",
			Help:    "Distribution of capped eligibility scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
		[]string{"route"},
	)

	ScoresCapped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recruit_scores_capped_total",
			Help: "Total number of assessments whose raw score exceeded the maximum",
		},
	)

	ApplicationsRescored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recruit_applications_rescored_total",
			Help: "Total number of stale assessments re-evaluated",
		},
		[]string{"changed"},
	)

	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recruit_validation_failures_total",
			Help: "Total number of rejected submissions by field",
		},
		[]string{"field"},
	)

	EventPublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recruit_event_publish_failures_total",
			Help: "Total number of events that could not be published",
		},
		[]string{"event"},
	)
)

// ObserveAssessment records a completed score-and-route pass.
func ObserveAssessment(stream, priority, route string, score int, capped bool) {
	ApplicationsScored.WithLabelValues(stream, priority).Inc()
	ApplicationScore.WithLabelValues(route).Observe(float64(score))
	if capped {
		ScoresCapped.Inc()
	}
}
