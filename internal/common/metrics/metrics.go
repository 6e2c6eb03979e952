// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ApplicationsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "screening_applications_started_total",
			Help: "Total number of applications started",
		},
	)

	StageEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screening_stage_evaluations_total",
			Help: "Total number of stage evaluations by outcome",
		},
		[]string{"stage", "outcome"},
	)

	Disqualifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screening_disqualifications_total",
			Help: "Total number of disqualified applications by stage",
		},
		[]string{"stage"},
	)

	Classifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screening_classifications_total",
			Help: "Total number of finalized applications by classification band",
		},
		[]string{"band"},
	)

	SubmissionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screening_submission_errors_total",
			Help: "Total number of rejected submissions by error code",
		},
		[]string{"error_code"},
	)

	StageScoreDistribution = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "screening_stage_normalized_score",
			Help:    "Distribution of normalized stage scores",
			Buckets: prometheus.LinearBuckets(0, 5, 11),
		},
		[]string{"stage"},
	)
)
