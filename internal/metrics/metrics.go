package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PipelinesTotal counts finished pipeline runs by outcome
	// (completed/failed/timeout).
	PipelinesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "speakersplit_pipelines_total",
			Help: "Total number of pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	// StageDuration tracks how long each pipeline stage takes.
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "speakersplit_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"stage"},
	)

	// SegmentsProduced counts exported parts per pipeline run outcome.
	SegmentsProduced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "speakersplit_segment_parts_total",
			Help: "Total number of per-speaker parts produced",
		},
	)
)

// ObserveStage records the duration of one pipeline stage.
func ObserveStage(stage string, d time.Duration) {
	StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordPipeline records a finished run.
func RecordPipeline(outcome string) {
	PipelinesTotal.WithLabelValues(outcome).Inc()
}

// RecordParts adds to the produced-part counter.
func RecordParts(n int) {
	SegmentsProduced.Add(float64(n))
}
