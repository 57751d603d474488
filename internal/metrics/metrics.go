package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder holds the prometheus collectors for turnover activity.
type Recorder struct {
	registry *prometheus.Registry

	started       prometheus.Counter
	completed     prometheus.Counter
	transitions   *prometheus.CounterVec
	rejections    *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	totalDuration prometheus.Histogram
}

// NewRecorder creates a Recorder backed by its own registry.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()

	r := &Recorder{
		registry: registry,
		started: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "turnover_started_total",
			Help: "Turnovers started",
		}),
		completed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "turnover_completed_total",
			Help: "Turnovers completed",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "turnover_stage_transitions_total",
			Help: "Stage transitions by destination stage",
		}, []string{"to"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "turnover_rejected_operations_total",
			Help: "Turnover operations rejected by the state machine",
		}, []string{"operation", "reason"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "turnover_stage_duration_seconds",
			Help:    "Time spent in each stage",
			Buckets: prometheus.LinearBuckets(0, 120, 20), // 2-minute buckets
		}, []string{"stage"}),
		totalDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "turnover_total_duration_seconds",
			Help:    "Time from turnover start to completion",
			Buckets: prometheus.LinearBuckets(0, 300, 24), // 5-minute buckets
		}),
	}

	registry.MustRegister(
		r.started,
		r.completed,
		r.transitions,
		r.rejections,
		r.stageDuration,
		r.totalDuration,
		collectors.NewGoCollector(),
	)
	return r
}

// TurnoverStarted counts a new turnover.
func (r *Recorder) TurnoverStarted() {
	r.started.Inc()
}

// StageAdvanced records a transition out of stage after elapsed seconds.
func (r *Recorder) StageAdvanced(from, to string, elapsed float64) {
	r.transitions.WithLabelValues(to).Inc()
	r.stageDuration.WithLabelValues(from).Observe(elapsed)
}

// TurnoverCompleted records a completed turnover's total duration in seconds.
func (r *Recorder) TurnoverCompleted(total float64) {
	r.completed.Inc()
	r.totalDuration.Observe(total)
}

// Rejected counts an operation refused with the given reason.
func (r *Recorder) Rejected(operation, reason string) {
	r.rejections.WithLabelValues(operation, reason).Inc()
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
