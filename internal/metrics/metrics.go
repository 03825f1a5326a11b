package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RunsStarted       prometheus.Counter
	RunsRejected      prometheus.Counter
	RunsFinished      *prometheus.CounterVec
	RunDuration       prometheus.Histogram
	StageDuration     *prometheus.HistogramVec
	SynthesisAttempts *prometheus.CounterVec

	registry *prometheus.Registry
}

// New registers all collectors on a private registry so that several
// instances (one per test) never collide.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		RunsStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "hatsuon_runs_started_total",
			Help: "Total number of pipeline runs started",
		}),
		RunsRejected: f.NewCounter(prometheus.CounterOpts{
			Name: "hatsuon_runs_rejected_total",
			Help: "Total number of runs rejected because another run was in flight",
		}),
		RunsFinished: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hatsuon_runs_finished_total",
			Help: "Total number of finished runs by final stage and failure kind",
		}, []string{"stage", "kind"}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "hatsuon_run_duration_seconds",
			Help:    "Wall time of a pipeline run",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		}),
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hatsuon_stage_duration_seconds",
			Help:    "Wall time of each pipeline stage",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"stage"}),
		SynthesisAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hatsuon_synthesis_attempts_total",
			Help: "Synthesis backend attempts by backend and outcome",
		}, []string{"backend", "outcome"}),
		registry: reg,
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordRunStarted() {
	m.RunsStarted.Inc()
}

func (m *Metrics) RecordRunRejected() {
	m.RunsRejected.Inc()
}

// RecordRunFinished records the final stage; kind is empty for successful runs.
func (m *Metrics) RecordRunFinished(stage, kind string, d time.Duration) {
	m.RunsFinished.WithLabelValues(stage, kind).Inc()
	m.RunDuration.Observe(d.Seconds())
}

func (m *Metrics) RecordStage(stage string, d time.Duration) {
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) RecordSynthesisAttempt(backend, outcome string) {
	m.SynthesisAttempts.WithLabelValues(backend, outcome).Inc()
}
