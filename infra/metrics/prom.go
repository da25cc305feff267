package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/nemflow/core/metrics"
)

// PromSink records pipeline events in Prometheus metrics.
type PromSink struct {
	rows     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
}

// NewPromSink registers pipeline metrics on the provided Prometheus
// registerer. If reg is nil, the default registerer is used. If the
// collectors are already registered, the existing ones are reused.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	rows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nemflow_stage_rows_total",
		Help: "Rows entering and leaving each pipeline stage",
	}, []string{"stage", "direction"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nemflow_stage_duration_seconds",
		Help:    "Wall time spent in each pipeline stage",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nemflow_runs_total",
		Help: "Completed pipeline runs by outcome",
	}, []string{"outcome", "failure_kind"})

	if err := reg.Register(rows); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			rows = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			duration = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(runs); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			runs = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{rows: rows, duration: duration, runs: runs}, nil
}

// RecordStage updates the per-stage counters and histograms.
func (s *PromSink) RecordStage(ev coremetrics.StageEvent) error {
	s.rows.WithLabelValues(ev.Stage, "in").Add(float64(ev.RowsIn))
	s.rows.WithLabelValues(ev.Stage, "out").Add(float64(ev.RowsOut))
	s.duration.WithLabelValues(ev.Stage).Observe(ev.Duration.Seconds())
	return nil
}

// RecordRun counts the run by outcome.
func (s *PromSink) RecordRun(ev coremetrics.RunEvent) error {
	s.runs.WithLabelValues(ev.Outcome, ev.FailureKind).Inc()
	return nil
}
