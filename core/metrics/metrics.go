package metrics

import "time"

// StageEvent captures the outcome of one pipeline stage.
type StageEvent struct {
	RunID    string
	Region   string
	Stage    string
	RowsIn   int
	RowsOut  int
	Duration time.Duration
	Time     time.Time
}

// RunEvent captures the outcome of a whole pipeline run.
type RunEvent struct {
	RunID       string
	Region      string
	Outcome     string // "done" or "failed"
	FailureKind string // empty on success
	Rows        int
	Duration    time.Duration
	Time        time.Time
}

// Sink records pipeline events for observability purposes.
type Sink interface {
	RecordStage(ev StageEvent) error
	RecordRun(ev RunEvent) error
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordStage(StageEvent) error { return nil }
func (NopSink) RecordRun(RunEvent) error     { return nil }
