package metrics

import coremetrics "github.com/kilianp07/nemflow/core/metrics"

// MultiSink fans pipeline events out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordStage forwards the event to all sinks, returning the first error.
func (m *MultiSink) RecordStage(ev coremetrics.StageEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordStage(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordRun forwards the event to all sinks, returning the first error.
func (m *MultiSink) RecordRun(ev coremetrics.RunEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordRun(ev); err != nil {
			return err
		}
	}
	return nil
}
