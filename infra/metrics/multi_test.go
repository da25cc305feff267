package metrics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/nemflow/core/metrics"
)

type countingSink struct {
	stages int
	runs   int
	err    error
}

func (s *countingSink) RecordStage(coremetrics.StageEvent) error {
	s.stages++
	return s.err
}

func (s *countingSink) RecordRun(coremetrics.RunEvent) error {
	s.runs++
	return s.err
}

func TestMultiSinkFansOut(t *testing.T) {
	a, b := &countingSink{}, &countingSink{}
	m := NewMultiSink(a, b)
	require.NoError(t, m.RecordStage(coremetrics.StageEvent{Stage: "fetch"}))
	require.NoError(t, m.RecordRun(coremetrics.RunEvent{Outcome: "done"}))
	require.Equal(t, 1, a.stages)
	require.Equal(t, 1, b.stages)
	require.Equal(t, 1, a.runs)
	require.Equal(t, 1, b.runs)
}

func TestMultiSinkReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")
	a := &countingSink{err: boom}
	b := &countingSink{}
	m := NewMultiSink(a, b)
	require.ErrorIs(t, m.RecordRun(coremetrics.RunEvent{}), boom)
	require.Zero(t, b.runs)
}
