// Package pipeline orchestrates one batch feature-engineering run: fetch raw
// observations, clean them, derive feature columns and atomically replace the
// feature table at the sink. Stages run strictly in sequence; a failed run is
// terminal and must be restarted from scratch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/nemflow/core/clean"
	"github.com/kilianp07/nemflow/core/feature"
	"github.com/kilianp07/nemflow/core/logger"
	"github.com/kilianp07/nemflow/core/metrics"
	"github.com/kilianp07/nemflow/core/model"
	"github.com/kilianp07/nemflow/core/stats"
	"github.com/kilianp07/nemflow/internal/eventbus"
)

// State is the pipeline run state.
type State string

const (
	StateNotStarted State = "not_started"
	StateFetching   State = "fetching"
	StateCleaning   State = "cleaning"
	StateDeriving   State = "deriving"
	StateWriting    State = "writing"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// StateChange is broadcast on the event bus at every transition.
type StateChange struct {
	RunID  string
	Region string
	From   State
	To     State
	Time   time.Time
}

// Source materializes raw records from the configured origin in one attempt.
type Source interface {
	Fetch(ctx context.Context) ([]model.RawRecord, error)
}

// Sink atomically replaces the feature table at the configured destination.
type Sink interface {
	Write(ctx context.Context, table *model.FeatureTable) error
}

// RunConfig carries the run-level settings that do not belong to a stage.
type RunConfig struct {
	Region string
	// MinSurvival is the minimum fraction of raw rows that must survive
	// cleaning for the run to proceed.
	MinSurvival float64
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}

// Pipeline runs the fetch → clean → derive → write sequence.
type Pipeline struct {
	source  Source
	cleaner *clean.Cleaner
	deriver *feature.Deriver
	sink    Sink
	cfg     RunConfig
	msink   metrics.Sink
	bus     *eventbus.Bus[StateChange]
	log     logger.Logger

	state State
}

// New wires a Pipeline. The metrics sink, event bus and logger may be nil.
func New(source Source, cleaner *clean.Cleaner, deriver *feature.Deriver, sink Sink,
	cfg RunConfig, msink metrics.Sink, bus *eventbus.Bus[StateChange], log logger.Logger) (*Pipeline, error) {
	if source == nil || sink == nil {
		return nil, errors.New("pipeline needs a source and a sink")
	}
	if cleaner == nil || deriver == nil {
		return nil, errors.New("pipeline needs a cleaner and a deriver")
	}
	if cfg.MinSurvival < 0 || cfg.MinSurvival > 1 {
		return nil, fmt.Errorf("min survival %.2f outside [0,1]", cfg.MinSurvival)
	}
	if msink == nil {
		msink = metrics.NopSink{}
	}
	if log == nil {
		log = nopLogger{}
	}
	return &Pipeline{
		source:  source,
		cleaner: cleaner,
		deriver: deriver,
		sink:    sink,
		cfg:     cfg,
		msink:   msink,
		bus:     bus,
		log:     log,
		state:   StateNotStarted,
	}, nil
}

// State returns the current run state.
func (p *Pipeline) State() State { return p.state }

// Run executes one pipeline run and returns the written table. Any error is
// terminal; the sink keeps its pre-run content on failure.
func (p *Pipeline) Run(ctx context.Context) (*model.FeatureTable, error) {
	runID := uuid.NewString()
	start := time.Now()
	p.state = StateNotStarted
	p.log.Infof("run %s starting for region %s", runID, p.cfg.Region)

	fail := func(err error) (*model.FeatureTable, error) {
		p.transition(runID, StateFailed)
		p.recordRun(runID, start, 0, err)
		p.log.Errorf("run %s failed: %v", runID, err)
		return nil, err
	}

	p.transition(runID, StateFetching)
	stageStart := time.Now()
	records, err := p.source.Fetch(ctx)
	if err != nil {
		return fail(err)
	}
	p.recordStage(runID, "fetch", 0, len(records), stageStart)
	p.log.Debugw("fetched raw records", stats.Describe(records).Fields())

	p.transition(runID, StateCleaning)
	stageStart = time.Now()
	rows, cstats, err := p.cleaner.Apply(records)
	if err != nil {
		return fail(err)
	}
	if cstats.Survival() < p.cfg.MinSurvival {
		return fail(&InsufficientDataError{
			Kept:     cstats.Kept,
			Total:    cstats.In,
			Survived: cstats.Survival(),
			Required: p.cfg.MinSurvival,
		})
	}
	p.recordStage(runID, "clean", cstats.In, cstats.Kept, stageStart)
	p.log.Debugw("cleaned rows", map[string]any{
		"kept":               cstats.Kept,
		"dropped_missing":    cstats.DroppedMissing,
		"dropped_duplicate":  cstats.DroppedDuplicate,
		"filled_demand":      cstats.FilledDemand,
		"filled_temperature": cstats.FilledTemperature,
	})

	p.transition(runID, StateDeriving)
	stageStart = time.Now()
	featureRows, err := p.deriver.Apply(rows)
	if err != nil {
		return fail(err)
	}
	table := &model.FeatureTable{
		RunID:          runID,
		Region:         p.cfg.Region,
		GeneratedAt:    time.Now().UTC(),
		DerivedColumns: p.deriver.Columns(),
		Rows:           featureRows,
	}
	if err := table.Validate(); err != nil {
		return fail(fmt.Errorf("derived table invalid: %w", err))
	}
	p.recordStage(runID, "derive", len(rows), len(featureRows), stageStart)

	p.transition(runID, StateWriting)
	stageStart = time.Now()
	if err := p.sink.Write(ctx, table); err != nil {
		return fail(err)
	}
	p.recordStage(runID, "write", len(featureRows), len(featureRows), stageStart)

	p.transition(runID, StateDone)
	p.recordRun(runID, start, len(featureRows), nil)
	p.log.Infof("run %s done: %d rows, %d columns", runID, len(table.Rows), len(table.Columns()))
	return table, nil
}

func (p *Pipeline) transition(runID string, to State) {
	from := p.state
	p.state = to
	if p.bus != nil {
		p.bus.Publish(StateChange{RunID: runID, Region: p.cfg.Region, From: from, To: to, Time: time.Now()})
	}
}

func (p *Pipeline) recordStage(runID, stage string, in, out int, start time.Time) {
	ev := metrics.StageEvent{
		RunID:    runID,
		Region:   p.cfg.Region,
		Stage:    stage,
		RowsIn:   in,
		RowsOut:  out,
		Duration: time.Since(start),
		Time:     time.Now(),
	}
	if err := p.msink.RecordStage(ev); err != nil {
		p.log.Warnf("record stage %s: %v", stage, err)
	}
}

func (p *Pipeline) recordRun(runID string, start time.Time, rows int, runErr error) {
	ev := metrics.RunEvent{
		RunID:    runID,
		Region:   p.cfg.Region,
		Outcome:  "done",
		Rows:     rows,
		Duration: time.Since(start),
		Time:     time.Now(),
	}
	if runErr != nil {
		ev.Outcome = "failed"
		ev.FailureKind = FailureKind(runErr)
	}
	if err := p.msink.RecordRun(ev); err != nil {
		p.log.Warnf("record run: %v", err)
	}
}
