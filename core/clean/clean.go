// Package clean normalizes raw observations into a time-ordered sequence of
// cleaned rows. Each measurement field carries its own missing-value policy.
package clean

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/nemflow/core/model"
)

// Policy names a missing-value strategy for one field.
type Policy string

const (
	// PolicyDrop removes the row when the field is missing.
	PolicyDrop Policy = "drop"
	// PolicyFFill carries the last seen value forward. Rows before the first
	// seen value are dropped.
	PolicyFFill Policy = "ffill"
	// PolicyDefault substitutes a configured constant.
	PolicyDefault Policy = "default"
	// PolicyMean substitutes the mean of the present values of the field.
	PolicyMean Policy = "mean"
)

// FieldRule binds a policy to one field.
type FieldRule struct {
	Policy  Policy
	Default float64
}

// Config holds the per-field rules.
type Config struct {
	Demand      FieldRule
	Temperature FieldRule
}

// Stats summarizes what cleaning did to the input.
type Stats struct {
	In                int
	Kept              int
	DroppedMissing    int
	DroppedDuplicate  int
	FilledDemand      int
	FilledTemperature int
}

// Survival is the fraction of input rows that survived cleaning.
func (s Stats) Survival() float64 {
	if s.In == 0 {
		return 0
	}
	return float64(s.Kept) / float64(s.In)
}

// Cleaner applies the configured per-field policies.
type Cleaner struct {
	cfg Config
}

// New validates the configuration and returns a Cleaner.
func New(cfg Config) (*Cleaner, error) {
	for _, rule := range []FieldRule{cfg.Demand, cfg.Temperature} {
		switch rule.Policy {
		case PolicyDrop, PolicyFFill, PolicyDefault, PolicyMean:
		default:
			return nil, fmt.Errorf("unknown cleaning policy %q", rule.Policy)
		}
	}
	return &Cleaner{cfg: cfg}, nil
}

// Apply sorts the records by timestamp, drops duplicate timestamps (first
// occurrence wins) and resolves missing values per field policy. The returned
// rows preserve time order.
func (c *Cleaner) Apply(records []model.RawRecord) ([]model.CleanedRow, Stats, error) {
	stats := Stats{In: len(records)}

	sorted := make([]model.RawRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	deduped := sorted[:0]
	for i, rec := range sorted {
		if i > 0 && rec.Timestamp.Equal(deduped[len(deduped)-1].Timestamp) {
			stats.DroppedDuplicate++
			continue
		}
		deduped = append(deduped, rec)
	}

	demandMean := fieldMean(deduped, func(r model.RawRecord) *float64 { return r.Demand })
	tempMean := fieldMean(deduped, func(r model.RawRecord) *float64 { return r.Temperature })

	rows := make([]model.CleanedRow, 0, len(deduped))
	var lastDemand, lastTemp *float64
	for _, rec := range deduped {
		demand, filledD, ok := resolve(rec.Demand, c.cfg.Demand, lastDemand, demandMean)
		if !ok {
			stats.DroppedMissing++
			continue
		}
		temp, filledT, ok := resolve(rec.Temperature, c.cfg.Temperature, lastTemp, tempMean)
		if !ok {
			stats.DroppedMissing++
			continue
		}
		if filledD {
			stats.FilledDemand++
		}
		if filledT {
			stats.FilledTemperature++
		}
		lastDemand, lastTemp = &demand, &temp
		rows = append(rows, model.CleanedRow{
			Timestamp:   rec.Timestamp,
			Region:      rec.Region,
			Demand:      demand,
			Temperature: temp,
		})
	}
	stats.Kept = len(rows)
	return rows, stats, nil
}

// resolve returns the value for one field, whether it was filled, and whether
// the row survives.
func resolve(v *float64, rule FieldRule, last *float64, mean float64) (float64, bool, bool) {
	if v != nil {
		return *v, false, true
	}
	switch rule.Policy {
	case PolicyFFill:
		if last == nil {
			return 0, false, false
		}
		return *last, true, true
	case PolicyDefault:
		return rule.Default, true, true
	case PolicyMean:
		return mean, true, true
	default:
		return 0, false, false
	}
}

func fieldMean(records []model.RawRecord, get func(model.RawRecord) *float64) float64 {
	var present []float64
	for _, rec := range records {
		if v := get(rec); v != nil {
			present = append(present, *v)
		}
	}
	if len(present) == 0 {
		return 0
	}
	return stat.Mean(present, nil)
}
