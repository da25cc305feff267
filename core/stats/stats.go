// Package stats computes summary statistics over raw observations, logged
// after the fetch stage so a failed run can be diagnosed against its input.
package stats

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/nemflow/core/model"
)

// Summary describes one measurement field of a record batch.
type Summary struct {
	Count int
	Nulls int
	Min   float64
	Max   float64
	Mean  float64
	Std   float64
}

// Description covers a whole batch: per-field summaries plus the time span.
type Description struct {
	Rows        int
	First, Last time.Time
	Demand      Summary
	Temperature Summary
}

// Describe summarizes a raw record batch.
func Describe(records []model.RawRecord) Description {
	desc := Description{Rows: len(records)}
	var demand, temp []float64
	for i, rec := range records {
		if i == 0 || rec.Timestamp.Before(desc.First) {
			desc.First = rec.Timestamp
		}
		if i == 0 || rec.Timestamp.After(desc.Last) {
			desc.Last = rec.Timestamp
		}
		if rec.Demand != nil {
			demand = append(demand, *rec.Demand)
		}
		if rec.Temperature != nil {
			temp = append(temp, *rec.Temperature)
		}
	}
	desc.Demand = summarize(demand, len(records))
	desc.Temperature = summarize(temp, len(records))
	return desc
}

// Fields renders the description as structured logging fields.
func (d Description) Fields() map[string]any {
	return map[string]any{
		"rows":             d.Rows,
		"first":            d.First,
		"last":             d.Last,
		"demand_mean":      d.Demand.Mean,
		"demand_std":       d.Demand.Std,
		"demand_min":       d.Demand.Min,
		"demand_max":       d.Demand.Max,
		"demand_nulls":     d.Demand.Nulls,
		"temperature_mean": d.Temperature.Mean,
		"temperature_std":  d.Temperature.Std,
		"temperature_min":  d.Temperature.Min,
		"temperature_max":  d.Temperature.Max,
		"temperature_nulls": d.Temperature.Nulls,
	}
}

func summarize(values []float64, total int) Summary {
	s := Summary{Count: len(values), Nulls: total - len(values)}
	if len(values) == 0 {
		s.Min, s.Max, s.Mean, s.Std = math.NaN(), math.NaN(), math.NaN(), math.NaN()
		return s
	}
	s.Min, s.Max = values[0], values[0]
	for _, v := range values[1:] {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.Mean = stat.Mean(values, nil)
	if len(values) > 1 {
		s.Std = stat.StdDev(values, nil)
	}
	return s
}
