package feature

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/nemflow/core/model"
)

// Apply derives all configured columns over the time-ordered input. With the
// sentinel policy the output has the same length as the input and
// incomplete-window values are NaN; with the drop policy the first maxWindow
// rows are removed instead.
func (d *Deriver) Apply(rows []model.CleanedRow) ([]model.FeatureRow, error) {
	series := map[model.Field][]float64{
		model.FieldDemand:      make([]float64, len(rows)),
		model.FieldTemperature: make([]float64, len(rows)),
	}
	for i, row := range rows {
		series[model.FieldDemand][i] = row.Demand
		series[model.FieldTemperature][i] = row.Temperature
	}

	out := make([]model.FeatureRow, 0, len(rows))
	for i, row := range rows {
		derived := make([]float64, 0, len(d.calendar)+len(d.windowed))
		for _, name := range d.calendar {
			derived = append(derived, d.calendarValue(name, row.Timestamp))
		}
		for _, spec := range d.windowed {
			derived = append(derived, windowValue(spec, series[spec.Field], i))
		}
		out = append(out, model.FeatureRow{CleanedRow: row, Derived: derived})
	}

	if d.onIncomplete == IncompleteDrop {
		if lead := d.maxWindow(); lead < len(out) {
			out = out[lead:]
		} else if lead > 0 {
			out = out[:0]
		}
	}
	return out, nil
}

// windowValue computes one windowed transform at index i, or NaN when the
// window reaches before the start of the series.
func windowValue(spec Spec, values []float64, i int) float64 {
	if i < spec.Window {
		return math.NaN()
	}
	switch spec.Type {
	case TypeLag:
		return values[i-spec.Window]
	case TypeRollingMean:
		return stat.Mean(values[i-spec.Window:i], nil)
	}
	return math.NaN()
}
