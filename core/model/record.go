package model

import "time"

// RawRecord is one ingested observation: total demand and air temperature for
// a NEM region at a half-hourly timestamp. Either measurement may be missing
// at this point; nil marks a value absent at the source.
type RawRecord struct {
	Timestamp   time.Time
	Region      string
	Demand      *float64
	Temperature *float64
	// Source names the collection or file the record came from.
	Source string
}

// CleanedRow is a RawRecord after missing-value handling and type
// normalization. Both measurements are concrete.
type CleanedRow struct {
	Timestamp   time.Time
	Region      string
	Demand      float64
	Temperature float64
}

// Field selects one measurement of a cleaned row.
type Field string

const (
	FieldDemand      Field = "demand"
	FieldTemperature Field = "temperature"
)

// Value returns the named measurement.
func (r CleanedRow) Value(f Field) (float64, bool) {
	switch f {
	case FieldDemand:
		return r.Demand, true
	case FieldTemperature:
		return r.Temperature, true
	default:
		return 0, false
	}
}

// FeatureRow is a CleanedRow augmented with derived columns. Derived values
// are positional and aligned with the derived column names of the table the
// row belongs to.
type FeatureRow struct {
	CleanedRow
	Derived []float64
}
