package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func row(ts time.Time, derived ...float64) FeatureRow {
	return FeatureRow{
		CleanedRow: CleanedRow{Timestamp: ts, Region: "NSW", Demand: 7000, Temperature: 21},
		Derived:    derived,
	}
}

func TestTableValidate(t *testing.T) {
	base := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	tbl := &FeatureTable{
		Region:         "NSW",
		DerivedColumns: []string{"lag1_demand"},
		Rows: []FeatureRow{
			row(base, 1),
			row(base.Add(30*time.Minute), 2),
		},
	}
	require.NoError(t, tbl.Validate())
	require.Equal(t, []string{"timestamp", "region", "demand", "temperature", "lag1_demand"}, tbl.Columns())
}

func TestTableValidateRejectsDuplicateTimestamps(t *testing.T) {
	base := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	tbl := &FeatureTable{Rows: []FeatureRow{row(base), row(base)}}
	require.Error(t, tbl.Validate())
}

func TestTableValidateRejectsUnorderedTimestamps(t *testing.T) {
	base := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	tbl := &FeatureTable{Rows: []FeatureRow{row(base.Add(time.Hour)), row(base)}}
	require.Error(t, tbl.Validate())
}

func TestTableValidateRejectsRaggedDerived(t *testing.T) {
	base := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	tbl := &FeatureTable{DerivedColumns: []string{"a", "b"}, Rows: []FeatureRow{row(base, 1)}}
	require.Error(t, tbl.Validate())
}

func TestCleanedRowValue(t *testing.T) {
	r := CleanedRow{Demand: 7000, Temperature: 21}
	v, ok := r.Value(FieldDemand)
	require.True(t, ok)
	require.Equal(t, 7000.0, v)
	v, ok = r.Value(FieldTemperature)
	require.True(t, ok)
	require.Equal(t, 21.0, v)
	_, ok = r.Value(Field("voltage"))
	require.False(t, ok)
}
