package model

import (
	"fmt"
	"time"
)

// Base columns every feature table starts with, in persisted order.
var BaseColumns = []string{"timestamp", "region", "demand", "temperature"}

// FeatureTable is the complete ordered output of one pipeline run. Rows are
// sorted by strictly increasing timestamp and the derived values of every row
// are aligned with DerivedColumns.
type FeatureTable struct {
	RunID          string
	Region         string
	GeneratedAt    time.Time
	DerivedColumns []string
	Rows           []FeatureRow
}

// Columns returns the full persisted column list.
func (t *FeatureTable) Columns() []string {
	cols := make([]string, 0, len(BaseColumns)+len(t.DerivedColumns))
	cols = append(cols, BaseColumns...)
	return append(cols, t.DerivedColumns...)
}

// Validate checks the table invariants: strictly increasing timestamps, no
// duplicates, and a consistent derived-column width on every row.
func (t *FeatureTable) Validate() error {
	for i, row := range t.Rows {
		if len(row.Derived) != len(t.DerivedColumns) {
			return fmt.Errorf("row %d: %d derived values for %d columns", i, len(row.Derived), len(t.DerivedColumns))
		}
		if i == 0 {
			continue
		}
		prev := t.Rows[i-1].Timestamp
		if !row.Timestamp.After(prev) {
			return fmt.Errorf("row %d: timestamp %s not after %s", i, row.Timestamp, prev)
		}
	}
	return nil
}
