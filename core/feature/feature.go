// Package feature derives calendar and windowed columns from a time-ordered
// sequence of cleaned rows.
package feature

import (
	"fmt"
	"time"

	"github.com/rickar/cal/v2"

	"github.com/kilianp07/nemflow/core/model"
)

// Windowed transform types.
const (
	TypeLag         = "lag"
	TypeRollingMean = "rolling_mean"
)

// IncompletePolicy controls rows whose windowed transforms reach before the
// start of the series.
type IncompletePolicy string

const (
	// IncompleteSentinel keeps the rows and marks unavailable values NaN.
	IncompleteSentinel IncompletePolicy = "sentinel"
	// IncompleteDrop removes the rows entirely.
	IncompleteDrop IncompletePolicy = "drop"
)

// Spec declares one windowed transform.
type Spec struct {
	Name   string
	Type   string
	Field  model.Field
	Window int
}

// Config selects the derived columns for a run.
type Config struct {
	Region       string
	Calendar     []string
	Windowed     []Spec
	OnIncomplete IncompletePolicy
}

// Deriver computes the configured derived columns.
type Deriver struct {
	region       Region
	loc          *time.Location
	holidays     *cal.Calendar
	calendar     []string
	windowed     []Spec
	onIncomplete IncompletePolicy
}

// New validates the configuration and returns a Deriver. Public holidays
// follow the region's state calendar.
func New(cfg Config) (*Deriver, error) {
	region, err := RegionByCode(cfg.Region)
	if err != nil {
		return nil, err
	}
	loc, err := region.Location()
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", region.Timezone, err)
	}

	known := make(map[string]bool, len(AllCalendar))
	for _, name := range AllCalendar {
		known[name] = true
	}
	seen := make(map[string]bool)
	for _, name := range cfg.Calendar {
		if !known[name] {
			return nil, fmt.Errorf("unknown calendar feature %q", name)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate calendar feature %q", name)
		}
		seen[name] = true
	}
	for _, spec := range cfg.Windowed {
		if spec.Name == "" {
			return nil, fmt.Errorf("windowed feature needs a name")
		}
		if seen[spec.Name] {
			return nil, fmt.Errorf("duplicate feature column %q", spec.Name)
		}
		seen[spec.Name] = true
		if spec.Type != TypeLag && spec.Type != TypeRollingMean {
			return nil, fmt.Errorf("feature %s: unknown type %q", spec.Name, spec.Type)
		}
		if spec.Field != model.FieldDemand && spec.Field != model.FieldTemperature {
			return nil, fmt.Errorf("feature %s: unknown field %q", spec.Name, spec.Field)
		}
		if spec.Window < 1 {
			return nil, fmt.Errorf("feature %s: window must be >= 1", spec.Name)
		}
	}
	switch cfg.OnIncomplete {
	case IncompleteSentinel, IncompleteDrop:
	default:
		return nil, fmt.Errorf("unknown incomplete-window policy %q", cfg.OnIncomplete)
	}

	holidays := &cal.Calendar{Name: "AU/" + region.Code}
	holidays.AddHoliday(region.Holidays...)

	return &Deriver{
		region:       region,
		loc:          loc,
		holidays:     holidays,
		calendar:     cfg.Calendar,
		windowed:     cfg.Windowed,
		onIncomplete: cfg.OnIncomplete,
	}, nil
}

// Columns returns the derived column names in persisted order: calendar
// features first, then windowed features, both in configuration order.
func (d *Deriver) Columns() []string {
	cols := make([]string, 0, len(d.calendar)+len(d.windowed))
	cols = append(cols, d.calendar...)
	for _, spec := range d.windowed {
		cols = append(cols, spec.Name)
	}
	return cols
}

// maxWindow is the largest window among the configured transforms.
func (d *Deriver) maxWindow() int {
	max := 0
	for _, spec := range d.windowed {
		if spec.Window > max {
			max = spec.Window
		}
	}
	return max
}
