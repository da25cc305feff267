package config

import (
	"fmt"

	"github.com/kilianp07/nemflow/core/feature"
	"github.com/kilianp07/nemflow/core/model"
)

// WindowedSpec declares one windowed derived column.
type WindowedSpec struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Field  string `json:"field"`
	Window int    `json:"window"`
}

// FeaturesConfig selects the derived columns.
type FeaturesConfig struct {
	Calendar []string       `json:"calendar"`
	Windowed []WindowedSpec `json:"windowed"`
	// OnIncomplete controls rows whose windows reach before the start of the
	// series: "sentinel" keeps them with NaN markers, "drop" removes them.
	OnIncomplete string `json:"on_incomplete"`
}

// SetDefaults selects every calendar feature and the sentinel policy.
func (c *FeaturesConfig) SetDefaults() {
	if c.Calendar == nil {
		c.Calendar = append([]string(nil), feature.AllCalendar...)
	}
	if c.OnIncomplete == "" {
		c.OnIncomplete = string(feature.IncompleteSentinel)
	}
}

// Validate delegates to the derivation stage constructor, which knows the
// full rules. The region is checked by SourceConfig; NSW stands in here.
func (c FeaturesConfig) Validate() error {
	if _, err := feature.New(c.FeatureConfig("NSW")); err != nil {
		return fmt.Errorf("features: %w", err)
	}
	return nil
}

// FeatureConfig maps to the derivation stage configuration.
func (c FeaturesConfig) FeatureConfig(region string) feature.Config {
	specs := make([]feature.Spec, len(c.Windowed))
	for i, w := range c.Windowed {
		specs[i] = feature.Spec{
			Name:   w.Name,
			Type:   w.Type,
			Field:  model.Field(w.Field),
			Window: w.Window,
		}
	}
	return feature.Config{
		Region:       region,
		Calendar:     c.Calendar,
		Windowed:     specs,
		OnIncomplete: feature.IncompletePolicy(c.OnIncomplete),
	}
}
