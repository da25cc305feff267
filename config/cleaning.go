package config

import (
	"fmt"

	"github.com/kilianp07/nemflow/core/clean"
)

// FieldPolicy configures missing-value handling for one field.
type FieldPolicy struct {
	// Policy is one of "drop", "ffill", "default" or "mean".
	Policy string `json:"policy"`
	// Default is the substitute value for the "default" policy.
	Default float64 `json:"default"`
}

// CleaningConfig holds the per-field cleaning rules.
type CleaningConfig struct {
	Demand      FieldPolicy `json:"demand"`
	Temperature FieldPolicy `json:"temperature"`
	// MinSurvival is the minimum fraction of raw rows that must survive
	// cleaning; below it the run fails with insufficient data. A pointer so
	// an explicit 0 is distinguishable from an unset field.
	MinSurvival *float64 `json:"min_survival"`
}

// SetDefaults applies sane defaults: demand rows are required, temperature
// gaps are forward-filled.
func (c *CleaningConfig) SetDefaults() {
	if c.Demand.Policy == "" {
		c.Demand.Policy = string(clean.PolicyDrop)
	}
	if c.Temperature.Policy == "" {
		c.Temperature.Policy = string(clean.PolicyFFill)
	}
	if c.MinSurvival == nil {
		survival := 0.8
		c.MinSurvival = &survival
	}
}

// Validate checks the policies and the survival threshold.
func (c CleaningConfig) Validate() error {
	if c.MinSurvival != nil && (*c.MinSurvival < 0 || *c.MinSurvival > 1) {
		return fmt.Errorf("cleaning: min_survival %.2f outside [0,1]", *c.MinSurvival)
	}
	if _, err := clean.New(c.CleanConfig()); err != nil {
		return fmt.Errorf("cleaning: %w", err)
	}
	return nil
}

// CleanConfig maps to the cleaning stage configuration.
func (c CleaningConfig) CleanConfig() clean.Config {
	return clean.Config{
		Demand:      clean.FieldRule{Policy: clean.Policy(c.Demand.Policy), Default: c.Demand.Default},
		Temperature: clean.FieldRule{Policy: clean.Policy(c.Temperature.Policy), Default: c.Temperature.Default},
	}
}
