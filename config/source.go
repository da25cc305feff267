package config

import (
	"fmt"

	"github.com/kilianp07/nemflow/core/feature"
)

// Source kinds.
const (
	KindMongo = "mongo"
	KindFile  = "file"
)

// SourceConfig identifies where raw observations come from. A run covers a
// single NEM region.
type SourceConfig struct {
	// Kind selects the connector: "mongo" or "file".
	Kind string `json:"kind"`
	// Path is the CSV file location for the file connector.
	Path string `json:"path"`
	// URI is the connection string for the mongo connector.
	URI                   string `json:"uri"`
	Database              string `json:"database"`
	DemandCollection      string `json:"demand_collection"`
	TemperatureCollection string `json:"temperature_collection"`
	// Region is the NEM region code (NSW, QLD, SA, VIC).
	Region string `json:"region"`
}

// SetDefaults applies the upstream collection layout.
func (c *SourceConfig) SetDefaults() {
	if c.Database == "" {
		c.Database = "data"
	}
	if c.DemandCollection == "" {
		c.DemandCollection = "total_demand"
	}
	if c.TemperatureCollection == "" {
		c.TemperatureCollection = "temperature"
	}
}

// Validate checks mandatory fields.
func (c SourceConfig) Validate() error {
	switch c.Kind {
	case KindMongo:
		if c.URI == "" {
			return fmt.Errorf("source: uri is required for mongo")
		}
	case KindFile:
		if c.Path == "" {
			return fmt.Errorf("source: path is required for file")
		}
	default:
		return fmt.Errorf("source: unknown kind %q", c.Kind)
	}
	if _, err := feature.RegionByCode(c.Region); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	return nil
}
