package config

import "fmt"

// SinkConfig identifies where the feature table is written.
type SinkConfig struct {
	// Kind selects the writer: "mongo" or "file".
	Kind string `json:"kind"`
	// Path is the CSV destination for the file writer.
	Path string `json:"path"`
	// URI is the connection string for the mongo writer.
	URI        string `json:"uri"`
	Database   string `json:"database"`
	Collection string `json:"collection"`
}

// SetDefaults applies the upstream collection layout.
func (c *SinkConfig) SetDefaults() {
	if c.Database == "" {
		c.Database = "data"
	}
	if c.Collection == "" {
		c.Collection = "features"
	}
}

// Validate checks mandatory fields.
func (c SinkConfig) Validate() error {
	switch c.Kind {
	case KindMongo:
		if c.URI == "" {
			return fmt.Errorf("sink: uri is required for mongo")
		}
	case KindFile:
		if c.Path == "" {
			return fmt.Errorf("sink: path is required for file")
		}
	default:
		return fmt.Errorf("sink: unknown kind %q", c.Kind)
	}
	return nil
}
