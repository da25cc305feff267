package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/nemflow/infra/metrics"
	"github.com/kilianp07/nemflow/infra/mqtt"
)

type Config struct {
	Source   SourceConfig   `json:"source"`
	Cleaning CleaningConfig `json:"cleaning"`
	Features FeaturesConfig `json:"features"`
	Sink     SinkConfig     `json:"sink"`
	Metrics  metrics.Config `json:"metrics"`
	Notifier mqtt.Config    `json:"notifier"`
	Logging  LoggingConfig  `json:"logging"`
}

// Load reads the configuration file and applies NEMFLOW_-prefixed environment
// overrides (credentials are expected to arrive that way).
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("NEMFLOW_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "nemflow_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Source.SetDefaults()
	cfg.Cleaning.SetDefaults()
	cfg.Features.SetDefaults()
	cfg.Sink.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.Notifier.SetDefaults()
	cfg.Logging.SetDefaults()
	if err := cfg.Source.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Cleaning.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Features.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Sink.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Notifier.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Logging.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
