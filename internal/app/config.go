package app

import "errors"

// Config holds everything an App instance needs to run.
type Config struct {
	ConfigPaths []string // hcl files or directories

	OutputDir string
	LogFile   string
	LogFormat string
	LogLevel  string
	Progress  bool
}

// NewConfig validates a Config and applies fallbacks.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.ConfigPaths) == 0 {
		return nil, errors.New("at least one configuration path is required")
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "out"
	}
	return &cfg, nil
}
