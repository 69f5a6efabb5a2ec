// Package config holds the run configuration for the chemevol CLI:
// which network to evolve, for how long, and under what tolerances.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDurationYr = 1e6
	DefaultInitStepYr = 1e-3
	DefaultTolerance  = 1e-4
	DefaultWallSec    = 3600.0
)

// Config is one evolution run. Times are in years; the driver works in
// seconds internally.
type Config struct {
	Network    string  `yaml:"network"`
	DurationYr float64 `yaml:"duration_yr"`
	InitStepYr float64 `yaml:"init_step_yr"`
	Tolerance  float64 `yaml:"tolerance"`
	WallSec    float64 `yaml:"wall_budget_sec"`
	Verbose    bool    `yaml:"verbose"`
	LogFormat  string  `yaml:"log_format"`
}

func DefaultConfig() *Config {
	return &Config{
		Network:    "ionization",
		DurationYr: DefaultDurationYr,
		InitStepYr: DefaultInitStepYr,
		Tolerance:  DefaultTolerance,
		WallSec:    DefaultWallSec,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.DurationYr < 0 {
		return fmt.Errorf("duration must be non-negative, got %g", c.DurationYr)
	}
	if c.InitStepYr <= 0 {
		return fmt.Errorf("initial step must be positive, got %g", c.InitStepYr)
	}
	if c.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive, got %g", c.Tolerance)
	}
	return nil
}
