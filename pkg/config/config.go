// Package config loads fsmodel settings from YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chazu/fsmodel/pkg/model"
)

// Config holds all fsmodel configuration.
type Config struct {
	Tolerances TolerancesConfig `yaml:"tolerances"`
	Logging    LoggingConfig    `yaml:"logging"`
	Engine     EngineConfig     `yaml:"engine"`
}

// TolerancesConfig configures the soft geometric checks.
type TolerancesConfig struct {
	BendRadius   float64 `yaml:"bend_radius"`    // absolute
	MaxBendAngle float64 `yaml:"max_bend_angle"` // degrees
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	JSON  bool   `yaml:"json"`
}

// EngineConfig configures script evaluation.
type EngineConfig struct {
	Timeout string `yaml:"timeout"` // Go duration
}

// Default returns the built-in configuration.
func Default() *Config {
	t := model.DefaultTolerances()
	return &Config{
		Tolerances: TolerancesConfig{BendRadius: t.BendRadius, MaxBendAngle: t.MaxBendAngle},
		Logging:    LoggingConfig{Level: "warn"},
		Engine:     EngineConfig{Timeout: "5s"},
	}
}

// Load loads configuration from a YAML file. Fields missing from the file
// keep their defaults; a missing file yields the defaults. Environment
// overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if level := os.Getenv("FSMODEL_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// ModelTolerances returns the tolerances in the form the model takes.
func (c *Config) ModelTolerances() model.Tolerances {
	return model.Tolerances{
		BendRadius:   c.Tolerances.BendRadius,
		MaxBendAngle: c.Tolerances.MaxBendAngle,
	}
}

// EngineTimeout returns the evaluation timeout as a duration.
func (c *Config) EngineTimeout() time.Duration {
	d, err := time.ParseDuration(c.Engine.Timeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// ValidLevels lists the accepted logging levels.
var ValidLevels = []string{"debug", "info", "warn", "error"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Tolerances.BendRadius <= 0 {
		return fmt.Errorf("tolerances.bend_radius must be positive, got %g", c.Tolerances.BendRadius)
	}
	if c.Tolerances.MaxBendAngle <= 0 || c.Tolerances.MaxBendAngle > 180 {
		return fmt.Errorf("tolerances.max_bend_angle must be in (0, 180], got %g", c.Tolerances.MaxBendAngle)
	}
	if !slices.Contains(ValidLevels, c.Logging.Level) {
		return fmt.Errorf("invalid logging level: %s (valid: %v)", c.Logging.Level, ValidLevels)
	}
	if _, err := time.ParseDuration(c.Engine.Timeout); err != nil {
		return fmt.Errorf("engine.timeout: %w", err)
	}
	return nil
}
