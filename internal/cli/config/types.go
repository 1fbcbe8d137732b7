// Package config loads command-line configuration for rulesets.
//
// Project settings come from .ruleset/config.yaml and are shared with the
// compiler through core.ProjectConfig. The CLI adds its own settings on top
// (logging and output format) and lets environment variables and flags
// override both.
package config

import (
	"errors"
	"fmt"

	"github.com/rulesets-dev/rulesets/internal/cli/output"
	intconfig "github.com/rulesets-dev/rulesets/internal/config"
	"github.com/rulesets-dev/rulesets/internal/logging"
	"github.com/rulesets-dev/rulesets/pkg/core"
)

// CLI defaults.
const (
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"
	DefaultFormat    = "auto"
	EnvPrefix        = "RULESETS_"
)

// Config holds all CLI configuration options.
type Config struct {
	ProjectRoot string             `koanf:"-"`
	ConfigFile  string             `koanf:"-"` // empty when the project has no config file
	Project     core.ProjectConfig `koanf:"-"`

	LogLevel    string `koanf:"log_level"`
	LogFormat   string `koanf:"log_format"`
	Format      string `koanf:"format"`
	Concurrency int    `koanf:"concurrency"`
}

// Default returns the configuration used when nothing was loaded.
func Default() *Config {
	cfg := &Config{
		ProjectRoot: ".",
		LogLevel:    DefaultLogLevel,
		LogFormat:   DefaultLogFormat,
		Format:      DefaultFormat,
	}
	intconfig.ApplyDefaults(&cfg.Project)
	return cfg
}

// Logging returns the logger settings.
func (c *Config) Logging() logging.Config {
	return logging.Config{Level: c.LogLevel, Format: c.LogFormat}
}

// OutputMode returns the parsed output format.
func (c *Config) OutputMode() output.Mode {
	mode, err := output.ParseMode(c.Format)
	if err != nil {
		return output.ModeAuto
	}
	return mode
}

// Validate checks the CLI-specific settings.
func (c *Config) Validate() error {
	var errs []error
	if _, err := logging.GetLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if _, err := logging.GetFormat(c.LogFormat); err != nil {
		errs = append(errs, fmt.Errorf("log_format: %w", err))
	}
	if _, err := output.ParseMode(c.Format); err != nil {
		errs = append(errs, fmt.Errorf("format: %w", err))
	}
	if c.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("concurrency: must not be negative, got %d", c.Concurrency))
	}
	return errors.Join(errs...)
}
