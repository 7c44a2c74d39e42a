// Package config loads and validates the pydevdocs configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/pydevdocs/internal/classify"
	ferrors "git.home.luguber.info/inful/pydevdocs/internal/foundation/errors"
)

// Version is the only supported configuration version.
const Version = "1.0"

// DefaultFile is the configuration file used when none is given.
const DefaultFile = "pydevdocs.yaml"

// Config is the root of the configuration file.
type Config struct {
	Version   string          `yaml:"version"`
	Project   ProjectConfig   `yaml:"project"`
	Sources   []SourceConfig  `yaml:"sources"`
	Output    OutputConfig    `yaml:"output"`
	Render    RenderConfig    `yaml:"render"`
	Templates TemplatesConfig `yaml:"templates,omitempty"`
	State     StateConfig     `yaml:"state"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics,omitempty"`
	Watch     WatchConfig     `yaml:"watch,omitempty"`
}

// ProjectConfig names the documented project.
type ProjectConfig struct {
	Name        string `yaml:"name"`
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
}

// SourceConfig is one Python source root. Exactly one of Path and Dump is set.
type SourceConfig struct {
	Name string `yaml:"name"`
	// Path is a package directory, a module file or a directory of packages.
	Path string `yaml:"path,omitempty"`
	// Dump is a JSON or YAML entity dump used instead of scanning Path.
	Dump    string   `yaml:"dump,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
}

// OutputConfig controls where pages are written.
type OutputConfig struct {
	Directory   string `yaml:"directory"`
	Clean       bool   `yaml:"clean"`
	PagePattern string `yaml:"page_pattern,omitempty"`
}

// RenderConfig selects rendering features.
type RenderConfig struct {
	Diagrams bool `yaml:"diagrams"`
	// Collapsible defaults to true when omitted.
	Collapsible    *bool              `yaml:"collapsible,omitempty"`
	MatchMode      classify.MatchMode `yaml:"match_mode"`
	TruncateLength int                `yaml:"truncate_length"`
	// Workers bounds parallel rendering; 0 uses all CPUs.
	Workers int `yaml:"workers"`
}

// CollapsibleEnabled reports whether private members go into dropdowns.
func (r RenderConfig) CollapsibleEnabled() bool {
	return r.Collapsible == nil || *r.Collapsible
}

// TemplatesConfig points at a directory of template overrides.
type TemplatesConfig struct {
	Directory string `yaml:"directory,omitempty"`
}

// StateConfig locates the state database.
type StateConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig selects the log level and handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// MetricsConfig controls metrics export.
type MetricsConfig struct {
	// Textfile receives the Prometheus text exposition after every build.
	Textfile string `yaml:"textfile,omitempty"`
	// Listen serves /metrics while watching, e.g. ":9102".
	Listen string `yaml:"listen,omitempty"`
}

// WatchConfig tunes watch mode.
type WatchConfig struct {
	Debounce string `yaml:"debounce,omitempty"`
}

// DebounceDuration returns the parsed debounce interval. Load has already
// validated it.
func (w WatchConfig) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(w.Debounce)
	if err != nil {
		return defaultDebounce
	}
	return d
}

// Load reads, normalizes, defaults and validates the configuration at path.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "Note: %v\n", err)
	}

	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ferrors.ConfigError("configuration file not found").
			WithContext("path", configPath).
			WithHint("run 'pydevdocs init' to create %s", configPath).Build()
	}
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "read configuration").
			WithContext("path", configPath).Build()
	}
	cfg, warnings, err := Parse(data)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid configuration").
			WithContext("path", configPath).UserAction().Build()
	}
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "config normalization: %s\n", w)
	}
	return cfg, nil
}

// Parse decodes a configuration document after expanding ${VAR} references
// and returns the normalization warnings.
func Parse(data []byte) (*Config, []string, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Version != Version {
		return nil, nil, fmt.Errorf("unsupported configuration version: %q (expected %s)", cfg.Version, Version)
	}

	res, err := NormalizeConfig(&cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("normalize: %w", err)
	}
	if err := applyDefaults(&cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	if err := ValidateConfig(&cfg); err != nil {
		return nil, nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, res.Warnings, nil
}
