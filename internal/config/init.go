package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/pydevdocs/internal/classify"
	"git.home.luguber.info/inful/pydevdocs/internal/filters"
	"git.home.luguber.info/inful/pydevdocs/internal/templates"
)

const initHeader = `# pydevdocs configuration.
# ${VAR} references are expanded from the environment and .env files.
`

// Example returns the configuration written by Init.
func Example() *Config {
	collapsible := true
	return &Config{
		Version: Version,
		Project: ProjectConfig{Name: "My Monorepo", Title: DefaultTitle},
		Sources: []SourceConfig{
			{Name: "core", Path: "./packages/core/src", Exclude: []string{"tests", "test_*.py"}},
		},
		Output: OutputConfig{Directory: DefaultOutputDirectory, PagePattern: templates.DefaultPagePattern},
		Render: RenderConfig{
			Collapsible:    &collapsible,
			MatchMode:      classify.MatchExact,
			TruncateLength: filters.DefaultTruncateLength,
			Workers:        4,
		},
		State:   StateConfig{Path: DefaultStatePath},
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
		Watch:   WatchConfig{Debounce: defaultDebounce.String()},
	}
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}
	data, err := yaml.Marshal(Example())
	if err != nil {
		return fmt.Errorf("failed to marshal example config: %w", err)
	}
	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	// #nosec G306 -- configuration contains no secrets, only ${VAR} references.
	if err := os.WriteFile(configPath, append([]byte(initHeader), data...), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
