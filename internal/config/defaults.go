package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/pydevdocs/internal/classify"
	"git.home.luguber.info/inful/pydevdocs/internal/filters"
	"git.home.luguber.info/inful/pydevdocs/internal/templates"
)

// Default values applied to omitted fields.
const (
	DefaultTitle           = "API Reference"
	DefaultOutputDirectory = "./docs/api"
	DefaultStatePath       = ".pydevdocs/state.db"
	defaultDebounce        = 300 * time.Millisecond
)

// DefaultApplier applies defaults for one configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

type projectDefaults struct{}

func (projectDefaults) Domain() string { return "project" }

func (projectDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Project.Title == "" {
		cfg.Project.Title = DefaultTitle
	}
	for i := range cfg.Sources {
		s := &cfg.Sources[i]
		if s.Name != "" {
			continue
		}
		src := s.Path
		if src == "" {
			src = s.Dump
		}
		s.Name = strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	}
	return nil
}

type outputDefaults struct{}

func (outputDefaults) Domain() string { return "output" }

func (outputDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = DefaultOutputDirectory
	}
	if strings.TrimSpace(cfg.Output.PagePattern) == "" {
		cfg.Output.PagePattern = templates.DefaultPagePattern
	}
	if cfg.State.Path == "" {
		cfg.State.Path = DefaultStatePath
	}
	return nil
}

type renderDefaults struct{}

func (renderDefaults) Domain() string { return "render" }

func (renderDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Render.MatchMode == "" {
		cfg.Render.MatchMode = classify.MatchExact
	}
	if cfg.Render.TruncateLength == 0 {
		cfg.Render.TruncateLength = filters.DefaultTruncateLength
	}
	if cfg.Render.Collapsible == nil {
		enabled := true
		cfg.Render.Collapsible = &enabled
	}
	return nil
}

type runtimeDefaults struct{}

func (runtimeDefaults) Domain() string { return "runtime" }

func (runtimeDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = defaultDebounce.String()
	}
	return nil
}

// defaultAppliers run in order; later domains may rely on earlier ones.
var defaultAppliers = []DefaultApplier{projectDefaults{}, outputDefaults{}, renderDefaults{}, runtimeDefaults{}}

func applyDefaults(cfg *Config) error {
	for _, a := range defaultAppliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return fmt.Errorf("%s: %w", a.Domain(), err)
		}
	}
	return nil
}
