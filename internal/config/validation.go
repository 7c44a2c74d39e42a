package config

import (
	"errors"
	"fmt"
	"time"

	"git.home.luguber.info/inful/pydevdocs/internal/templates"
)

// maxWorkers bounds render.workers.
const maxWorkers = 256

// ValidateConfig validates a normalized and defaulted configuration.
func ValidateConfig(cfg *Config) error {
	v := &configurationValidator{config: cfg}
	return v.validate()
}

type configurationValidator struct {
	config *Config
}

func (cv *configurationValidator) validate() error {
	if err := cv.validateSources(); err != nil {
		return err
	}
	if err := cv.validateOutput(); err != nil {
		return err
	}
	if err := cv.validateRender(); err != nil {
		return err
	}
	return cv.validateWatch()
}

func (cv *configurationValidator) validateSources() error {
	if len(cv.config.Sources) == 0 {
		return errors.New("at least one source must be configured")
	}
	seen := make(map[string]struct{}, len(cv.config.Sources))
	for i, s := range cv.config.Sources {
		switch {
		case s.Path == "" && s.Dump == "":
			return fmt.Errorf("sources[%d]: one of path or dump is required", i)
		case s.Path != "" && s.Dump != "":
			return fmt.Errorf("sources[%d]: path and dump are mutually exclusive", i)
		case s.Name == "":
			return fmt.Errorf("sources[%d]: name is required", i)
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("duplicate source name: %s", s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	return nil
}

func (cv *configurationValidator) validateOutput() error {
	if cv.config.Output.Directory == "" {
		return errors.New("output.directory is required")
	}
	if _, err := templates.ParsePagePattern(cv.config.Output.PagePattern); err != nil {
		return fmt.Errorf("output.page_pattern: %w", err)
	}
	return nil
}

func (cv *configurationValidator) validateRender() error {
	if cv.config.Render.Workers > maxWorkers {
		return fmt.Errorf("render.workers must be at most %d, got %d", maxWorkers, cv.config.Render.Workers)
	}
	return nil
}

func (cv *configurationValidator) validateWatch() error {
	d, err := time.ParseDuration(cv.config.Watch.Debounce)
	if err != nil {
		return fmt.Errorf("watch.debounce: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("watch.debounce must be positive, got %s", d)
	}
	return nil
}
