package config

import (
	"errors"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/pydevdocs/internal/classify"
)

// NormalizationResult captures adjustments and warnings from normalization.
type NormalizationResult struct{ Warnings []string }

func (r *NormalizationResult) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// NormalizeConfig canonicalizes enumerated and bounded fields before
// defaults are applied. It mutates c in place.
func NormalizeConfig(c *Config) (*NormalizationResult, error) {
	if c == nil {
		return nil, errors.New("config nil")
	}
	res := &NormalizationResult{}
	normalizeSources(c.Sources)
	normalizeRender(&c.Render, res)
	normalizeLogging(&c.Logging, res)
	c.Output.Directory = strings.TrimSpace(c.Output.Directory)
	c.State.Path = strings.TrimSpace(c.State.Path)
	return res, nil
}

func normalizeSources(sources []SourceConfig) {
	for i := range sources {
		s := &sources[i]
		s.Name = strings.TrimSpace(s.Name)
		s.Path = strings.TrimSpace(s.Path)
		s.Dump = strings.TrimSpace(s.Dump)
	}
}

func normalizeRender(r *RenderConfig, res *NormalizationResult) {
	raw := string(r.MatchMode)
	if mode, err := classify.ParseMatchMode(raw); err != nil {
		res.warnf("render.match_mode: unknown value %q, using %s", raw, classify.MatchExact)
		r.MatchMode = classify.MatchExact
	} else if mode != r.MatchMode && raw != "" {
		res.warnf("render.match_mode: normalized %q to %s", raw, mode)
		r.MatchMode = mode
	}
	if r.TruncateLength < 0 {
		res.warnf("render.truncate_length: %d is negative, using default", r.TruncateLength)
		r.TruncateLength = 0
	}
	if r.Workers < 0 {
		res.warnf("render.workers: %d is negative, using all CPUs", r.Workers)
		r.Workers = 0
	}
}

func normalizeLogging(l *LoggingConfig, res *NormalizationResult) {
	if raw := strings.TrimSpace(string(l.Level)); raw != "" {
		if !logLevelNormalizer.Valid(raw) {
			res.warnf("logging.level: unknown value %q, using %s", raw, LogLevelInfo)
		}
		l.Level = NormalizeLogLevel(raw)
	}
	if raw := strings.TrimSpace(string(l.Format)); raw != "" {
		if !logFormatNormalizer.Valid(raw) {
			res.warnf("logging.format: unknown value %q, using %s", raw, LogFormatText)
		}
		l.Format = NormalizeLogFormat(raw)
	}
}
