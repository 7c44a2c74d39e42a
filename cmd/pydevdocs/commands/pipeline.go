package commands

import (
	"context"
	"io/fs"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/pydevdocs/internal/build"
	"git.home.luguber.info/inful/pydevdocs/internal/classify"
	"git.home.luguber.info/inful/pydevdocs/internal/config"
	"git.home.luguber.info/inful/pydevdocs/internal/dispatch"
	"git.home.luguber.info/inful/pydevdocs/internal/filters"
	ferrors "git.home.luguber.info/inful/pydevdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/pydevdocs/internal/logfields"
	"git.home.luguber.info/inful/pydevdocs/internal/metrics"
	"git.home.luguber.info/inful/pydevdocs/internal/rendercontext"
	"git.home.luguber.info/inful/pydevdocs/internal/state"
	"git.home.luguber.info/inful/pydevdocs/internal/templates"
)

// buildFlags are the per-invocation overrides of a build.
type buildFlags struct {
	Output string
	Clean  bool
	Force  bool
	DryRun bool
}

// pipeline owns the resources that outlive a single build: the state
// database and the metrics registry.
type pipeline struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *state.SQLiteStore
	recorder *metrics.PrometheusRecorder
}

func openPipeline(cfg *config.Config, logger *slog.Logger, withState bool) (*pipeline, error) {
	p := &pipeline{cfg: cfg, logger: logger, recorder: metrics.NewPrometheusRecorder(nil)}
	if withState {
		store, err := state.Open(cfg.State.Path)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryState, "open state database").
				WithContext("path", cfg.State.Path).Build()
		}
		p.store = store
	}
	return p, nil
}

func (p *pipeline) Close() error {
	if p.store == nil {
		return nil
	}
	return p.store.Close()
}

// service assembles a build service. Templates are reloaded on every call
// so that watch mode picks up edited overrides.
func (p *pipeline) service() (*build.Service, error) {
	classifier := classify.New(p.cfg.Render.MatchMode)
	table := filters.New(classifier, filters.Options{TruncateLength: p.cfg.Render.TruncateLength})

	var overrides fs.FS
	if dir := p.cfg.Templates.Directory; dir != "" {
		overrides = os.DirFS(dir)
	}
	set, err := templates.Load(table.FuncMap(), overrides)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryTemplate, "load templates").
			WithContext("directory", p.cfg.Templates.Directory).
			WithHint("fix the template overrides or unset templates.directory").Build()
	}
	registry, err := dispatch.New(set, dispatch.Options{Logger: p.logger})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryTemplate, "bind templates").UserAction().Build()
	}

	opts := build.Options{
		Templates:  set,
		Registry:   registry,
		Classifier: classifier,
		Features: rendercontext.Features{
			Diagrams:    p.cfg.Render.Diagrams,
			Collapsible: p.cfg.Render.CollapsibleEnabled(),
		},
		Workers:     p.cfg.Render.Workers,
		PagePattern: p.cfg.Output.PagePattern,
		Recorder:    p.recorder,
		Logger:      p.logger,
	}
	if p.store != nil {
		opts.Store = p.store
	}
	return build.NewService(opts)
}

// run loads the sources and executes one build.
func (p *pipeline) run(ctx context.Context, flags buildFlags) (*build.Report, error) {
	svc, err := p.service()
	if err != nil {
		return nil, err
	}
	src, err := loadSources(ctx, p.cfg.Sources, p.logger)
	if err != nil {
		return nil, err
	}

	output := p.cfg.Output.Directory
	if flags.Output != "" {
		output = flags.Output
	}
	report, err := svc.Run(ctx, build.Request{
		Roots:       src.Roots,
		Problems:    src.Problems,
		OutputDir:   output,
		Title:       p.cfg.Project.Title,
		Description: p.cfg.Project.Description,
		Clean:       flags.Clean || p.cfg.Output.Clean,
		Force:       flags.Force,
		DryRun:      flags.DryRun,
	})

	if path := p.cfg.Metrics.Textfile; path != "" && !flags.DryRun {
		if werr := p.recorder.WriteTextfile(path); werr != nil {
			p.logger.Warn("Failed to write metrics textfile", logfields.Path(path), logfields.Error(werr))
		}
	}
	return report, err
}
