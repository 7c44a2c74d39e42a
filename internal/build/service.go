package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/pydevdocs/internal/classify"
	"git.home.luguber.info/inful/pydevdocs/internal/dispatch"
	"git.home.luguber.info/inful/pydevdocs/internal/entity"
	ferrors "git.home.luguber.info/inful/pydevdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/pydevdocs/internal/logfields"
	"git.home.luguber.info/inful/pydevdocs/internal/metrics"
	"git.home.luguber.info/inful/pydevdocs/internal/rendercontext"
	"git.home.luguber.info/inful/pydevdocs/internal/state"
	"git.home.luguber.info/inful/pydevdocs/internal/templates"
)

// Stage names used for durations and metrics.
const (
	StageCollect = "collect"
	StageRender  = "render"
	StageIndex   = "index"
	StagePrune   = "prune"
)

// IndexPage is the path of the top-level toctree page.
const IndexPage = "index.rst"

// Store persists page fingerprints and build history between builds.
// *state.SQLiteStore implements it.
type Store interface {
	PageFingerprint(ctx context.Context, path string) (string, bool, error)
	PutPage(ctx context.Context, p state.PageRecord) error
	DeletePage(ctx context.Context, path string) error
	Pages(ctx context.Context) ([]state.PageRecord, error)
	RecordBuild(ctx context.Context, b state.BuildRecord) error
}

// Options configure a Service.
type Options struct {
	// Templates is required.
	Templates *templates.Set
	// Registry defaults to one built from Templates.
	Registry   *dispatch.Registry
	Classifier *classify.Classifier
	Features   rendercontext.Features
	// Workers bounds parallel page rendering; zero uses GOMAXPROCS.
	Workers     int
	PagePattern string
	// Store enables incremental writes, pruning and build history.
	Store    Store
	Recorder metrics.Recorder
	Logger   *slog.Logger
}

// Service runs documentation builds. It is safe to reuse across builds but
// runs one build at a time per call.
type Service struct {
	templates  *templates.Set
	registry   *dispatch.Registry
	classifier *classify.Classifier
	builder    *rendercontext.Builder
	pagePath   *templates.PagePath
	workers    int
	store      Store
	recorder   metrics.Recorder
	logger     *slog.Logger
}

// NewService validates opts and returns a Service.
func NewService(opts Options) (*Service, error) {
	if opts.Templates == nil {
		return nil, ferrors.InternalError("build service requires templates").Build()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	classifier := opts.Classifier
	if classifier == nil {
		classifier = classify.New(classify.MatchExact)
	}
	registry := opts.Registry
	if registry == nil {
		var err error
		registry, err = dispatch.New(opts.Templates, dispatch.Options{Logger: logger})
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryTemplate, "bind templates").Build()
		}
	}
	pagePath, err := templates.ParsePagePattern(opts.PagePattern)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid page pattern").UserAction().Build()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if opts.Recorder != nil {
		recorder = opts.Recorder
	}
	return &Service{
		templates:  opts.Templates,
		registry:   registry,
		classifier: classifier,
		builder:    rendercontext.NewBuilder(classifier, opts.Features),
		pagePath:   pagePath,
		workers:    workers,
		store:      opts.Store,
		recorder:   recorder,
		logger:     logger,
	}, nil
}

// Request describes one build.
type Request struct {
	// Roots are the entity trees to document, normally one package per source.
	Roots []*entity.Entity
	// Problems are records rejected while loading the roots. They are
	// reported as malformed entities.
	Problems []entity.Problem

	OutputDir   string
	Title       string
	Description string

	// Clean removes the output directory before writing.
	Clean bool
	// Force rewrites pages even when their fingerprint is unchanged.
	Force bool
	// DryRun renders without writing pages, reports or state.
	DryRun bool
}

type pageJob struct {
	entity *entity.Entity
	rel    string
}

// Run executes a build. The returned report is non-nil whenever the request
// was valid, including failed and canceled builds.
func (s *Service) Run(ctx context.Context, req Request) (report *Report, err error) {
	if strings.TrimSpace(req.OutputDir) == "" {
		return nil, ferrors.WrapError(ErrNoOutput, ferrors.CategoryValidation, "invalid build request").Build()
	}
	if req.Clean && !req.DryRun {
		if err := checkCleanable(req.OutputDir); err != nil {
			return nil, err
		}
	}

	report = newReport(uuid.NewString())
	report.DryRun = req.DryRun
	logger := s.logger.With(logfields.BuildID(report.BuildID))
	start := time.Now()
	logger.Info("Build started", logfields.Count(len(req.Roots)), logfields.Path(req.OutputDir))

	defer func() {
		report.finish(err)
		s.recorder.ObserveBuildDuration(time.Since(start))
		s.recorder.IncBuildOutcome(string(report.Outcome))
		for _, issue := range report.Issues {
			s.recorder.IncIssue(string(issue.Code))
		}
		s.finalize(ctx, req, report, logger)
	}()

	stageStart := time.Now()
	jobs := s.collect(req, report)
	s.endStage(report, StageCollect, stageStart, nil)

	if req.Clean && !req.DryRun {
		if rmErr := os.RemoveAll(req.OutputDir); rmErr != nil {
			return report, ferrors.WrapError(rmErr, ferrors.CategoryFileSystem, "clean output directory").
				WithContext("path", req.OutputDir).Build()
		}
	}

	stageStart = time.Now()
	results, renderErr := s.renderAll(ctx, req, report.BuildID, jobs)
	s.endStage(report, StageRender, stageStart, renderErr)
	for i := range results {
		s.merge(report, &results[i])
	}
	if renderErr != nil {
		return report, classifyRunError(renderErr)
	}

	stageStart = time.Now()
	indexErr := s.writeIndex(ctx, req, report, jobs)
	s.endStage(report, StageIndex, stageStart, indexErr)
	if indexErr != nil {
		return report, classifyRunError(indexErr)
	}

	if s.store != nil && !req.DryRun {
		stageStart = time.Now()
		s.prune(ctx, req, report, jobs)
		s.endStage(report, StagePrune, stageStart, nil)
	}
	return report, nil
}

// collect counts entities, validates roots and assigns a page path to every
// module and package.
func (s *Service) collect(req Request, report *Report) []pageJob {
	for _, p := range req.Problems {
		report.AddIssue(Issue{Code: IssueMalformedEntity, Severity: SeverityWarning, Entity: p.QualifiedID, Message: p.Err.Error()})
		report.DegradedEntities = append(report.DegradedEntities, p.QualifiedID)
	}
	if len(req.Roots) == 0 {
		report.AddIssue(Issue{Code: IssueNoEntities, Severity: SeverityWarning, Message: "no entities to document"})
	}

	var jobs []pageJob
	seen := make(map[string]string)
	for _, root := range req.Roots {
		if root == nil {
			continue
		}
		if !root.Kind.IsModuleLike() {
			report.AddIssue(Issue{
				Code: IssueMalformedEntity, Severity: SeverityWarning, Entity: root.QualifiedID(),
				Message: fmt.Sprintf("top-level entity is a %s, expected a module or package", root.Kind),
			})
			report.DegradedEntities = append(report.DegradedEntities, root.QualifiedID())
			continue
		}
		root.Walk(func(e *entity.Entity) bool {
			report.Entities[string(e.Kind)]++
			if e.Kind == entity.KindClass {
				category := s.classifier.Classify(e)
				report.Categories[string(category)]++
				s.recorder.IncClassCategory(string(category))
			}
			if !e.Kind.IsModuleLike() {
				return true
			}
			rel, err := s.pagePath.Render(templates.NewPagePathData(e.QualifiedID(), string(e.Kind)))
			if err != nil {
				report.AddIssue(Issue{Code: IssueRenderFailure, Severity: SeverityError, Entity: e.QualifiedID(), Message: err.Error()})
				report.DegradedEntities = append(report.DegradedEntities, e.QualifiedID())
				return false
			}
			owner, dup := seen[rel]
			if rel == IndexPage {
				owner, dup = "the index page", true
			}
			if dup {
				report.AddIssue(Issue{
					Code: IssueDuplicatePage, Severity: SeverityError, Entity: e.QualifiedID(), Page: rel,
					Message: fmt.Sprintf("page %s collides with %s", rel, owner),
				})
				report.DegradedEntities = append(report.DegradedEntities, e.QualifiedID())
				return false
			}
			seen[rel] = e.QualifiedID()
			jobs = append(jobs, pageJob{entity: e, rel: rel})
			return true
		})
	}
	return jobs
}

// renderAll renders and writes pages with at most s.workers in flight.
// Each worker owns its result slot, so results keep job order.
func (s *Service) renderAll(ctx context.Context, req Request, buildID string, jobs []pageJob) ([]pageResult, error) {
	results := make([]pageResult, len(jobs))
	workers := min(s.workers, max(len(jobs), 1))
	s.recorder.SetRenderConcurrency(workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, job := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := s.renderPage(job)
			err := s.writeOutput(gctx, req, buildID, &res)
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	// A cancellation that arrived after the last job was scheduled.
	return results, ctx.Err()
}

// merge folds a page result into the report.
func (s *Service) merge(report *Report, res *pageResult) {
	if res.rel == "" {
		return
	}
	report.Issues = append(report.Issues, res.issues...)
	report.DegradedEntities = append(report.DegradedEntities, res.degraded...)
	for _, r := range res.renders {
		report.Templates[r.Template]++
		s.recorder.IncTemplateRender(r.Template, r.Fallback)
		if r.Fallback {
			report.Fallbacks++
		}
	}
	if res.status == "" {
		return
	}
	s.recorder.IncPageResult(res.status)
	switch res.status {
	case metrics.PageWritten:
		report.Pages++
		report.RenderedPages++
	case metrics.PageUnchanged:
		report.Pages++
		report.UnchangedPages++
	case metrics.PageFailed:
		report.FailedPages++
	}
}

// writeIndex renders the toctree page linking every top-level page.
func (s *Service) writeIndex(ctx context.Context, req Request, report *Report, jobs []pageJob) error {
	title := req.Title
	if title == "" {
		title = "API Reference"
	}
	var entries []string
	for _, job := range jobs {
		if job.entity.Parent() == nil {
			entries = append(entries, strings.TrimSuffix(job.rel, path.Ext(job.rel)))
		}
	}

	var buf strings.Builder
	err := s.templates.Execute(&buf, IndexPage, struct {
		Title       string
		Description string
		Pages       []string
	}{title, req.Description, entries})
	if err != nil {
		report.AddIssue(Issue{Code: IssueRenderFailure, Severity: SeverityError, Page: IndexPage, Message: err.Error()})
		buf.Reset()
		buf.WriteString(fallbackIndex(title, entries))
	}

	res := pageResult{rel: IndexPage, content: withTrailingNewline([]byte(buf.String()))}
	if err := s.writeOutput(ctx, req, report.BuildID, &res); err != nil {
		return err
	}
	s.merge(report, &res)
	return nil
}

// prune removes pages written by earlier builds that this build no longer
// produces.
func (s *Service) prune(ctx context.Context, req Request, report *Report, jobs []pageJob) {
	produced := map[string]struct{}{IndexPage: {}}
	for _, job := range jobs {
		produced[job.rel] = struct{}{}
	}
	known, err := s.store.Pages(ctx)
	if err != nil {
		report.AddIssue(Issue{Code: IssueStateFailure, Severity: SeverityWarning, Message: err.Error()})
		return
	}
	for _, p := range known {
		if _, ok := produced[p.Path]; ok {
			continue
		}
		full, err := resolvePagePath(req.OutputDir, p.Path)
		if err == nil {
			err = os.Remove(full)
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			report.AddIssue(Issue{Code: IssueStateFailure, Severity: SeverityWarning, Page: p.Path, Message: err.Error()})
			continue
		}
		if err := s.store.DeletePage(ctx, p.Path); err != nil {
			report.AddIssue(Issue{Code: IssueStateFailure, Severity: SeverityWarning, Page: p.Path, Message: err.Error()})
			continue
		}
		report.PrunedPages++
	}
}

// finalize persists the report and records the build. Failures are logged;
// they never change the outcome.
func (s *Service) finalize(ctx context.Context, req Request, report *Report, logger *slog.Logger) {
	if !req.DryRun && report.Outcome != OutcomeCanceled {
		if err := report.Persist(req.OutputDir); err != nil {
			logger.Warn("Failed to persist build report", logfields.Error(err))
		}
	}
	if s.store != nil && !req.DryRun {
		data, err := report.JSON()
		if err == nil {
			err = s.store.RecordBuild(context.WithoutCancel(ctx), state.BuildRecord{
				ID:         report.BuildID,
				StartedAt:  report.Start,
				FinishedAt: report.End,
				Outcome:    string(report.Outcome),
				Pages:      report.Pages,
				Issues:     len(report.Issues),
				Report:     data,
			})
		}
		if err != nil {
			logger.Warn("Failed to record build", logfields.Error(err))
		}
	}

	level := slog.LevelInfo
	if report.Outcome == OutcomeFailed {
		level = slog.LevelError
	}
	logger.Log(context.WithoutCancel(ctx), level, "Build finished",
		logfields.Outcome(string(report.Outcome)),
		logfields.Count(report.Pages),
		slog.Int("rendered", report.RenderedPages),
		slog.Int("unchanged", report.UnchangedPages),
		slog.Int("issues", len(report.Issues)),
		logfields.DurationMS(float64(report.End.Sub(report.Start).Milliseconds())))
}

func (s *Service) endStage(report *Report, stage string, start time.Time, err error) {
	d := time.Since(start)
	report.StageDurations[stage] = d
	s.recorder.ObserveStageDuration(stage, d)
	result := metrics.ResultSuccess
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		result = metrics.ResultCanceled
	case err != nil:
		result = metrics.ResultFatal
	}
	s.recorder.IncStageResult(stage, result)
}

func classifyRunError(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "build canceled").Build()
	case errors.Is(err, ErrWrite):
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write documentation").Build()
	default:
		return ferrors.WrapError(err, ferrors.CategoryRender, "render documentation").Build()
	}
}

// checkCleanable refuses to clean the filesystem root or the working directory.
func checkCleanable(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryValidation, "resolve output directory").Build()
	}
	cwd, _ := os.Getwd()
	if abs == filepath.Dir(abs) || abs == cwd {
		return ferrors.ValidationError("refusing to clean output directory").
			WithContext("path", abs).Build()
	}
	return nil
}
