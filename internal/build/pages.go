package build

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/pydevdocs/internal/dispatch"
	"git.home.luguber.info/inful/pydevdocs/internal/entity"
	"git.home.luguber.info/inful/pydevdocs/internal/filters"
	"git.home.luguber.info/inful/pydevdocs/internal/logfields"
	"git.home.luguber.info/inful/pydevdocs/internal/metrics"
	"git.home.luguber.info/inful/pydevdocs/internal/rendercontext"
	"git.home.luguber.info/inful/pydevdocs/internal/state"
	"git.home.luguber.info/inful/pydevdocs/internal/templates"
)

// pageResult is what one worker produced for one page.
type pageResult struct {
	rel      string
	content  []byte
	issues   []Issue
	degraded []string
	renders  []dispatch.Result
	status   metrics.PageResult
}

func (r *pageResult) noteSkipped(skipped []rendercontext.Skip) {
	for _, sk := range skipped {
		r.issues = append(r.issues, Issue{
			Code: IssueMalformedEntity, Severity: SeverityWarning, Entity: sk.QualifiedID, Page: r.rel,
			Message: sk.Err.Error(),
		})
		r.degraded = append(r.degraded, sk.QualifiedID)
	}
}

func (r *pageResult) noteRender(e *entity.Entity, res dispatch.Result) {
	if res.Template == "" {
		return
	}
	r.renders = append(r.renders, res)
	if res.Fallback {
		r.issues = append(r.issues, Issue{
			Code: IssueMissingTemplate, Severity: SeverityWarning, Entity: e.QualifiedID(), Page: r.rel,
			Message: fmt.Sprintf("no template bound for %s, rendered with %s", res.Target, res.Template),
		})
	}
}

func (r *pageResult) noteFailure(e *entity.Entity, err error) {
	r.issues = append(r.issues, Issue{
		Code: IssueRenderFailure, Severity: SeverityError, Entity: e.QualifiedID(), Page: r.rel,
		Message: err.Error(),
	})
	r.degraded = append(r.degraded, e.QualifiedID())
}

// renderPage renders a module or package page. Members are rendered one at
// a time so that a failing member only degrades its own block.
func (s *Service) renderPage(job pageJob) pageResult {
	res := pageResult{rel: job.rel}
	ctx := s.builder.Build(job.entity)
	res.noteSkipped(ctx.Skipped)

	public := make([]dispatch.Block, 0, len(ctx.Public))
	for _, m := range ctx.Public {
		public = append(public, s.renderMember(m, &res))
	}
	private := make([]dispatch.Block, 0, len(ctx.Private))
	for _, m := range ctx.Private {
		private = append(private, s.renderMember(m, &res))
	}
	view := &dispatch.View{Context: ctx, Groups: dispatch.GroupBlocks(public), PrivateBlocks: private}
	for _, sub := range ctx.Submodules {
		entry, err := s.tocEntry(job.rel, sub)
		if err != nil {
			s.logger.Debug("Submodule left out of toctree", logfields.Entity(sub.QualifiedID()), logfields.Error(err))
			continue
		}
		view.SubmodulePages = append(view.SubmodulePages, entry)
	}

	var buf bytes.Buffer
	r, err := s.registry.Render(&buf, view)
	res.noteRender(job.entity, r)
	if err != nil {
		s.logger.Warn("Page template failed, writing minimal page",
			logfields.Page(job.rel), logfields.Template(r.Template), logfields.Error(err))
		res.noteFailure(job.entity, err)
		buf.Reset()
		buf.WriteString(fallbackPage(view))
	}
	res.content = withTrailingNewline(buf.Bytes())
	s.logger.Debug("Rendered page", logfields.Page(job.rel), logfields.Count(len(public)+len(private)))
	return res
}

// tocEntry returns the toctree entry for sub's page as seen from the page at
// rel. Entries that would climb above rel's directory are rooted at the
// output directory instead.
func (s *Service) tocEntry(rel string, sub *entity.Entity) (string, error) {
	target, err := s.pagePath.Render(templates.NewPagePathData(sub.QualifiedID(), string(sub.Kind)))
	if err != nil {
		return "", err
	}
	docname := strings.TrimSuffix(target, path.Ext(target))
	entry, err := filepath.Rel(filepath.FromSlash(path.Dir(rel)), filepath.FromSlash(docname))
	if err != nil {
		return "", err
	}
	entry = filepath.ToSlash(entry)
	if entry == ".." || strings.HasPrefix(entry, "../") {
		return "/" + docname, nil
	}
	return entry, nil
}

// renderMember renders one member block. Nested classes are rendered first,
// each through its own template, so their members and problems are reported
// like those of a top-level class.
func (s *Service) renderMember(m *entity.Entity, res *pageResult) dispatch.Block {
	ctx := s.builder.Build(m)
	res.noteSkipped(ctx.Skipped)

	view := &dispatch.View{Context: ctx}
	if m.Kind == entity.KindClass {
		for _, nested := range slices.Concat(ctx.Classes(), ctx.PrivateOf(entity.KindClass)) {
			if view.Nested == nil {
				view.Nested = make(map[string]dispatch.Block)
			}
			view.Nested[nested.QualifiedID()] = s.renderMember(nested, res)
		}
	}

	var buf bytes.Buffer
	r, err := s.registry.Render(&buf, view)
	res.noteRender(m, r)
	if err != nil {
		s.logger.Warn("Member template failed, using placeholder",
			logfields.Entity(m.QualifiedID()), logfields.Template(r.Template), logfields.Error(err))
		res.noteFailure(m, err)
		return dispatch.FallbackBlock(m)
	}
	return dispatch.Block{QualifiedID: m.QualifiedID(), Kind: m.Kind, Body: strings.TrimSpace(buf.String())}
}

// Fingerprint identifies the content of a page at a path.
func Fingerprint(rel string, content []byte) string {
	return mdfp.CalculateFingerprintFromParts("page: "+rel, string(content))
}

// writeOutput writes a rendered page unless its fingerprint is unchanged.
func (s *Service) writeOutput(ctx context.Context, req Request, buildID string, res *pageResult) error {
	if req.DryRun {
		res.status = metrics.PageWritten
		return nil
	}
	full, err := resolvePagePath(req.OutputDir, res.rel)
	if err != nil {
		res.status = metrics.PageFailed
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	fp := Fingerprint(res.rel, res.content)

	if s.store != nil && !req.Force && !req.Clean {
		old, ok, err := s.store.PageFingerprint(ctx, res.rel)
		switch {
		case err != nil:
			res.issues = append(res.issues, Issue{Code: IssueStateFailure, Severity: SeverityWarning, Page: res.rel, Message: err.Error()})
		case ok && old == fp && fileExists(full):
			res.status = metrics.PageUnchanged
			return nil
		}
	}

	if _, err := writePage(req.OutputDir, res.rel, res.content); err != nil {
		res.issues = append(res.issues, Issue{Code: IssueWriteFailure, Severity: SeverityError, Page: res.rel, Message: err.Error()})
		res.status = metrics.PageFailed
		return fmt.Errorf("%w: %s: %w", ErrWrite, res.rel, err)
	}
	res.status = metrics.PageWritten

	if s.store != nil {
		if err := s.store.PutPage(ctx, state.PageRecord{Path: res.rel, Fingerprint: fp, BuildID: buildID}); err != nil {
			res.issues = append(res.issues, Issue{Code: IssueStateFailure, Severity: SeverityWarning, Page: res.rel, Message: err.Error()})
		}
	}
	return nil
}

// fallbackPage is written when the page template itself fails. It keeps the
// module directive and every member block that did render.
func fallbackPage(v *dispatch.View) string {
	id := v.Entity.QualifiedID()
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n\n.. py:module:: %s\n", id, filters.Underline("=", id), id)
	for _, g := range v.Groups {
		for _, block := range g.Blocks {
			b.WriteString("\n")
			b.WriteString(block.Body)
			b.WriteString("\n")
		}
	}
	for _, block := range v.PrivateBlocks {
		b.WriteString("\n")
		b.WriteString(block.Body)
		b.WriteString("\n")
	}
	return b.String()
}

func fallbackIndex(title string, entries []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n\n.. toctree::\n   :maxdepth: 2\n\n", title, filters.Underline("=", title))
	for _, e := range entries {
		fmt.Fprintf(&b, "   %s\n", e)
	}
	return b.String()
}

func withTrailingNewline(b []byte) []byte {
	out := bytes.TrimRight(b, "\n")
	return append(out, '\n')
}
