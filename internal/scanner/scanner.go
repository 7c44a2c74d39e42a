// Package scanner builds entity trees from Python source directories using
// tree-sitter.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"git.home.luguber.info/inful/pydevdocs/internal/entity"
	ferrors "git.home.luguber.info/inful/pydevdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/pydevdocs/internal/logfields"
)

const (
	sourceSuffix = ".py"
	packageInit  = "__init__.py"
)

// Options configure a Scanner.
type Options struct {
	// Exclude holds path.Match patterns applied to file and directory base names.
	Exclude []string
	Logger  *slog.Logger
}

// Scanner walks Python source trees.
type Scanner struct {
	exclude []string
	logger  *slog.Logger
}

// New returns a Scanner.
func New(opts Options) *Scanner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{exclude: opts.Exclude, logger: logger}
}

// Result is the outcome of a scan. Files that could not be read or parsed
// are listed in Problems and left out of Roots.
type Result struct {
	Roots    []*entity.Entity
	Problems []entity.Problem
	Files    int
}

// Scan scans root, which may be a package directory, a single module file
// or a source directory holding top-level packages and modules.
func (s *Scanner) Scan(ctx context.Context, root string) (*Result, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryScan, "scan sources").
			WithContext("path", root).
			WithHint("check that the source path exists and is readable").Build()
	}
	run := &scan{Scanner: s, base: root, parser: newModuleParser(), result: &Result{}}
	defer run.parser.close()

	switch {
	case !info.IsDir():
		if !strings.HasSuffix(root, sourceSuffix) {
			return nil, ferrors.ValidationError("source file must be a Python module").
				WithContext("path", root).Build()
		}
		run.base = filepath.Dir(root)
		if mod := run.module(ctx, root, ""); mod != nil {
			run.result.Roots = append(run.result.Roots, mod)
		}
	case fileExists(filepath.Join(root, packageInit)):
		run.base = filepath.Dir(root)
		if pkg := run.pkg(ctx, root, ""); pkg != nil {
			run.result.Roots = append(run.result.Roots, pkg)
		}
	default:
		run.result.Roots, err = run.children(ctx, root, nil)
	}
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, ferrors.WrapError(err, ferrors.CategoryRuntime, "scan canceled").Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryScan, "scan sources").WithContext("path", root).Build()
	}
	s.logger.Info("Scanned sources", logfields.Path(root), logfields.Count(run.result.Files),
		slog.Int("roots", len(run.result.Roots)), slog.Int("problems", len(run.result.Problems)))
	return run.result, nil
}

type scan struct {
	*Scanner
	base   string
	parser *moduleParser
	result *Result
}

// children scans the entries of dir. With a nil parent they are returned as
// roots; otherwise they are added to parent.
func (r *scan) children(ctx context.Context, dir string, parent *entity.Entity) ([]*entity.Entity, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	prefix := ""
	if parent != nil {
		prefix = parent.QualifiedID() + "."
	}
	var out []*entity.Entity
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := e.Name()
		if r.excluded(name) {
			continue
		}
		full := filepath.Join(dir, name)
		var child *entity.Entity
		switch {
		case e.IsDir():
			if !isIdentifier(name) || !fileExists(filepath.Join(full, packageInit)) {
				continue
			}
			child = r.pkg(ctx, full, prefix)
		case name != packageInit && strings.HasSuffix(name, sourceSuffix):
			if !isIdentifier(strings.TrimSuffix(name, sourceSuffix)) {
				r.logger.Debug("Skipping non-importable module", logfields.File(full))
				continue
			}
			child = r.module(ctx, full, prefix)
		}
		if child == nil {
			continue
		}
		if parent == nil {
			out = append(out, child)
			continue
		}
		if err := parent.Add(child); err != nil {
			r.problem(child.QualifiedID(), err)
		}
	}
	return out, nil
}

func (r *scan) pkg(ctx context.Context, dir, prefix string) *entity.Entity {
	name := filepath.Base(dir)
	pkg := entity.NewPackage(name, r.rel(dir))
	if !r.parseFile(ctx, pkg, filepath.Join(dir, packageInit), prefix+name) {
		return nil
	}
	if _, err := r.children(ctx, dir, pkg); err != nil {
		r.problem(prefix+name, err)
	}
	return pkg
}

func (r *scan) module(ctx context.Context, file, prefix string) *entity.Entity {
	name := strings.TrimSuffix(filepath.Base(file), sourceSuffix)
	mod := entity.NewModule(name, r.rel(file))
	if !r.parseFile(ctx, mod, file, prefix+name) {
		return nil
	}
	return mod
}

func (r *scan) parseFile(ctx context.Context, target *entity.Entity, file, id string) bool {
	src, err := os.ReadFile(file)
	if err == nil {
		r.result.Files++
		err = r.parser.parseInto(ctx, target, r.rel(file), src)
	}
	if err != nil {
		r.logger.Warn("Skipping unparseable module", logfields.File(file), logfields.Error(err))
		r.problem(id, err)
		return false
	}
	r.logger.Debug("Parsed module", logfields.Entity(id), logfields.Count(len(target.Members())))
	return true
}

func (r *scan) problem(id string, err error) {
	r.result.Problems = append(r.result.Problems, entity.Problem{QualifiedID: id, Err: err})
}

func (r *scan) rel(p string) string {
	rel, err := filepath.Rel(r.base, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

func (s *Scanner) excluded(name string) bool {
	if strings.HasPrefix(name, ".") || name == "__pycache__" {
		return true
	}
	for _, pattern := range s.exclude {
		if ok, _ := path.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
