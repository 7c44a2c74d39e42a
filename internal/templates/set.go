// Package templates loads the reStructuredText templates used to render API
// pages.
//
// Templates are embedded in the binary and parsed once into a Set. A
// directory of overrides may replace individual files or shared blocks by
// name. Every template shares one namespace, so page templates can call the
// blocks defined in partials.tmpl with {{ template }} or, when the output
// needs indenting, with {{ include }}.
package templates

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"slices"
	"strings"
	"text/template"
)

//go:embed files/*.rst files/*.tmpl
var embedded embed.FS

// Template file suffixes. Files ending in FileSuffix are renderable; files
// ending in PartialSuffix only contribute {{ define }} blocks.
const (
	FileSuffix    = ".rst"
	PartialSuffix = ".tmpl"
)

// Embedded returns the built-in template files.
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "files")
	if err != nil {
		panic(err)
	}
	return sub
}

// Set is a parsed, immutable collection of templates. It is safe for
// concurrent use.
type Set struct {
	root  *template.Template
	files []string
}

// Load parses the embedded templates plus optional overrides.
func Load(funcs template.FuncMap, overrides fs.FS) (*Set, error) {
	return LoadFS(Embedded(), funcs, overrides)
}

// LoadFS parses the templates found at the top level of base, then those of
// overrides (which may be nil). A file or block in overrides replaces the
// one with the same name in base.
func LoadFS(base fs.FS, funcs template.FuncMap, overrides fs.FS) (*Set, error) {
	if base == nil {
		return nil, errors.New("template source is required")
	}
	root := template.New("pydevdocs").Option("missingkey=error").Funcs(funcs).Funcs(template.FuncMap{
		"include": func(string, any) (string, error) { return "", errors.New("include called before load") },
	})
	s := &Set{root: root}

	if err := s.parseDir(base); err != nil {
		return nil, err
	}
	if overrides != nil {
		if err := s.parseDir(overrides); err != nil {
			return nil, fmt.Errorf("template overrides: %w", err)
		}
	}

	// include executes a named template into a string so the result can be
	// piped through filters such as indent.
	root.Funcs(template.FuncMap{
		"include": func(name string, data any) (string, error) {
			var b strings.Builder
			if err := root.ExecuteTemplate(&b, name, data); err != nil {
				return "", err
			}
			return b.String(), nil
		},
	})
	slices.Sort(s.files)
	s.files = slices.Compact(s.files)
	return s, nil
}

func (s *Set) parseDir(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("read templates: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !(strings.HasSuffix(name, FileSuffix) || strings.HasSuffix(name, PartialSuffix)) {
			continue
		}
		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read template %s: %w", name, err)
		}
		if _, err := s.root.New(name).Parse(string(body)); err != nil {
			return fmt.Errorf("parse template %s: %w", name, err)
		}
		if path.Ext(name) == FileSuffix {
			s.files = append(s.files, name)
		}
	}
	return nil
}

// Has reports whether a renderable template file with the given name exists.
func (s *Set) Has(name string) bool {
	_, found := slices.BinarySearch(s.files, name)
	return found
}

// Lookup returns the named template, or nil.
func (s *Set) Lookup(name string) *template.Template {
	if !s.Has(name) {
		return nil
	}
	return s.root.Lookup(name)
}

// Files returns the names of the renderable templates in sorted order.
func (s *Set) Files() []string { return slices.Clone(s.files) }

// Execute renders the named template to w.
func (s *Set) Execute(w io.Writer, name string, data any) error {
	t := s.Lookup(name)
	if t == nil {
		return fmt.Errorf("template %s not found", name)
	}
	if err := t.Execute(w, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return nil
}
