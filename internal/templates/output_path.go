package templates

import (
	"bytes"
	"fmt"
	"path"
	"strings"
	"text/template"
)

// DefaultPagePattern places each page in a directory named after the
// dotted qualified id: "shop.orders" -> "shop/orders/index.rst".
const DefaultPagePattern = "{{ .Dir }}/index.rst"

// PagePathData is the data available to page path patterns.
type PagePathData struct {
	// QualifiedID is the dotted id of the page entity.
	QualifiedID string
	// Dir is QualifiedID with dots replaced by slashes.
	Dir string
	// Name is the last segment of the id.
	Name string
	// Kind is "module" or "package".
	Kind string
}

// NewPagePathData derives pattern data from a qualified id.
func NewPagePathData(qualifiedID, kind string) PagePathData {
	name := qualifiedID
	if i := strings.LastIndexByte(qualifiedID, '.'); i >= 0 {
		name = qualifiedID[i+1:]
	}
	return PagePathData{
		QualifiedID: qualifiedID,
		Dir:         strings.ReplaceAll(qualifiedID, ".", "/"),
		Name:        name,
		Kind:        kind,
	}
}

// PagePath renders a page path pattern. Patterns are parsed once with
// ParsePagePattern and reused for every page.
type PagePath struct {
	tpl *template.Template
}

// ParsePagePattern parses a page path pattern; empty selects DefaultPagePattern.
func ParsePagePattern(pattern string) (*PagePath, error) {
	if strings.TrimSpace(pattern) == "" {
		pattern = DefaultPagePattern
	}
	tpl, err := template.New("page_path").Option("missingkey=error").Parse(pattern)
	if err != nil {
		return nil, fmt.Errorf("parse page path pattern: %w", err)
	}
	return &PagePath{tpl: tpl}, nil
}

// Render returns the slash-separated relative page path for data. Rendered
// paths must stay relative and end in ".rst".
func (p *PagePath) Render(data PagePathData) (string, error) {
	var buf bytes.Buffer
	if err := p.tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render page path for %s: %w", data.QualifiedID, err)
	}
	rel := path.Clean(strings.TrimSpace(buf.String()))
	switch {
	case rel == "." || path.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, "../"):
		return "", fmt.Errorf("page path %q for %s escapes the output directory", rel, data.QualifiedID)
	case path.Ext(rel) != FileSuffix:
		return "", fmt.Errorf("page path %q for %s must end in %s", rel, data.QualifiedID, FileSuffix)
	}
	return rel, nil
}
