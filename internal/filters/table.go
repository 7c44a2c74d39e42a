// Package filters provides the named helper functions templates call while
// rendering documentation.
package filters

import (
	"maps"
	"slices"
	"text/template"

	"git.home.luguber.info/inful/pydevdocs/internal/classify"
	"git.home.luguber.info/inful/pydevdocs/internal/entity"
)

// Filter names. These are the identifiers templates use.
const (
	NameFormatAnnotation     = "format_annotation"
	NameFormatSignature      = "format_signature"
	NameFormatBases          = "format_bases"
	NameMermaidType          = "mermaid_type"
	NameSimpleName           = "simple_name"
	NameToSnakeCase          = "to_snake_case"
	NameToKebabCase          = "to_kebab_case"
	NameTitleCase            = "title_case"
	NameTruncateWithEllipsis = "truncate_with_ellipsis"
	NamePluralize            = "pluralize"
	NameDocstringSummary     = "docstring_summary"
	NameCleanDocstring       = "clean_docstring"
	NameUnderline            = "underline"
	NameIndent               = "indent"
	NameSummary              = "summary"
	NameIsPydanticModel      = "is_pydantic_model"
	NameIsEnumClass          = "is_enum_class"
	NameIsToolClass          = "is_tool_class"
	NameIsAgentClass         = "is_agent_class"
)

// DefaultTruncateLength is used by the summary filter when no length is configured.
const DefaultTruncateLength = 120

// Table is the immutable filter catalog. It is built once at startup and
// shared by every render.
type Table struct {
	funcs template.FuncMap
}

// Options tune the filters that have configurable behaviour.
type Options struct {
	// TruncateLength bounds the output of the summary filter.
	TruncateLength int
}

// New builds the filter catalog. Predicate filters classify with c.
func New(c *classify.Classifier, opts Options) *Table {
	if c == nil {
		c = classify.New(classify.MatchExact)
	}
	limit := opts.TruncateLength
	if limit <= 0 {
		limit = DefaultTruncateLength
	}

	funcs := template.FuncMap{
		NameFormatAnnotation:     FormatAnnotation,
		NameFormatSignature:      FormatSignature,
		NameFormatBases:          FormatBases,
		NameMermaidType:          MermaidType,
		NameSimpleName:           entity.SimpleName,
		NameToSnakeCase:          ToSnakeCase,
		NameToKebabCase:          ToKebabCase,
		NameTitleCase:            TitleCase,
		NameTruncateWithEllipsis: TruncateWithEllipsis,
		NamePluralize:            Pluralize,
		NameDocstringSummary:     DocstringSummary,
		NameCleanDocstring:       CleanDocstring,
		NameUnderline:            Underline,
		NameIndent:               Indent,
		NameSummary: func(doc string) string {
			return TruncateWithEllipsis(DocstringSummary(doc), limit)
		},
		NameIsPydanticModel: func(e *entity.Entity) bool { return c.IsPydanticModel(e) },
		NameIsEnumClass:     func(e *entity.Entity) bool { return c.IsEnum(e) },
		NameIsToolClass:     func(e *entity.Entity) bool { return c.IsTool(e) },
		NameIsAgentClass:    func(e *entity.Entity) bool { return c.IsAgent(e) },
	}
	return &Table{funcs: funcs}
}

// FuncMap returns a copy of the catalog suitable for template.Funcs.
func (t *Table) FuncMap() template.FuncMap {
	return maps.Clone(t.funcs)
}

// Names returns the registered filter names in sorted order.
func (t *Table) Names() []string {
	return slices.Sorted(maps.Keys(t.funcs))
}

// Has reports whether a filter with the given name is registered.
func (t *Table) Has(name string) bool {
	_, ok := t.funcs[name]
	return ok
}
