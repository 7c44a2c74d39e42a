// Package dispatch selects and runs the template for an entity.
//
// A Registry binds every render target, a class Category or a non-class
// entity Kind, to a compiled template once at construction. Selection at
// render time is a map lookup: the diagram variant when diagrams are enabled
// and one is bound, then the plain variant, then the generic class or
// function template. Falling back to a generic template logs one warning and
// is reported in the Result; it is never an error.
package dispatch

import (
	"fmt"
	"io"
	"log/slog"
	"text/template"

	"git.home.luguber.info/inful/pydevdocs/internal/classify"
	"git.home.luguber.info/inful/pydevdocs/internal/entity"
	"git.home.luguber.info/inful/pydevdocs/internal/logfields"
	"git.home.luguber.info/inful/pydevdocs/internal/rendercontext"
	"git.home.luguber.info/inful/pydevdocs/internal/templates"
)

// Target identifies what a template renders: a class Category or an entity Kind.
type Target string

// Generic templates. They must exist in every template set.
const (
	GenericClassTemplate    = "class.rst"
	GenericFunctionTemplate = "function.rst"
	ModuleTemplate          = "module.rst"
)

// TargetOf returns the render target for a context.
func TargetOf(ctx *rendercontext.Context) Target {
	if ctx.Entity.Kind == entity.KindClass {
		if ctx.Category == "" {
			return Target(classify.CategoryPlainClass)
		}
		return Target(ctx.Category)
	}
	return Target(ctx.Entity.Kind)
}

// Binding associates a target and diagram variant with a template file.
type Binding struct {
	Target   Target
	Diagram  bool
	Template string
}

// DefaultBindings is the built-in target table.
func DefaultBindings() []Binding {
	return []Binding{
		{Target: Target(classify.CategoryPydanticModel), Template: "class_pydantic.rst"},
		{Target: Target(classify.CategoryPydanticModel), Diagram: true, Template: "class_pydantic_diagram.rst"},
		{Target: Target(classify.CategoryDataclass), Template: "class_dataclass.rst"},
		{Target: Target(classify.CategoryDataclass), Diagram: true, Template: "class_dataclass_diagram.rst"},
		{Target: Target(classify.CategoryEnum), Template: "class_enum.rst"},
		{Target: Target(classify.CategoryFlagEnum), Template: "class_enum.rst"},
		{Target: Target(classify.CategoryException), Template: "class_exception.rst"},
		{Target: Target(classify.CategoryMetaclass), Template: GenericClassTemplate},
		{Target: Target(classify.CategoryMetaclass), Diagram: true, Template: "class_diagram.rst"},
		{Target: Target(classify.CategoryPlainClass), Template: GenericClassTemplate},
		{Target: Target(classify.CategoryPlainClass), Diagram: true, Template: "class_diagram.rst"},
		{Target: Target(entity.KindModule), Template: ModuleTemplate},
		{Target: Target(entity.KindPackage), Template: ModuleTemplate},
		{Target: Target(entity.KindFunction), Template: GenericFunctionTemplate},
		{Target: Target(entity.KindMethod), Template: "method.rst"},
		{Target: Target(entity.KindAttribute), Template: "attribute.rst"},
	}
}

// RenderFunc renders a view.
type RenderFunc func(w io.Writer, v *View) error

// Result describes how an entity was rendered.
type Result struct {
	Target   Target
	Template string
	Diagram  bool
	// Fallback is set when no template was bound for the target and the
	// generic template was used instead.
	Fallback bool
}

type key struct {
	target  Target
	diagram bool
}

type bound struct {
	name   string
	render RenderFunc
}

// Registry is the immutable target-to-template table. It is safe for
// concurrent use.
type Registry struct {
	bindings        map[key]bound
	genericClass    bound
	genericFunction bound
	logger          *slog.Logger
}

// Options configure a Registry.
type Options struct {
	// Bindings replaces DefaultBindings when non-nil.
	Bindings []Binding
	Logger   *slog.Logger
}

// New binds every target whose template exists in set. Targets whose
// template is missing stay unbound and fall back at render time. The generic
// class, function and module templates are required.
func New(set *templates.Set, opts Options) (*Registry, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	bindings := opts.Bindings
	if bindings == nil {
		bindings = DefaultBindings()
	}

	r := &Registry{bindings: make(map[key]bound, len(bindings)), logger: logger}
	for _, name := range []string{GenericClassTemplate, GenericFunctionTemplate, ModuleTemplate} {
		if !set.Has(name) {
			return nil, fmt.Errorf("required template %s is missing", name)
		}
	}
	r.genericClass = bind(set.Lookup(GenericClassTemplate))
	r.genericFunction = bind(set.Lookup(GenericFunctionTemplate))

	for _, b := range bindings {
		t := set.Lookup(b.Template)
		if t == nil {
			logger.Debug("Template not found, target left unbound",
				logfields.Template(b.Template), logfields.Target(string(b.Target)), slog.Bool("diagram", b.Diagram))
			continue
		}
		r.bindings[key{b.Target, b.Diagram}] = bind(t)
	}
	return r, nil
}

func bind(t *template.Template) bound {
	return bound{
		name: t.Name(),
		render: func(w io.Writer, v *View) error {
			return t.Execute(w, v)
		},
	}
}

// Select picks the template for ctx without rendering. A fallback selection
// logs a warning.
func (r *Registry) Select(ctx *rendercontext.Context) (RenderFunc, Result) {
	target := TargetOf(ctx)
	res := Result{Target: target}

	if ctx.Features.Diagrams {
		if b, ok := r.bindings[key{target, true}]; ok {
			res.Template, res.Diagram = b.name, true
			return b.render, res
		}
	}
	if b, ok := r.bindings[key{target, false}]; ok {
		res.Template = b.name
		return b.render, res
	}

	generic := r.genericFunction
	if ctx.Entity.Kind == entity.KindClass {
		generic = r.genericClass
	}
	res.Template, res.Fallback = generic.name, true
	r.logger.Warn("No template bound for target, using generic template",
		logfields.Entity(ctx.Entity.QualifiedID()),
		logfields.Target(string(target)),
		logfields.Template(generic.name))
	return generic.render, res
}

// Render selects the template for v and executes it into w.
func (r *Registry) Render(w io.Writer, v *View) (Result, error) {
	render, res := r.Select(v.Context)
	if err := render(w, v); err != nil {
		return res, fmt.Errorf("render %s with %s: %w", v.Entity.QualifiedID(), res.Template, err)
	}
	return res, nil
}

// Bound reports whether a template is bound for target.
func (r *Registry) Bound(target Target, diagram bool) bool {
	_, ok := r.bindings[key{target, diagram}]
	return ok
}
