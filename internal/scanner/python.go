package scanner

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"git.home.luguber.info/inful/pydevdocs/internal/entity"
)

// SyntaxError reports a source file tree-sitter could not parse cleanly.
type SyntaxError struct {
	Path string
	Line int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: syntax error near line %d", e.Path, e.Line)
}

// moduleParser turns Python source into entity members. It wraps a
// tree-sitter parser and must not be used concurrently.
type moduleParser struct {
	parser *sitter.Parser
}

func newModuleParser() *moduleParser {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	return &moduleParser{parser: parser}
}

func (p *moduleParser) close() { p.parser.Close() }

// ParseModule parses the source of one module into a module entity.
func ParseModule(ctx context.Context, name, path string, src []byte) (*entity.Entity, error) {
	p := newModuleParser()
	defer p.close()
	mod := entity.NewModule(name, path)
	if err := p.parseInto(ctx, mod, path, src); err != nil {
		return nil, err
	}
	return mod, nil
}

// parseInto fills target (a module or package) from src.
func (p *moduleParser) parseInto(ctx context.Context, target *entity.Entity, path string, src []byte) error {
	if len(src) == 0 {
		return nil
	}
	tree, err := p.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return &SyntaxError{Path: path, Line: firstErrorLine(root)}
	}
	w := walker{src: src}
	target.Docstring = w.docstring(root)
	w.collect(root, target)
	if w.all != nil {
		target.Module.All = w.all
	}
	return w.err
}

func firstErrorLine(n *sitter.Node) int {
	if n.Type() == "ERROR" || n.IsMissing() {
		return int(n.StartPoint().Row) + 1
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.HasError() || c.IsMissing() {
			return firstErrorLine(c)
		}
	}
	return int(n.StartPoint().Row) + 1
}

type walker struct {
	src []byte
	all []string
	err error
}

func (w *walker) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(w.src)
}

// collect adds the definitions found in a module or class body to parent.
// Compound statements such as if/try blocks are searched too; the first
// definition of a name wins.
func (w *walker) collect(body *sitter.Node, parent *entity.Entity) {
	seen := make(map[string]struct{}, len(parent.Members()))
	for _, m := range parent.Members() {
		seen[m.Name] = struct{}{}
	}
	w.collectBlock(body, parent, seen)
}

func (w *walker) collectBlock(body *sitter.Node, parent *entity.Entity, seen map[string]struct{}) {
	count := int(body.NamedChildCount())
	for i := 0; i < count; i++ {
		child := body.NamedChild(i)
		var decorators []string
		def := child
		if child.Type() == "decorated_definition" {
			for j := 0; j < int(child.NamedChildCount()); j++ {
				if d := child.NamedChild(j); d.Type() == "decorator" && d.NamedChildCount() > 0 {
					decorators = append(decorators, w.text(d.NamedChild(0)))
				}
			}
			def = child.ChildByFieldName("definition")
			if def == nil {
				continue
			}
		}

		var member *entity.Entity
		switch def.Type() {
		case "class_definition":
			member = w.class(def, decorators)
		case "function_definition":
			member = w.function(def, parent.Kind == entity.KindClass, decorators)
		case "expression_statement":
			member = w.assignment(def, parent)
			if member != nil && i+1 < count {
				member.Docstring = stringStatement(body.NamedChild(i+1), w.src)
			}
		case "if_statement":
			if !strings.Contains(w.text(def.ChildByFieldName("condition")), "__name__") {
				w.collectBlock(def, parent, seen)
			}
		case "try_statement", "block", "else_clause", "elif_clause", "except_clause", "finally_clause":
			w.collectBlock(def, parent, seen)
		}
		if member == nil {
			continue
		}
		if _, dup := seen[member.Name]; dup {
			continue
		}
		if err := parent.Add(member); err != nil {
			w.err = err
			return
		}
		seen[member.Name] = struct{}{}
		if member.Kind == entity.KindClass {
			if b := def.ChildByFieldName("body"); b != nil {
				w.collect(b, member)
			}
		}
	}
}

func (w *walker) class(n *sitter.Node, decorators []string) *entity.Entity {
	name := w.text(n.ChildByFieldName("name"))
	if name == "" {
		return nil
	}
	var bases []string
	var metaclass string
	if args := n.ChildByFieldName("superclasses"); args != nil {
		for i := 0; i < int(args.NamedChildCount()); i++ {
			a := args.NamedChild(i)
			switch a.Type() {
			case "comment":
			case "keyword_argument":
				if w.text(a.ChildByFieldName("name")) == "metaclass" {
					metaclass = w.text(a.ChildByFieldName("value"))
				}
			default:
				bases = append(bases, w.text(a))
			}
		}
	}
	cls := entity.NewClass(name, bases, decorators...)
	cls.Class.Metaclass = entity.NormalizeTypeName(metaclass)
	if body := n.ChildByFieldName("body"); body != nil {
		cls.Docstring = w.docstring(body)
	}
	return cls
}

func (w *walker) function(n *sitter.Node, method bool, decorators []string) *entity.Entity {
	name := w.text(n.ChildByFieldName("name"))
	if name == "" {
		return nil
	}
	fn := entity.FunctionInfo{
		Params:  w.params(n.ChildByFieldName("parameters")),
		Returns: w.text(n.ChildByFieldName("return_type")),
		Async:   strings.HasPrefix(w.text(n), "async"),
	}
	var e *entity.Entity
	if method {
		e = entity.NewMethod(name, fn, decorators...)
	} else {
		e = entity.NewFunction(name, fn, decorators...)
	}
	if body := n.ChildByFieldName("body"); body != nil {
		e.Docstring = w.docstring(body)
	}
	return e
}

func (w *walker) params(n *sitter.Node) []entity.Param {
	if n == nil {
		return nil
	}
	var params []entity.Param
	kind := entity.ParamPositional
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "identifier":
			params = append(params, entity.Param{Name: w.text(c), Kind: kind})
		case "default_parameter":
			params = append(params, entity.Param{
				Name: w.text(c.ChildByFieldName("name")), Default: w.text(c.ChildByFieldName("value")), Kind: kind,
			})
		case "typed_default_parameter":
			params = append(params, entity.Param{
				Name:       w.text(c.ChildByFieldName("name")),
				Annotation: w.text(c.ChildByFieldName("type")),
				Default:    w.text(c.ChildByFieldName("value")),
				Kind:       kind,
			})
		case "typed_parameter":
			p := entity.Param{Annotation: w.text(c.ChildByFieldName("type")), Kind: kind}
			inner := c.NamedChild(0)
			switch inner.Type() {
			case "list_splat_pattern":
				p.Name, p.Kind = w.splatName(inner), entity.ParamVarArgs
				kind = entity.ParamKeyword
			case "dictionary_splat_pattern":
				p.Name, p.Kind = w.splatName(inner), entity.ParamVarKwargs
			default:
				p.Name = w.text(inner)
			}
			params = append(params, p)
		case "list_splat_pattern":
			if name := w.splatName(c); name != "" {
				params = append(params, entity.Param{Name: name, Kind: entity.ParamVarArgs})
			}
			kind = entity.ParamKeyword
		case "dictionary_splat_pattern":
			params = append(params, entity.Param{Name: w.splatName(c), Kind: entity.ParamVarKwargs})
		case "keyword_separator":
			kind = entity.ParamKeyword
		}
	}
	return params
}

func (w *walker) splatName(n *sitter.Node) string {
	if n.NamedChildCount() == 0 {
		return ""
	}
	return w.text(n.NamedChild(0))
}

// assignment turns "name = value" or "name: type = value" into an attribute.
// "__all__" is recorded on the module instead.
func (w *walker) assignment(n *sitter.Node, parent *entity.Entity) *entity.Entity {
	if n.NamedChildCount() == 0 {
		return nil
	}
	a := n.NamedChild(0)
	if a.Type() != "assignment" {
		return nil
	}
	left := a.ChildByFieldName("left")
	if left == nil || left.Type() != "identifier" {
		return nil
	}
	name := w.text(left)
	right := a.ChildByFieldName("right")
	if name == "__all__" && parent.Kind.IsModuleLike() {
		w.all = w.stringList(right)
		return nil
	}
	return entity.NewAttribute(name, entity.AttributeInfo{
		Annotation: w.text(a.ChildByFieldName("type")),
		Value:      strings.Join(strings.Fields(w.text(right)), " "),
	})
}

func (w *walker) stringList(n *sitter.Node) []string {
	out := []string{}
	if n == nil {
		return out
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == "string" {
			out = append(out, unquote(w.text(c)))
		}
	}
	return out
}

// docstring returns the string literal opening a module, class or function body.
func (w *walker) docstring(body *sitter.Node) string {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		c := body.NamedChild(i)
		if c.Type() == "comment" {
			continue
		}
		return stringStatement(c, w.src)
	}
	return ""
}

func stringStatement(n *sitter.Node, src []byte) string {
	if n == nil || n.Type() != "expression_statement" || n.NamedChildCount() != 1 {
		return ""
	}
	s := n.NamedChild(0)
	if s.Type() != "string" {
		return ""
	}
	return unquote(s.Content(src))
}

// unquote strips the prefix and quotes of a Python string literal without
// interpreting escapes.
func unquote(lit string) string {
	s := strings.TrimLeft(lit, "rRuUbBfF")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if len(s) >= 2*len(q) && strings.HasPrefix(s, q) && strings.HasSuffix(s, q) {
			return s[len(q) : len(s)-len(q)]
		}
	}
	return s
}
