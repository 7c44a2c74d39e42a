// Package entity models the tree of documented Python objects produced by a
// source scanner.
//
// Every Entity carries a Kind and exactly one variant payload matching that
// kind (Module, Class, Function or Attribute). Qualified ids are derived from
// the position in the tree when a child is attached and are never edited
// afterwards.
package entity

import (
	"fmt"
	"slices"
	"strings"
)

// ModuleInfo is the payload of module and package entities.
type ModuleInfo struct {
	// Path is the source file (module) or directory (package), relative to the source root.
	Path string
	// All lists the names exported via __all__, if declared.
	All []string
}

// ClassInfo is the payload of class entities.
type ClassInfo struct {
	// Bases holds the normalized base names in declaration order, deduplicated.
	Bases []string
	// Metaclass is the normalized metaclass keyword argument, if any.
	Metaclass string
}

// ParamKind distinguishes Python parameter flavours.
type ParamKind string

const (
	ParamPositional ParamKind = "positional"
	ParamVarArgs    ParamKind = "var_positional"
	ParamKeyword    ParamKind = "keyword_only"
	ParamVarKwargs  ParamKind = "var_keyword"
)

// Param is one parameter of a callable.
type Param struct {
	Name       string
	Annotation string
	Default    string
	Kind       ParamKind
}

// FunctionInfo is the payload of function and method entities.
type FunctionInfo struct {
	Params  []Param
	Returns string
	Async   bool
}

// AttributeInfo is the payload of attribute entities.
type AttributeInfo struct {
	Annotation string
	Value      string
}

// Entity is one documented code object (DocumentedEntity).
type Entity struct {
	Name       string
	Kind       Kind
	BaseTypes  []string
	Decorators []string
	Docstring  string

	// DeclaredParent is the parent id reported by the scanner. It is empty for
	// entities built in code and is only used to detect inconsistent input.
	DeclaredParent string

	Module    *ModuleInfo
	Class     *ClassInfo
	Function  *FunctionInfo
	Attribute *AttributeInfo

	id      string
	parent  *Entity
	members []*Entity
}

// NewModule creates a module entity.
func NewModule(name, path string) *Entity {
	return &Entity{Name: name, Kind: KindModule, id: name, Module: &ModuleInfo{Path: path}}
}

// NewPackage creates a package entity.
func NewPackage(name, path string) *Entity {
	return &Entity{Name: name, Kind: KindPackage, id: name, Module: &ModuleInfo{Path: path}}
}

// NewClass creates a class entity with declared bases and decorators.
func NewClass(name string, bases []string, decorators ...string) *Entity {
	return &Entity{
		Name:       name,
		Kind:       KindClass,
		id:         name,
		BaseTypes:  slices.Clone(bases),
		Decorators: normalizeDecorators(decorators),
		Class:      &ClassInfo{Bases: NormalizeBases(bases)},
	}
}

// NewFunction creates a module-level function entity.
func NewFunction(name string, fn FunctionInfo, decorators ...string) *Entity {
	return &Entity{Name: name, Kind: KindFunction, id: name, Function: &fn, Decorators: normalizeDecorators(decorators)}
}

// NewMethod creates a method entity.
func NewMethod(name string, fn FunctionInfo, decorators ...string) *Entity {
	return &Entity{Name: name, Kind: KindMethod, id: name, Function: &fn, Decorators: normalizeDecorators(decorators)}
}

// NewAttribute creates an attribute entity.
func NewAttribute(name string, attr AttributeInfo) *Entity {
	return &Entity{Name: name, Kind: KindAttribute, id: name, Attribute: &attr}
}

// QualifiedID returns the fully-qualified dotted path of the entity.
func (e *Entity) QualifiedID() string { return e.id }

// Parent returns the owning entity, or nil for a root.
func (e *Entity) Parent() *Entity { return e.parent }

// Members returns the owned children in declaration order. The slice must not be modified.
func (e *Entity) Members() []*Entity { return e.members }

// IsPrivate reports whether the name starts with an underscore.
func (e *Entity) IsPrivate() bool { return strings.HasPrefix(e.Name, "_") }

// HasDecorator reports whether a decorator with the given name (qualified or simple) is attached.
func (e *Entity) HasDecorator(name string) bool {
	for _, d := range e.Decorators {
		if d == name || SimpleName(d) == name {
			return true
		}
	}
	return false
}

// Add attaches child as the last member of e and derives the ids of child's subtree.
// A child can only be attached once.
func (e *Entity) Add(child *Entity) error {
	if child == nil {
		return fmt.Errorf("add member to %s: nil entity", e.id)
	}
	if child.parent != nil {
		return fmt.Errorf("add %s to %s: already a member of %s", child.Name, e.id, child.parent.id)
	}
	if strings.Contains(child.Name, ".") {
		return fmt.Errorf("add %q to %s: member names cannot contain dots", child.Name, e.id)
	}
	if child == e {
		return fmt.Errorf("add %s: entity cannot own itself", e.id)
	}
	for a := e.parent; a != nil; a = a.parent {
		if a == child {
			return fmt.Errorf("add %s to %s: an entity cannot own its ancestor", child.id, e.id)
		}
	}
	if !e.Kind.allowsMember(child.Kind) {
		return fmt.Errorf("add %s to %s: a %s cannot own a %s", child.Name, e.id, e.Kind, child.Kind)
	}
	child.parent = e
	child.deriveIDs(e.id)
	e.members = append(e.members, child)
	return nil
}

// MustAdd is Add for statically known trees; it panics on error.
func (e *Entity) MustAdd(children ...*Entity) *Entity {
	for _, c := range children {
		if err := e.Add(c); err != nil {
			panic(err)
		}
	}
	return e
}

func (e *Entity) deriveIDs(parentID string) {
	e.id = parentID + "." + e.Name
	for _, m := range e.members {
		m.deriveIDs(e.id)
	}
}

// Walk visits e and its descendants depth-first in declaration order.
// Returning false from fn skips the entity's members.
func (e *Entity) Walk(fn func(*Entity) bool) {
	if !fn(e) {
		return
	}
	for _, m := range e.members {
		m.Walk(fn)
	}
}

// Find returns the descendant (or e itself) with the given qualified id.
func (e *Entity) Find(id string) *Entity {
	var found *Entity
	e.Walk(func(n *Entity) bool {
		if found != nil {
			return false
		}
		if n.id == id {
			found = n
			return false
		}
		return strings.HasPrefix(id, n.id+".")
	})
	return found
}

// Validate checks that the entity's variant payload matches its kind.
func (e *Entity) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("entity %q: empty name", e.id)
	}
	if e.parent != nil && strings.Contains(e.Name, ".") {
		return fmt.Errorf("entity %s: member name %q contains a dot", e.id, e.Name)
	}
	if !e.Kind.Valid() {
		return fmt.Errorf("entity %s: unknown kind %q", e.id, e.Kind)
	}

	payloads := 0
	for _, set := range []bool{e.Module != nil, e.Class != nil, e.Function != nil, e.Attribute != nil} {
		if set {
			payloads++
		}
	}
	if payloads != 1 {
		return fmt.Errorf("entity %s: expected exactly one payload, found %d", e.id, payloads)
	}

	var ok bool
	switch e.Kind {
	case KindModule, KindPackage:
		ok = e.Module != nil
	case KindClass:
		ok = e.Class != nil
	case KindFunction, KindMethod:
		ok = e.Function != nil
	case KindAttribute:
		ok = e.Attribute != nil
	}
	if !ok {
		return fmt.Errorf("entity %s: payload does not match kind %s", e.id, e.Kind)
	}
	if e.Kind != KindClass && len(e.BaseTypes) > 0 {
		return fmt.Errorf("entity %s: %s declares base types", e.id, e.Kind)
	}
	return nil
}

// Count returns the number of entities in the subtree rooted at e.
func (e *Entity) Count() int {
	n := 0
	e.Walk(func(*Entity) bool { n++; return true })
	return n
}
