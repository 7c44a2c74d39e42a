// Package rendercontext builds the per-entity bundle handed to templates.
package rendercontext

import (
	"fmt"

	"git.home.luguber.info/inful/pydevdocs/internal/classify"
	"git.home.luguber.info/inful/pydevdocs/internal/entity"
)

// Features are the optional rendering features enabled for a build.
type Features struct {
	Diagrams    bool
	Collapsible bool
}

// Group is a run of members sharing a kind.
type Group struct {
	Kind    entity.Kind
	Members []*entity.Entity
}

// Skip records a member excluded from rendering because it is malformed.
type Skip struct {
	QualifiedID string
	Err         error
}

// Context is the RenderContext for one entity. It is built fresh per entity
// and never shared between renders.
type Context struct {
	Entity   *entity.Entity
	Category classify.Category
	Features Features

	Public  []*entity.Entity
	Private []*entity.Entity

	// PublicGroups and PrivateGroups group each partition by kind, in the
	// order kinds are first seen.
	PublicGroups  []Group
	PrivateGroups []Group

	// Submodules holds module/package children of a module or package; they
	// are excluded from Public, Private and the groups.
	Submodules []*entity.Entity

	Skipped []Skip
}

// Builder creates Contexts. It holds only immutable collaborators.
type Builder struct {
	classifier *classify.Classifier
	features   Features
}

// NewBuilder returns a Builder classifying with c.
func NewBuilder(c *classify.Classifier, features Features) *Builder {
	if c == nil {
		c = classify.New(classify.MatchExact)
	}
	return &Builder{classifier: c, features: features}
}

// Classifier returns the classifier used for categories.
func (b *Builder) Classifier() *classify.Classifier { return b.classifier }

// Build partitions e's members. It has no side effects; an entity without
// members yields empty groups.
func (b *Builder) Build(e *entity.Entity) *Context {
	ctx := &Context{Entity: e, Features: b.features}
	if e.Kind == entity.KindClass {
		ctx.Category = b.classifier.Classify(e)
	}

	for _, m := range e.Members() {
		if err := checkMember(e, m); err != nil {
			ctx.Skipped = append(ctx.Skipped, Skip{QualifiedID: m.QualifiedID(), Err: err})
			continue
		}
		if e.Kind.IsModuleLike() && m.Kind.IsModuleLike() {
			ctx.Submodules = append(ctx.Submodules, m)
			continue
		}
		if m.IsPrivate() {
			ctx.Private = append(ctx.Private, m)
		} else {
			ctx.Public = append(ctx.Public, m)
		}
	}
	ctx.PublicGroups = GroupByKind(ctx.Public)
	ctx.PrivateGroups = GroupByKind(ctx.Private)
	return ctx
}

// MalformedError describes a member whose declared parent does not match its
// position in the tree, or whose payload is inconsistent with its kind.
type MalformedError struct {
	QualifiedID string
	Reason      string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed entity %s: %s", e.QualifiedID, e.Reason)
}

func checkMember(parent, m *entity.Entity) error {
	if m.DeclaredParent != "" && m.DeclaredParent != parent.QualifiedID() {
		return &MalformedError{
			QualifiedID: m.QualifiedID(),
			Reason:      fmt.Sprintf("declared parent %q does not match %q", m.DeclaredParent, parent.QualifiedID()),
		}
	}
	if err := m.Validate(); err != nil {
		return &MalformedError{QualifiedID: m.QualifiedID(), Reason: err.Error()}
	}
	return nil
}

// GroupByKind groups members by kind, preserving the order in which kinds are
// first seen and the relative order of members within a group.
func GroupByKind(members []*entity.Entity) []Group {
	var groups []Group
	index := make(map[entity.Kind]int)
	for _, m := range members {
		i, ok := index[m.Kind]
		if !ok {
			i = len(groups)
			index[m.Kind] = i
			groups = append(groups, Group{Kind: m.Kind})
		}
		groups[i].Members = append(groups[i].Members, m)
	}
	return groups
}

// Of returns the public members of the given kind.
func (c *Context) Of(kind entity.Kind) []*entity.Entity {
	return membersOf(c.PublicGroups, kind)
}

// PrivateOf returns the private members of the given kind.
func (c *Context) PrivateOf(kind entity.Kind) []*entity.Entity {
	return membersOf(c.PrivateGroups, kind)
}

// Classes returns the public classes.
func (c *Context) Classes() []*entity.Entity { return c.Of(entity.KindClass) }

// Functions returns the public module-level functions.
func (c *Context) Functions() []*entity.Entity { return c.Of(entity.KindFunction) }

// Methods returns the public methods.
func (c *Context) Methods() []*entity.Entity { return c.Of(entity.KindMethod) }

// Attributes returns the public attributes.
func (c *Context) Attributes() []*entity.Entity { return c.Of(entity.KindAttribute) }

// HasPrivate reports whether any private member survived partitioning.
func (c *Context) HasPrivate() bool { return len(c.Private) > 0 }

func membersOf(groups []Group, kind entity.Kind) []*entity.Entity {
	for _, g := range groups {
		if g.Kind == kind {
			return g.Members
		}
	}
	return nil
}
