package dispatch

import (
	"git.home.luguber.info/inful/pydevdocs/internal/entity"
	"git.home.luguber.info/inful/pydevdocs/internal/filters"
	"git.home.luguber.info/inful/pydevdocs/internal/rendercontext"
)

// View is the data handed to templates: the entity's RenderContext plus, for
// module pages, the already rendered member blocks.
type View struct {
	*rendercontext.Context

	Groups        []BlockGroup
	PrivateBlocks []Block
	// SubmodulePages are toctree entries for the page's submodules,
	// relative to the page itself and without the file suffix.
	SubmodulePages []string

	// Nested holds the rendered blocks of a class's nested classes, keyed by
	// qualified id.
	Nested map[string]Block
}

// NestedBlock returns the rendered body of the nested class e, or "" when
// e was not rendered ahead of its owner.
func (v *View) NestedBlock(e *entity.Entity) string {
	if e == nil || e.Kind != entity.KindClass {
		return ""
	}
	return v.Nested[e.QualifiedID()].Body
}

// Block is one rendered member of a page.
type Block struct {
	QualifiedID string
	Kind        entity.Kind
	Body        string
	// Fallback is set when Body is the minimal placeholder emitted after a
	// render failure.
	Fallback bool
}

// BlockGroup is a run of blocks sharing a kind, with its section title.
type BlockGroup struct {
	Kind   entity.Kind
	Title  string
	Blocks []Block
}

// GroupBlocks groups blocks by kind in first-seen order.
func GroupBlocks(blocks []Block) []BlockGroup {
	var groups []BlockGroup
	index := make(map[entity.Kind]int)
	for _, b := range blocks {
		i, ok := index[b.Kind]
		if !ok {
			i = len(groups)
			index[b.Kind] = i
			groups = append(groups, BlockGroup{
				Kind:  b.Kind,
				Title: filters.TitleCase(filters.Pluralize(string(b.Kind), 2)),
			})
		}
		groups[i].Blocks = append(groups[i].Blocks, b)
	}
	return groups
}

// FallbackBlock is the minimal block emitted for a member whose template
// failed, so that every documented object still appears on its page.
func FallbackBlock(e *entity.Entity) Block {
	directive := "py:data"
	switch e.Kind {
	case entity.KindClass:
		directive = "py:class"
	case entity.KindFunction:
		directive = "py:function"
	case entity.KindMethod:
		directive = "py:method"
	case entity.KindModule, entity.KindPackage:
		directive = "py:module"
	}
	body := ".. " + directive + ":: " + e.Name + "\n\n   Documentation for ``" + e.QualifiedID() + "`` could not be rendered."
	return Block{QualifiedID: e.QualifiedID(), Kind: e.Kind, Body: body, Fallback: true}
}
