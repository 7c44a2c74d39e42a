package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pydevdocs/internal/entity"
)

func TestGroupBlocks(t *testing.T) {
	groups := GroupBlocks([]Block{
		{QualifiedID: "m.A", Kind: entity.KindClass},
		{QualifiedID: "m.f", Kind: entity.KindFunction},
		{QualifiedID: "m.B", Kind: entity.KindClass},
		{QualifiedID: "m.X", Kind: entity.KindAttribute},
	})

	require.Len(t, groups, 3)
	assert.Equal(t, "Classes", groups[0].Title)
	assert.Len(t, groups[0].Blocks, 2)
	assert.Equal(t, "Functions", groups[1].Title)
	assert.Equal(t, "Attributes", groups[2].Title)
	assert.Empty(t, GroupBlocks(nil))
}

func TestFallbackBlock(t *testing.T) {
	cls := entity.NewClass("Cart", nil)
	entity.NewModule("shop", "shop.py").MustAdd(cls)

	b := FallbackBlock(cls)
	assert.True(t, b.Fallback)
	assert.Equal(t, "shop.Cart", b.QualifiedID)
	assert.Equal(t, ".. py:class:: Cart\n\n   Documentation for ``shop.Cart`` could not be rendered.", b.Body)
}
