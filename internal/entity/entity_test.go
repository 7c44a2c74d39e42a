package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree(t *testing.T) *Entity {
	t.Helper()
	pkg := NewPackage("haive.core", "haive/core")
	mod := NewModule("models", "haive/core/models.py")
	cls := NewClass("Config", []string{"pydantic.BaseModel"})
	cls.MustAdd(
		NewAttribute("name", AttributeInfo{Annotation: "str"}),
		NewMethod("validate", FunctionInfo{Returns: "bool"}),
		NewMethod("_private", FunctionInfo{}),
	)
	mod.MustAdd(cls, NewFunction("load", FunctionInfo{}))
	require.NoError(t, pkg.Add(mod))
	return pkg
}

func TestQualifiedIDsDerivedFromPosition(t *testing.T) {
	root := sampleTree(t)

	var ids []string
	root.Walk(func(e *Entity) bool {
		ids = append(ids, e.QualifiedID())
		return true
	})

	assert.Equal(t, []string{
		"haive.core",
		"haive.core.models",
		"haive.core.models.Config",
		"haive.core.models.Config.name",
		"haive.core.models.Config.validate",
		"haive.core.models.Config._private",
		"haive.core.models.load",
	}, ids)
	assert.Equal(t, 7, root.Count())
}

func TestAddRejectsInvalidAttachments(t *testing.T) {
	mod := NewModule("m", "m.py")
	cls := NewClass("C", nil)
	require.NoError(t, mod.Add(cls))

	other := NewModule("other", "other.py")
	assert.ErrorContains(t, other.Add(cls), "already a member of m")
	assert.ErrorContains(t, mod.Add(NewMethod("f", FunctionInfo{})), "cannot own a method")
	assert.ErrorContains(t, cls.Add(NewModule("x", "")), "cannot own a module")
	assert.ErrorContains(t, mod.Add(NewClass("a.b", nil)), "cannot contain dots")
	assert.ErrorContains(t, mod.Add(mod), "cannot own itself")
	assert.Error(t, mod.Add(nil))

	assert.Equal(t, "m.C", cls.QualifiedID(), "failed attachments must not change ids")
}

func TestAddRejectsCycles(t *testing.T) {
	outer := NewClass("Outer", nil)
	inner := NewClass("Inner", nil)
	deepest := NewClass("Deepest", nil)
	require.NoError(t, outer.Add(inner))
	require.NoError(t, inner.Add(deepest))

	assert.ErrorContains(t, inner.Add(outer), "cannot own its ancestor")
	assert.ErrorContains(t, deepest.Add(outer), "cannot own its ancestor")
	assert.Nil(t, outer.Parent())
	assert.Equal(t, 3, outer.Count())
}

func TestFind(t *testing.T) {
	root := sampleTree(t)

	found := root.Find("haive.core.models.Config.validate")
	require.NotNil(t, found)
	assert.Equal(t, KindMethod, found.Kind)
	assert.Equal(t, "Config", found.Parent().Name)

	assert.Nil(t, root.Find("haive.core.missing"))
	assert.Same(t, root, root.Find("haive.core"))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, NewClass("C", []string{"Enum"}).Validate())
	assert.NoError(t, NewFunction("f", FunctionInfo{}).Validate())

	bad := NewFunction("f", FunctionInfo{})
	bad.Class = &ClassInfo{}
	assert.ErrorContains(t, bad.Validate(), "exactly one payload")

	mismatched := &Entity{Name: "x", Kind: KindClass, id: "x", Function: &FunctionInfo{}}
	assert.ErrorContains(t, mismatched.Validate(), "does not match kind")

	withBases := NewAttribute("a", AttributeInfo{})
	withBases.BaseTypes = []string{"Enum"}
	assert.ErrorContains(t, withBases.Validate(), "declares base types")

	assert.ErrorContains(t, (&Entity{Kind: KindModule, Module: &ModuleInfo{}}).Validate(), "empty name")
	assert.ErrorContains(t, (&Entity{Name: "x", Kind: "widget"}).Validate(), "unknown kind")
}

func TestDecoratorsAndBasesNormalized(t *testing.T) {
	cls := NewClass("Point", []string{" Generic[T] ", "builtins.object", "Generic[T]"}, "@dataclass(frozen=True)", "dataclass", "functools.total_ordering")

	assert.Equal(t, []string{"Generic", "object"}, cls.Class.Bases)
	assert.Equal(t, []string{"dataclass", "functools.total_ordering"}, cls.Decorators)
	assert.True(t, cls.HasDecorator("dataclass"))
	assert.True(t, cls.HasDecorator("total_ordering"))
	assert.False(t, cls.HasDecorator("cached_property"))
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("Property")
	require.NoError(t, err)
	assert.Equal(t, KindAttribute, k)

	k, err = ParseKind("exception")
	require.NoError(t, err)
	assert.Equal(t, KindClass, k)

	_, err = ParseKind("")
	assert.Error(t, err)
	_, err = ParseKind("widget")
	assert.Error(t, err)
}

func TestIsPrivate(t *testing.T) {
	assert.True(t, NewMethod("_helper", FunctionInfo{}).IsPrivate())
	assert.True(t, NewMethod("__init__", FunctionInfo{}).IsPrivate())
	assert.False(t, NewMethod("run", FunctionInfo{}).IsPrivate())
}
