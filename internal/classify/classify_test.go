package classify

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pydevdocs/internal/entity"
)

func TestClassify(t *testing.T) {
	c := New(MatchExact)

	tests := []struct {
		name       string
		bases      []string
		decorators []string
		want       Category
	}{
		{"pydantic model", []string{"BaseModel"}, nil, CategoryPydanticModel},
		{"qualified pydantic model", []string{"pydantic.BaseModel"}, nil, CategoryPydanticModel},
		{"settings", []string{"pydantic_settings.BaseSettings"}, nil, CategoryPydanticModel},
		{"generic model", []string{"BaseModel", "Generic[T]"}, nil, CategoryPydanticModel},
		{"enum", []string{"Enum"}, []string{}, CategoryEnum},
		{"str enum", []string{"str", "enum.Enum"}, nil, CategoryEnum},
		{"flag beats enum", []string{"Flag", "Enum"}, nil, CategoryFlagEnum},
		{"int flag", []string{"enum.IntFlag"}, nil, CategoryFlagEnum},
		{"enum beats model", []string{"BaseModel", "Enum"}, nil, CategoryEnum},
		{"dataclass", nil, []string{"dataclass"}, CategoryDataclass},
		{"dataclass with args", nil, []string{"@dataclasses.dataclass(frozen=True)"}, CategoryDataclass},
		{"model beats dataclass", []string{"BaseModel"}, []string{"dataclass"}, CategoryPydanticModel},
		{"exception", []string{"Exception"}, nil, CategoryException},
		{"custom error base", []string{"errors.ValidationError"}, nil, CategoryException},
		{"dataclass beats exception", []string{"Exception"}, []string{"dataclass"}, CategoryDataclass},
		{"metaclass", []string{"type"}, nil, CategoryMetaclass},
		{"abc metaclass", []string{"abc.ABCMeta"}, nil, CategoryMetaclass},
		{"plain", []string{"object"}, nil, CategoryPlainClass},
		{"no bases", nil, nil, CategoryPlainClass},
		{"mixin is not a model", []string{"MyBaseModelMixin"}, nil, CategoryPlainClass},
		{"enum-ish name is not an enum", []string{"EnumerationHelper"}, nil, CategoryPlainClass},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls := entity.NewClass("C", tt.bases, tt.decorators...)
			assert.Equal(t, tt.want, c.Classify(cls))
		})
	}
}

func TestClassifySubstringMode(t *testing.T) {
	c := New(MatchSubstring)
	require.Equal(t, MatchSubstring, c.Mode())

	assert.Equal(t, CategoryPydanticModel, c.Classify(entity.NewClass("C", []string{"MyBaseModelMixin"})))
	assert.Equal(t, CategoryFlagEnum, c.Classify(entity.NewClass("C", []string{"Flag", "Enum"})))
	assert.Equal(t, CategoryException, c.Classify(entity.NewClass("C", []string{"ErrorReporter"})))
	assert.Equal(t, CategoryPlainClass, c.Classify(entity.NewClass("C", []string{"object"})))
}

func TestClassifyIsTotal(t *testing.T) {
	pool := []string{"", "Enum", "Flag", "BaseModel", "BaseSettings", "Exception", "KeyError",
		"type", "object", "Generic[T]", "a.b.c", "  ", "[", "Mixin", "ABCMeta"}
	decorators := [][]string{nil, {"dataclass"}, {"@"}, {"register", "dataclass()"}}

	for _, mode := range []MatchMode{MatchExact, MatchSubstring} {
		c := New(mode)
		for i, a := range pool {
			for _, b := range pool[i:] {
				for _, d := range decorators {
					cls := entity.NewClass("C", []string{a, b}, d...)
					var got Category
					require.NotPanics(t, func() { got = c.Classify(cls) })
					assert.True(t, slices.Contains(Categories, got), fmt.Sprintf("%s: %q %q -> %q", mode, a, b, got))
				}
			}
		}
	}
}

func TestClassifyNonClass(t *testing.T) {
	c := New(MatchExact)
	fn := entity.NewFunction("BaseModel", entity.FunctionInfo{})

	assert.Equal(t, CategoryPlainClass, c.Classify(fn))
	assert.Equal(t, CategoryPlainClass, c.Classify(nil))
	assert.False(t, c.IsPydanticModel(fn))
	assert.False(t, c.IsEnum(fn))
	assert.False(t, c.IsTool(entity.NewFunction("SearchTool", entity.FunctionInfo{})))
	assert.False(t, c.IsAgent(entity.NewModule("Agent", "")))
}

func TestPatternDetectors(t *testing.T) {
	c := New(MatchExact)

	assert.True(t, c.IsTool(entity.NewClass("Search", []string{"langchain_core.tools.BaseTool"})))
	assert.True(t, c.IsTool(entity.NewClass("CalculatorTool", nil)))
	assert.False(t, c.IsTool(entity.NewClass("Toolbox", nil)))

	assert.True(t, c.IsAgent(entity.NewClass("Planner", []string{"BaseAgent"})))
	assert.True(t, c.IsAgent(entity.NewClass("ReactAgent", nil)))
	assert.False(t, c.IsAgent(entity.NewClass("Agency", nil)))

	assert.True(t, c.IsEnum(entity.NewClass("Perm", []string{"Flag"})))
	assert.True(t, c.IsPydanticModel(entity.NewClass("M", []string{"BaseModel"})))
}

func TestParseMatchMode(t *testing.T) {
	m, err := ParseMatchMode("")
	require.NoError(t, err)
	assert.Equal(t, MatchExact, m)

	m, err = ParseMatchMode("Fuzzy")
	require.NoError(t, err)
	assert.Equal(t, MatchSubstring, m)

	_, err = ParseMatchMode("regex")
	assert.Error(t, err)

	assert.Equal(t, MatchExact, New("bogus").Mode())
}
