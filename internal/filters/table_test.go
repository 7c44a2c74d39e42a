package filters

import (
	"bytes"
	"testing"
	"text/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pydevdocs/internal/classify"
	"git.home.luguber.info/inful/pydevdocs/internal/entity"
)

func TestTableCatalog(t *testing.T) {
	table := New(nil, Options{})

	for _, name := range []string{
		NameFormatAnnotation, NameToSnakeCase, NameToKebabCase, NameTruncateWithEllipsis,
		NamePluralize, NameIsPydanticModel, NameIsEnumClass, NameIsToolClass, NameIsAgentClass,
	} {
		assert.True(t, table.Has(name), name)
	}
	assert.False(t, table.Has("upper"))
	assert.Len(t, table.Names(), len(table.FuncMap()))
}

func TestFuncMapIsACopy(t *testing.T) {
	table := New(nil, Options{})
	fm := table.FuncMap()
	delete(fm, NameFormatAnnotation)
	fm["extra"] = func() string { return "" }

	assert.True(t, table.Has(NameFormatAnnotation))
	assert.False(t, table.Has("extra"))
}

func TestFiltersInTemplate(t *testing.T) {
	table := New(classify.New(classify.MatchExact), Options{TruncateLength: 20})
	tmpl := template.Must(template.New("t").Funcs(table.FuncMap()).Parse(
		`{{ .Name | to_snake_case }} {{ is_pydantic_model . }} {{ is_tool_class . }} {{ pluralize "field" 2 }} {{ summary .Docstring }}`))

	cls := entity.NewClass("SearchTool", []string{"pydantic.BaseModel"})
	cls.Docstring = "Search the index for matching documents and rank them."

	var buf bytes.Buffer
	require.NoError(t, tmpl.Execute(&buf, cls))
	assert.Equal(t, "search_tool true true fields Search the index...", buf.String())
}

func TestPredicateFiltersUseClassifierMode(t *testing.T) {
	cls := entity.NewClass("C", []string{"MyBaseModelMixin"})

	exact := New(classify.New(classify.MatchExact), Options{}).FuncMap()[NameIsPydanticModel].(func(*entity.Entity) bool)
	substring := New(classify.New(classify.MatchSubstring), Options{}).FuncMap()[NameIsPydanticModel].(func(*entity.Entity) bool)

	assert.False(t, exact(cls))
	assert.True(t, substring(cls))
}
