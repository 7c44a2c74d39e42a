package filters

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pydevdocs/internal/entity"
)

func TestFormatAnnotation(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "Any"},
		{"   ", "Any"},
		{"''", "Any"},
		{"int", "int"},
		{"typing.Optional[typing.List[str]]", "Optional[List[str]]"},
		{"typing_extensions.Annotated[int, 'meta']", "Annotated[int, 'meta']"},
		{"collections.abc.Callable[[int], builtins.str]", "Callable[[int], str]"},
		{"'pydantic.BaseModel'", "BaseModel"},
		{"dict[str,\n    typing.Any]", "dict[str, Any]"},
		{"mylib.typing.Thing", "mylib.typing.Thing"},
		{"my_typing.Thing", "my_typing.Thing"},
		{"str | NoneType", "str | None"},
		{"typing.typing.X", "X"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := FormatAnnotation(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, FormatAnnotation(got), "format_annotation must be a fixed point")
		})
	}
}

func TestFormatSignature(t *testing.T) {
	fn := entity.NewMethod("fetch", entity.FunctionInfo{
		Params: []entity.Param{
			{Name: "self", Kind: entity.ParamPositional},
			{Name: "items", Annotation: "typing.List[Item]", Kind: entity.ParamPositional},
			{Name: "strict", Default: "False", Kind: entity.ParamKeyword},
			{Name: "kwargs", Annotation: "typing.Any", Kind: entity.ParamVarKwargs},
		},
		Returns: "typing.Optional[Order]",
	})
	assert.Equal(t, "(self, items: List[Item], *, strict=False, **kwargs: Any) -> Optional[Order]", FormatSignature(fn))

	varargs := entity.NewFunction("f", entity.FunctionInfo{Params: []entity.Param{
		{Name: "args", Kind: entity.ParamVarArgs},
		{Name: "limit", Annotation: "int", Default: "10", Kind: entity.ParamKeyword},
	}})
	assert.Equal(t, "(*args, limit: int = 10)", FormatSignature(varargs))
	assert.Equal(t, "()", FormatSignature(entity.NewClass("C", nil)))
}

func TestCaseConversion(t *testing.T) {
	snake := map[string]string{
		"AgentConfig":       "agent_config",
		"parseHTTPResponse": "parse_http_response",
		"HTTPServer":        "http_server",
		"already_snake":     "already_snake",
		"__init__":          "__init__",
		"utf8Decoder":       "utf8_decoder",
		"Version2Parser":    "version2_parser",
		"kebab-case-name":   "kebab_case_name",
		"":                  "",
	}
	for in, want := range snake {
		assert.Equal(t, want, ToSnakeCase(in), in)
		assert.Equal(t, ToSnakeCase(in), ToSnakeCase(ToSnakeCase(in)), "snake case is idempotent for %q", in)
	}

	assert.Equal(t, "agent-config", ToKebabCase("AgentConfig"))
	assert.Equal(t, "init", ToKebabCase("__init__"))
	assert.Equal(t, "Agent Config", TitleCase("agent_config"))
	assert.Equal(t, "HTTP Server", TitleCase("HTTP server"))
}

func TestTruncateWithEllipsis(t *testing.T) {
	long := "Compute the checksum of a document. The checksum covers frontmatter and body bytes."

	assert.Equal(t, "short", TruncateWithEllipsis("short", 10))
	assert.Equal(t, "Compute the checksum of a document...", TruncateWithEllipsis(long, 50))
	assert.Equal(t, "Compute the...", TruncateWithEllipsis(long, 15))
	assert.Equal(t, "Com", TruncateWithEllipsis(long, 3))
	assert.Empty(t, TruncateWithEllipsis(long, 0))
	assert.Equal(t, "ÄÖÜ...", TruncateWithEllipsis("ÄÖÜÄÖÜÄÖÜ", 6))
}

func TestTruncateIsIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"One sentence only",
		"First. Second sentence is here! Third one?",
		strings.Repeat("word ", 40),
		"Ünïcödé text that goes on and on. And on.",
	}
	for _, s := range inputs {
		for n := 0; n <= 60; n++ {
			once := TruncateWithEllipsis(s, n)
			require.LessOrEqual(t, utf8.RuneCountInString(once), max(n, 0), "%q n=%d", s, n)
			assert.Equal(t, once, TruncateWithEllipsis(once, n), "%q n=%d", s, n)
		}
	}
}

func TestPluralize(t *testing.T) {
	tests := []struct {
		noun  string
		count int
		want  string
	}{
		{"class", 1, "class"},
		{"class", 2, "classes"},
		{"method", 0, "methods"},
		{"property", 3, "properties"},
		{"key", 2, "keys"},
		{"index", 2, "indexes"},
		{"patch", 2, "patches"},
		{"", 5, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Pluralize(tt.noun, tt.count), "%s/%d", tt.noun, tt.count)
	}
}

func TestDocstringSummary(t *testing.T) {
	doc := `
        Fetch an order by id.

        Looks the order up in the primary store
        and falls back to the archive.

        Args:
            order_id: the id.
    `
	assert.Equal(t, "Fetch an order by id.", DocstringSummary(doc))
	assert.Equal(t, "Wrapped summary that continues here.", DocstringSummary("Wrapped summary\n    that continues here.\n\n    Body."))
	assert.Empty(t, DocstringSummary("   \n  "))
}

func TestDocstringSummarySectionTitles(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"equals underline", "Order service\n    =============\n\n    Places orders.", "Order service"},
		{"dash underline", "Order service\n    -------------\n\n    Places orders.", "Order service"},
		{"overline and underline", "\n    =====\n    Title\n    =====\n\n    Body.", "Title"},
		{"plain paragraph", "Places orders.\n\n    More.", "Places orders."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DocstringSummary(tt.doc))
		})
	}
}

func TestCleanDocstring(t *testing.T) {
	doc := "Summary.\n\n        Details line.\n            Indented.\n    "
	assert.Equal(t, "Summary.\n\nDetails line.\n    Indented.", CleanDocstring(doc))
}

func TestUnderlineAndIndent(t *testing.T) {
	assert.Equal(t, "=====", Underline("=", "Größe"))
	assert.Equal(t, "---", Underline("-", "abc"))
	assert.Equal(t, "==", Underline("", "ab"))
	assert.Equal(t, "   a\n\n   b", Indent(3, "a\n\nb"))
	assert.Equal(t, "a", Indent(0, "a"))
}

func TestFormatBasesAndMermaid(t *testing.T) {
	assert.Equal(t, "(BaseModel, Generic[T])", FormatBases(entity.NewClass("M", []string{"pydantic.BaseModel", "typing.Generic[T]"})))
	assert.Empty(t, FormatBases(entity.NewClass("C", nil)))
	assert.Empty(t, FormatBases(nil))

	assert.Equal(t, "Dict~str,int~", MermaidType("typing.Dict[str, int]"))
	assert.Equal(t, "Any", MermaidType(""))
}
