package filters

import (
	"regexp"
	"strings"

	"git.home.luguber.info/inful/pydevdocs/internal/entity"
)

// AnyAnnotation is shown for missing or empty annotations.
const AnyAnnotation = "Any"

// redundantQualifier matches module qualifiers that add nothing to a rendered
// annotation. The leading group keeps the preceding delimiter and prevents
// matching inside longer dotted paths such as "mylib.typing.X".
var redundantQualifier = regexp.MustCompile(`(^|[^\w.])(?:typing_extensions|typing|collections\.abc|builtins|types|pydantic|enum)\.`)

var whitespaceRun = regexp.MustCompile(`\s+`)

// FormatAnnotation simplifies a type annotation for display. Empty input
// yields "Any".
func FormatAnnotation(annotation string) string {
	s := strings.TrimSpace(annotation)
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if s == "" {
		return AnyAnnotation
	}
	s = whitespaceRun.ReplaceAllString(s, " ")
	// Strip until stable so that the result is a fixed point.
	for {
		next := redundantQualifier.ReplaceAllString(s, "$1")
		if next == s {
			break
		}
		s = next
	}
	s = strings.ReplaceAll(s, "NoneType", "None")
	s = strings.ReplaceAll(s, "[ ", "[")
	s = strings.ReplaceAll(s, " ]", "]")
	return s
}

// FormatSignature renders a callable's parameter list and return annotation,
// e.g. "(self, items: list[Item], *args, limit: int = 10) -> Order".
func FormatSignature(e *entity.Entity) string {
	if e == nil || e.Function == nil {
		return "()"
	}
	var b strings.Builder
	b.WriteByte('(')
	keywordMarker := false
	for i, p := range e.Function.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		switch p.Kind {
		case entity.ParamVarArgs:
			b.WriteByte('*')
			keywordMarker = true
		case entity.ParamVarKwargs:
			b.WriteString("**")
		case entity.ParamKeyword:
			if !keywordMarker {
				b.WriteString("*, ")
				keywordMarker = true
			}
		}
		b.WriteString(p.Name)
		if p.Annotation != "" {
			b.WriteString(": ")
			b.WriteString(FormatAnnotation(p.Annotation))
		}
		if p.Default != "" {
			if p.Annotation != "" {
				b.WriteString(" = ")
			} else {
				b.WriteByte('=')
			}
			b.WriteString(p.Default)
		}
	}
	b.WriteByte(')')
	if e.Function.Returns != "" {
		b.WriteString(" -> ")
		b.WriteString(FormatAnnotation(e.Function.Returns))
	}
	return b.String()
}

// FormatBases renders a class's declared bases as "(A, B)", or "" when it
// has none.
func FormatBases(e *entity.Entity) string {
	if e == nil || len(e.BaseTypes) == 0 {
		return ""
	}
	parts := make([]string, 0, len(e.BaseTypes))
	for _, b := range e.BaseTypes {
		if strings.TrimSpace(b) == "" {
			continue
		}
		parts = append(parts, FormatAnnotation(b))
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// MermaidType renders an annotation in mermaid class diagram syntax, where
// generics use tildes: "list[str]" -> "list~str~".
func MermaidType(annotation string) string {
	s := FormatAnnotation(annotation)
	s = strings.NewReplacer("[", "~", "]", "~", " ", "").Replace(s)
	return s
}
