package filters

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ToSnakeCase converts an identifier to snake_case. Word boundaries are case
// transitions ("parseHTTPResponse" -> "parse_http_response"), digit-to-upper
// transitions, underscores, hyphens and spaces. Snake case input is returned
// unchanged.
func ToSnakeCase(s string) string {
	runes := []rune(strings.TrimSpace(s))
	var b strings.Builder
	b.Grow(len(runes) + 4)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || unicode.IsSpace(r):
			b.WriteByte('_')
		case unicode.IsUpper(r):
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ToKebabCase converts an identifier to kebab-case, dropping leading and
// trailing separators ("__init__" -> "init").
func ToKebabCase(s string) string {
	return strings.Trim(strings.ReplaceAll(ToSnakeCase(s), "_", "-"), "-")
}

// TitleCase turns an identifier or phrase into a heading ("agent_config" -> "Agent Config").
func TitleCase(s string) string {
	words := strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(s))
	// Casers keep state and are created per call.
	return cases.Title(language.English, cases.NoLower).String(strings.Join(words, " "))
}
