package filters

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Ellipsis is appended to truncated text.
const Ellipsis = "..."

// sentenceWindow is how far back (in runes) from the cut point a sentence
// boundary is searched for.
const sentenceWindow = 24

// TruncateWithEllipsis shortens s to at most maxLength runes. Text already
// within the limit is returned unchanged. Otherwise it is cut after the
// nearest sentence end within sentenceWindow runes of the limit, or hard cut,
// and Ellipsis is appended. The result never exceeds maxLength, so applying
// the function twice with the same limit is a no-op.
func TruncateWithEllipsis(s string, maxLength int) string {
	if maxLength <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLength {
		return s
	}
	runes := []rune(s)
	ellipsis := utf8.RuneCountInString(Ellipsis)
	if maxLength <= ellipsis {
		return string(runes[:maxLength])
	}
	limit := maxLength - ellipsis

	cut := -1
	for i := limit - 1; i >= 0 && i >= limit-sentenceWindow; i-- {
		if isSentenceEnd(runes, i) {
			cut = i
			break
		}
	}

	var head string
	if cut >= 0 {
		head = string(runes[:cut+1])
		head = strings.TrimSuffix(head, ".")
	} else {
		head = strings.TrimRightFunc(string(runes[:limit]), unicode.IsSpace)
	}
	return head + Ellipsis
}

func isSentenceEnd(runes []rune, i int) bool {
	switch runes[i] {
	case '.', '!', '?':
		return i+1 < len(runes) && unicode.IsSpace(runes[i+1])
	}
	return false
}

// Pluralize returns noun unchanged when count is 1 and its English plural otherwise.
func Pluralize(noun string, count int) string {
	if count == 1 || noun == "" {
		return noun
	}
	lower := strings.ToLower(noun)
	switch {
	case strings.HasSuffix(lower, "s"), strings.HasSuffix(lower, "x"), strings.HasSuffix(lower, "z"),
		strings.HasSuffix(lower, "ch"), strings.HasSuffix(lower, "sh"):
		return noun + "es"
	case strings.HasSuffix(lower, "y") && len(lower) > 1 && !isVowel(rune(lower[len(lower)-2])):
		return noun[:len(noun)-1] + "ies"
	default:
		return noun + "s"
	}
}

func isVowel(r rune) bool {
	return strings.ContainsRune("aeiou", r)
}

// Underline returns an RST section underline matching the rune length of title.
func Underline(char, title string) string {
	if char == "" {
		char = "="
	}
	return strings.Repeat(char, utf8.RuneCountInString(title))
}

// Indent prefixes every non-empty line of s with n spaces.
func Indent(n int, s string) string {
	if n <= 0 || s == "" {
		return s
	}
	pad := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if strings.TrimSpace(l) != "" {
			lines[i] = pad + l
		}
	}
	return strings.Join(lines, "\n")
}
