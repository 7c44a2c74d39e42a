package entity

import (
	"strings"
	"unicode"
)

// NormalizeTypeName canonicalizes a declared type or base name: whitespace is
// removed, generic subscripts are dropped ("Generic[T]" -> "Generic") and the
// redundant "builtins." qualifier is stripped.
func NormalizeTypeName(name string) string {
	name = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, name)
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	return strings.TrimPrefix(name, "builtins.")
}

// NormalizeBases normalizes base names, dropping empties and duplicates while
// keeping declaration order.
func NormalizeBases(bases []string) []string {
	out := make([]string, 0, len(bases))
	seen := make(map[string]struct{}, len(bases))
	for _, b := range bases {
		n := NormalizeTypeName(b)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// SimpleName returns the last dotted segment of a qualified name.
func SimpleName(qualified string) string {
	if i := strings.LastIndexByte(qualified, '.'); i >= 0 {
		return qualified[i+1:]
	}
	return qualified
}

// normalizeDecorator strips the leading '@' and any call arguments:
// "@dataclass(frozen=True)" -> "dataclass".
func normalizeDecorator(d string) string {
	d = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(d), "@"))
	if i := strings.IndexByte(d, '('); i >= 0 {
		d = d[:i]
	}
	return strings.TrimSpace(d)
}

func normalizeDecorators(ds []string) []string {
	if len(ds) == 0 {
		return nil
	}
	out := make([]string, 0, len(ds))
	seen := make(map[string]struct{}, len(ds))
	for _, d := range ds {
		n := normalizeDecorator(d)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
