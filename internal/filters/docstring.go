package filters

import (
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// CleanDocstring strips the indentation a docstring inherits from its source
// position: the first line is trimmed, the common leading whitespace of the
// remaining lines is removed, and blank leading and trailing lines are dropped.
func CleanDocstring(doc string) string {
	lines := strings.Split(strings.ReplaceAll(strings.ReplaceAll(doc, "\r\n", "\n"), "\t", "    "), "\n")
	if len(lines) == 0 {
		return ""
	}
	lines[0] = strings.TrimSpace(lines[0])

	margin := -1
	for _, l := range lines[1:] {
		trimmed := strings.TrimLeft(l, " ")
		if trimmed == "" {
			continue
		}
		if n := len(l) - len(trimmed); margin < 0 || n < margin {
			margin = n
		}
	}
	for i := 1; i < len(lines); i++ {
		if margin > 0 && len(lines[i]) >= margin {
			lines[i] = lines[i][margin:]
		}
		lines[i] = strings.TrimRight(lines[i], " ")
	}

	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// DocstringSummary returns the first paragraph of a docstring joined onto a
// single line. A leading section title counts as the first paragraph; its
// adornment lines are dropped.
func DocstringSummary(doc string) string {
	src := []byte(CleanDocstring(doc))
	if len(src) == 0 {
		return ""
	}
	root := goldmark.New().Parser().Parse(text.NewReader(src))

	var summary string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch n.Kind() {
		case gmast.KindParagraph, gmast.KindHeading:
		default:
			return gmast.WalkContinue, nil
		}
		lines := n.Lines()
		parts := make([]string, 0, lines.Len())
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			line := strings.TrimSpace(string(seg.Value(src)))
			if line != "" && !isAdornment(line) {
				parts = append(parts, line)
			}
		}
		if len(parts) == 0 {
			return gmast.WalkContinue, nil
		}
		summary = strings.Join(parts, " ")
		return gmast.WalkStop, nil
	})
	return summary
}

// isAdornment reports an RST section adornment line such as "=====".
func isAdornment(line string) bool {
	if len(line) < 3 || !strings.ContainsRune("=-~^\"'`#*+:.", rune(line[0])) {
		return false
	}
	return strings.Count(line, line[:1]) == len(line)
}
