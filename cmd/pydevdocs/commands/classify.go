package commands

import (
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"git.home.luguber.info/inful/pydevdocs/internal/classify"
	"git.home.luguber.info/inful/pydevdocs/internal/entity"
	ferrors "git.home.luguber.info/inful/pydevdocs/internal/foundation/errors"
)

// ClassifyCmd implements the 'classify' command.
type ClassifyCmd struct {
	Category string `help:"Only list classes of this category"`
}

func (c *ClassifyCmd) Run(g *Global, root *CLI) error {
	filter := classify.Category(strings.TrimSpace(c.Category))
	if filter != "" && !slices.Contains(classify.Categories, filter) {
		return ferrors.ValidationError("unknown category").
			WithContext("category", c.Category).
			WithContext("valid", fmt.Sprint(classify.Categories)).Build()
	}

	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	src, err := loadSources(g.context(), cfg.Sources, g.logger())
	if err != nil {
		return err
	}

	classifier := classify.New(cfg.Render.MatchMode)
	tw := tabwriter.NewWriter(g.stdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "CLASS\tCATEGORY\tPATTERN")
	for _, r := range src.Roots {
		r.Walk(func(e *entity.Entity) bool {
			if e.Kind != entity.KindClass || e.Validate() != nil {
				return true
			}
			cat := classifier.Classify(e)
			if filter != "" && cat != filter {
				return true
			}
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", e.QualifiedID(), cat, pattern(classifier, e))
			return true
		})
	}
	return tw.Flush()
}

func pattern(c *classify.Classifier, e *entity.Entity) string {
	switch {
	case c.IsAgent(e):
		return "agent"
	case c.IsTool(e):
		return "tool"
	default:
		return "-"
	}
}
