package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	ferrors "git.home.luguber.info/inful/pydevdocs/internal/foundation/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `short:"n" help:"Number of builds to list" default:"10"`
	Show  string `help:"Print the stored JSON report of the build whose id starts with this prefix"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	p, err := openPipeline(cfg, g.logger(), true)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()
	ctx := g.context()

	if h.Show != "" {
		b, ok, err := p.store.Build(ctx, h.Show)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryState, "read build").Build()
		}
		if !ok {
			return ferrors.NewError(ferrors.CategoryNotFound, "no build matches").
				WithContext("id", h.Show).Build()
		}
		_, err = fmt.Fprintln(g.stdout(), string(b.Report))
		return err
	}

	builds, err := p.store.RecentBuilds(ctx, h.Limit)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryState, "list builds").Build()
	}
	if len(builds) == 0 {
		_, err := fmt.Fprintln(g.stdout(), "No builds recorded")
		return err
	}
	tw := tabwriter.NewWriter(g.stdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "BUILD\tSTARTED\tDURATION\tOUTCOME\tPAGES\tISSUES")
	for _, b := range builds {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
			b.ID, b.StartedAt.Format(time.RFC3339), b.Duration().Truncate(time.Millisecond), b.Outcome, b.Pages, b.Issues)
	}
	return tw.Flush()
}
