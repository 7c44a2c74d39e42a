package commands

import (
	"fmt"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output  string `short:"o" help:"Output directory (overrides output.directory)"`
	Clean   bool   `help:"Remove the output directory before writing"`
	Force   bool   `short:"f" help:"Rewrite pages even when their content is unchanged"`
	DryRun  bool   `name:"dry-run" help:"Render without writing pages, reports or state"`
	NoState bool   `name:"no-state" help:"Build without the state database (no incremental writes, pruning or history)"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	p, err := openPipeline(cfg, g.logger(), !b.NoState)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	report, err := p.run(g.context(), buildFlags{
		Output: b.Output,
		Clean:  b.Clean,
		Force:  b.Force,
		DryRun: b.DryRun,
	})
	if report != nil {
		_, _ = fmt.Fprintln(g.stdout(), report.Summary())
	}
	return err
}
