package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pydevdocs/cmd/pydevdocs/commands"
	ferrors "git.home.luguber.info/inful/pydevdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/pydevdocs/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("pydevdocs"),
		kong.Description("Render Sphinx API reference pages for Python packages."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	global := &commands.Global{Logger: slog.Default(), Context: ctx}
	err := parser.Run(global, cli)
	stop()

	ferrors.NewCLIErrorAdapter(cli.Verbose, global.Logger).HandleError(err)
}
