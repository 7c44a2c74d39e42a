package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pydevdocs/internal/config"
)

// Global carries state shared by every subcommand.
type Global struct {
	Logger *slog.Logger
	// Context is canceled on SIGINT and SIGTERM.
	Context context.Context
	Stdout  io.Writer
	Stderr  io.Writer
}

func (g *Global) context() context.Context {
	if g.Context == nil {
		return context.Background()
	}
	return g.Context
}

func (g *Global) stdout() io.Writer {
	if g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

func (g *Global) stderr() io.Writer {
	if g.Stderr == nil {
		return os.Stderr
	}
	return g.Stderr
}

func (g *Global) logger() *slog.Logger {
	if g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"pydevdocs.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build    BuildCmd    `cmd:"" help:"Render API documentation for the configured sources"`
	Classify ClassifyCmd `cmd:"" help:"Print the category of every documented class"`
	Scan     ScanCmd     `cmd:"" help:"Scan Python sources and write an entity dump"`
	Init     InitCmd     `cmd:"" help:"Initialize a new configuration file"`
	Watch    WatchCmd    `cmd:"" help:"Build, then rebuild whenever sources change"`
	History  HistoryCmd  `cmd:"" help:"List recent builds from the state database"`
}

// AfterApply runs after flag parsing; it installs the bootstrap logger used
// until a configuration is loaded.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// NewLogger builds the logger selected by the logging configuration. Verbose
// forces debug level.
func NewLogger(w io.Writer, cfg config.LoggingConfig, verbose bool) *slog.Logger {
	level := cfg.Level.Slog()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// loadConfig loads root.Config, resolves its relative paths against the
// configuration file's directory and switches g to the configured logger.
func loadConfig(g *Global, root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	ResolvePaths(cfg, filepath.Dir(root.Config))
	g.Logger = NewLogger(g.stderr(), cfg.Logging, root.Verbose)
	slog.SetDefault(g.Logger)
	return cfg, nil
}

// ResolvePaths makes every relative path in cfg relative to base.
func ResolvePaths(cfg *config.Config, base string) {
	for i := range cfg.Sources {
		resolve(&cfg.Sources[i].Path, base)
		resolve(&cfg.Sources[i].Dump, base)
	}
	resolve(&cfg.Output.Directory, base)
	resolve(&cfg.Templates.Directory, base)
	resolve(&cfg.State.Path, base)
	resolve(&cfg.Metrics.Textfile, base)
}

func resolve(p *string, base string) {
	if *p == "" || filepath.IsAbs(*p) {
		return
	}
	*p = filepath.Join(base, *p)
}
