package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"time"

	"git.home.luguber.info/inful/pydevdocs/internal/config"
	ferrors "git.home.luguber.info/inful/pydevdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/pydevdocs/internal/logfields"
	"git.home.luguber.info/inful/pydevdocs/internal/metrics"
	"git.home.luguber.info/inful/pydevdocs/internal/watch"
)

const metricsShutdownTimeout = 5 * time.Second

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Output        string `short:"o" help:"Output directory (overrides output.directory)"`
	MetricsListen string `name:"metrics-listen" help:"Serve /metrics on this address while watching (overrides metrics.listen)"`
}

func (c *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	logger := g.logger()
	p, err := openPipeline(cfg, logger, true)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()
	ctx := g.context()

	rebuild := func(ctx context.Context) error {
		report, err := p.run(ctx, buildFlags{Output: c.Output})
		if report != nil {
			_, _ = fmt.Fprintln(g.stdout(), report.Summary())
		}
		return err
	}
	if err := rebuild(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		logger.Error("Initial build failed", logfields.Error(err))
	}

	w, err := watch.New(watch.Options{
		Roots:      WatchRoots(cfg),
		Exclude:    WatchExcludes(cfg, c.Output),
		Debounce:   cfg.Watch.DebounceDuration(),
		Extensions: WatchExtensions(cfg),
		Logger:     logger,
	})
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "start watcher").Build()
	}
	defer func() { _ = w.Close() }()

	listen := c.MetricsListen
	if listen == "" {
		listen = cfg.Metrics.Listen
	}
	if listen != "" {
		_, stop, err := serveMetrics(listen, p.recorder, logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	logger.Info("Watching for changes", logfields.Count(len(w.Watching())))
	return w.Run(ctx, rebuild)
}

// WatchRoots returns the paths whose changes trigger a rebuild.
func WatchRoots(cfg *config.Config) []string {
	var roots []string
	for _, src := range cfg.Sources {
		if src.Dump != "" {
			roots = append(roots, src.Dump)
		} else {
			roots = append(roots, src.Path)
		}
	}
	if dir := cfg.Templates.Directory; dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			roots = append(roots, dir)
		}
	}
	return roots
}

// WatchExcludes returns the paths a build writes to. Changes there never
// trigger a rebuild. output overrides output.directory when set.
func WatchExcludes(cfg *config.Config, output string) []string {
	if output == "" {
		output = cfg.Output.Directory
	}
	var paths []string
	for _, p := range []string{output, cfg.State.Path, cfg.Metrics.Textfile} {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// WatchExtensions returns the file suffixes relevant to cfg's sources and
// template overrides.
func WatchExtensions(cfg *config.Config) []string {
	exts := slices.Clone(watch.DefaultExtensions)
	for _, src := range cfg.Sources {
		if src.Dump != "" {
			exts = append(exts, filepath.Ext(src.Dump))
		}
	}
	if cfg.Templates.Directory != "" {
		exts = append(exts, ".rst", ".tmpl")
	}
	slices.Sort(exts)
	return slices.Compact(exts)
}

// serveMetrics serves the recorder's registry on addr until the returned
// stop function is called. It returns the bound address.
func serveMetrics(addr string, recorder *metrics.PrometheusRecorder, logger *slog.Logger) (string, func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, ferrors.WrapError(err, ferrors.CategoryRuntime, "listen for metrics").
			WithContext("address", addr).
			WithHint("choose a free address with --metrics-listen").Build()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(recorder.Gatherer()))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", logfields.Error(err))
		}
	}()
	bound := ln.Addr().String()
	logger.Info("Serving metrics", slog.String("address", bound))

	return bound, func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(ctx)
		<-done
	}, nil
}
