package commands

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/pydevdocs/internal/build"
	"git.home.luguber.info/inful/pydevdocs/internal/entity"
	ferrors "git.home.luguber.info/inful/pydevdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/pydevdocs/internal/logfields"
	"git.home.luguber.info/inful/pydevdocs/internal/scanner"
)

// ScanCmd implements the 'scan' command. It does not read the configuration.
type ScanCmd struct {
	Path    string   `arg:"" help:"Package directory, module file or source directory"`
	Output  string   `short:"o" help:"Write the dump to this file instead of stdout"`
	Format  string   `help:"Dump format (json or yaml); inferred from --output when omitted"`
	Exclude []string `help:"Base-name patterns to skip"`
}

func (s *ScanCmd) Run(g *Global, _ *CLI) error {
	format := entity.FormatJSON
	if s.Output != "" {
		format = entity.FormatForPath(s.Output)
	}
	if s.Format != "" {
		f, err := entity.ParseFormat(s.Format)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryValidation, "invalid dump format").Build()
		}
		format = f
	}

	logger := g.logger()
	res, err := scanner.New(scanner.Options{Exclude: s.Exclude, Logger: logger}).Scan(g.context(), s.Path)
	if err != nil {
		return err
	}
	for _, p := range res.Problems {
		logger.Warn("Module skipped", logfields.Entity(p.QualifiedID), logfields.Error(p.Err))
	}

	var buf bytes.Buffer
	if err := entity.Encode(&buf, res.Roots, format); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "encode dump").Build()
	}
	logger.Info("Scan complete", logfields.Path(s.Path), slog.Int("files", res.Files), logfields.Count(len(res.Roots)))

	if s.Output == "" {
		_, err := g.stdout().Write(buf.Bytes())
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.Output), 0o750); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create dump directory").
			WithContext("path", s.Output).Build()
	}
	if err := build.WriteFileAtomic(s.Output, buf.Bytes()); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write dump").
			WithContext("path", s.Output).Build()
	}
	return nil
}
