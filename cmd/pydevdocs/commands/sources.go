package commands

import (
	"context"
	"log/slog"
	"os"
	"time"

	"git.home.luguber.info/inful/pydevdocs/internal/config"
	"git.home.luguber.info/inful/pydevdocs/internal/entity"
	ferrors "git.home.luguber.info/inful/pydevdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/pydevdocs/internal/logfields"
	"git.home.luguber.info/inful/pydevdocs/internal/scanner"
)

// sourceSet is the merged input of every configured source.
type sourceSet struct {
	Roots    []*entity.Entity
	Problems []entity.Problem
}

// loadSources scans or decodes every source in order. Rejected files and
// records become problems; an unreadable source fails the whole load.
func loadSources(ctx context.Context, sources []config.SourceConfig, logger *slog.Logger) (*sourceSet, error) {
	set := &sourceSet{}
	for _, src := range sources {
		start := time.Now()
		var roots []*entity.Entity
		var problems []entity.Problem
		if src.Dump != "" {
			dump, err := readDump(src.Dump)
			if err != nil {
				return nil, err
			}
			roots, problems = dump.Roots, dump.Problems
		} else {
			res, err := scanner.New(scanner.Options{Exclude: src.Exclude, Logger: logger}).Scan(ctx, src.Path)
			if err != nil {
				return nil, err
			}
			roots, problems = res.Roots, res.Problems
		}
		for _, p := range problems {
			logger.Warn("Entity rejected", logfields.Source(src.Name), logfields.Entity(p.QualifiedID), logfields.Error(p.Err))
		}
		logger.Info("Source loaded",
			logfields.Source(src.Name),
			logfields.Count(len(roots)),
			slog.Int("problems", len(problems)),
			logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
		set.Roots = append(set.Roots, roots...)
		set.Problems = append(set.Problems, problems...)
	}
	return set, nil
}

func readDump(path string) (*entity.Dump, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryIngest, "open entity dump").
			WithContext("path", path).UserAction().Build()
	}
	defer func() { _ = f.Close() }()

	dump, err := entity.Decode(f, entity.FormatForPath(path))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryIngest, "decode entity dump").
			WithContext("path", path).Build()
	}
	return dump, nil
}
