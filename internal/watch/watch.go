// Package watch rebuilds documentation when Python sources change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/pydevdocs/internal/logfields"
)

// DefaultDebounce is how long the watcher waits for changes to settle.
const DefaultDebounce = 300 * time.Millisecond

// DefaultExtensions are the file suffixes that trigger a rebuild.
var DefaultExtensions = []string{".py"}

// BuildFunc runs one rebuild. Errors are logged and do not stop watching.
type BuildFunc func(ctx context.Context) error

// Options configure a Watcher.
type Options struct {
	// Roots are directories watched recursively. A file root is watched
	// through its parent directory and only its own changes count.
	Roots []string
	// Exclude lists paths whose changes never trigger a rebuild, such as
	// the output directory the rebuild writes to.
	Exclude    []string
	Debounce   time.Duration
	Extensions []string
	Logger     *slog.Logger
}

// Watcher turns filesystem events under a set of roots into debounced,
// non-overlapping rebuilds.
type Watcher struct {
	watcher    *fsnotify.Watcher
	debounce   time.Duration
	extensions []string
	logger     *slog.Logger

	dirs    []string
	files   map[string]bool
	exclude []string
}

// New starts watching opts.Roots.
func New(opts Options) (*Watcher, error) {
	if len(opts.Roots) == 0 {
		return nil, errors.New("watch requires at least one root")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	w := &Watcher{
		watcher:    fw,
		debounce:   opts.Debounce,
		extensions: opts.Extensions,
		logger:     opts.Logger,
		files:      make(map[string]bool),
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if len(w.extensions) == 0 {
		w.extensions = DefaultExtensions
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	for _, path := range opts.Exclude {
		if abs, err := filepath.Abs(path); err == nil {
			w.exclude = append(w.exclude, abs)
		}
	}
	for _, root := range opts.Roots {
		abs, err := filepath.Abs(root)
		if err == nil {
			var info os.FileInfo
			if info, err = os.Stat(abs); err == nil {
				err = w.addRoot(abs, info.IsDir())
			}
		}
		if err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("watch %s: %w", root, err)
		}
	}
	return w, nil
}

func (w *Watcher) addRoot(root string, dir bool) error {
	if dir {
		w.dirs = append(w.dirs, root)
		w.addRecursive(root)
		return nil
	}
	w.files[root] = true
	parent := filepath.Dir(root)
	if slices.Contains(w.watcher.WatchList(), parent) {
		return nil
	}
	return w.watcher.Add(parent)
}

// Close stops watching.
func (w *Watcher) Close() error { return w.watcher.Close() }

// Watching returns the watched directories.
func (w *Watcher) Watching() []string { return w.watcher.WatchList() }

// Run calls build after relevant changes until ctx is canceled. Changes
// arriving during a build queue exactly one follow-up build. Run returns nil
// on cancellation once any running build has returned.
func (w *Watcher) Run(ctx context.Context, build BuildFunc) error {
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	// done is nil while no build is running.
	var (
		done    chan struct{}
		pending bool
	)
	start := func() {
		done = make(chan struct{})
		go func(done chan struct{}) {
			defer close(done)
			began := time.Now()
			w.logger.Info("Change detected; rebuilding")
			if err := build(ctx); err != nil {
				w.logger.Warn("Rebuild failed", logfields.Error(err))
				return
			}
			w.logger.Debug("Rebuild finished", logfields.DurationMS(float64(time.Since(began).Milliseconds())))
		}(done)
	}

	for {
		select {
		case <-ctx.Done():
			if done != nil {
				<-done
			}
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if w.handle(ev) {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", logfields.Error(err))
		case <-timer.C:
			if done != nil {
				pending = true
				continue
			}
			start()
		case <-done:
			done = nil
			if pending {
				pending = false
				start()
			}
		}
	}
}

// handle reports whether ev should trigger a rebuild. New directories are
// added to the watch list.
func (w *Watcher) handle(ev fsnotify.Event) bool {
	name := filepath.Clean(ev.Name)
	if ignored(name) || w.excluded(name) {
		return false
	}
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
		return false
	}
	if w.files[name] {
		w.logger.Debug("File change detected", logfields.File(name), slog.String("op", ev.Op.String()))
		return true
	}
	if !slices.ContainsFunc(w.dirs, func(dir string) bool { return within(name, dir) }) {
		return false
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(name); err == nil && info.IsDir() {
			w.addRecursive(name)
			return true
		}
	}
	ext := filepath.Ext(name)
	if slices.Contains(w.extensions, ext) {
		w.logger.Debug("File change detected", logfields.File(name), slog.String("op", ev.Op.String()))
		return true
	}
	// A removed or renamed directory has no extension.
	return ext == "" && (ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename))
}

func (w *Watcher) addRecursive(root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if (path != root && ignored(path)) || w.excluded(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

func (w *Watcher) excluded(path string) bool {
	return slices.ContainsFunc(w.exclude, func(ex string) bool { return within(path, ex) })
}

// within reports whether path is dir or lies below it.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// ignored reports hidden entries, editor temp files and bytecode caches.
func ignored(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."), strings.HasPrefix(base, "#"):
		return true
	case strings.HasSuffix(base, "~"), strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"):
		return true
	case base == "__pycache__":
		return true
	}
	return false
}
