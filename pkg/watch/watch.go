// Package watch reports new screen recordings dropped into a directory tree.
// Events for the same file are debounced so a recording is handled once its
// writer has gone quiet.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/sipsyai/video-automation-analyzer/pkg/logger"
)

// DefaultInclude matches every supported video container
const DefaultInclude = "**/*.{mp4,avi,mov,mkv}"

// Config controls a Watcher
type Config struct {
	// Root is the directory to watch recursively
	Root string
	// Include is a doublestar pattern matched against paths relative to Root
	Include string
	// IgnoreDirs are directory names that are never descended into
	IgnoreDirs []string
	// Debounce is how long a file must stay unchanged before it is reported
	Debounce time.Duration
}

// DefaultConfig returns the defaults for root
func DefaultConfig(root string) Config {
	return Config{
		Root:       root,
		Include:    DefaultInclude,
		IgnoreDirs: []string{".git", "node_modules"},
		Debounce:   2 * time.Second,
	}
}

// Validate checks the include pattern and debounce
func (c Config) Validate() error {
	if c.Root == "" {
		return errors.New("watch root cannot be empty")
	}
	if !doublestar.ValidatePattern(c.Include) {
		return errors.Errorf("invalid include pattern %q", c.Include)
	}
	if c.Debounce < 0 {
		return errors.Errorf("debounce cannot be negative: %s", c.Debounce)
	}
	return nil
}

// Handler is called once per settled file, one call at a time
type Handler func(ctx context.Context, path string)

// Watcher watches a directory tree
type Watcher struct {
	cfg Config
}

// New returns a Watcher
func New(cfg Config) (*Watcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Watcher{cfg: cfg}, nil
}

// Matches reports whether path, absolute or relative to Root, is selected by
// the include pattern and lies outside ignored directories
func (w *Watcher) Matches(path string) bool {
	rel := path
	if filepath.IsAbs(path) {
		r, err := filepath.Rel(w.cfg.Root, path)
		if err != nil {
			return false
		}
		rel = r
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return false
	}
	for _, part := range strings.Split(rel, "/") {
		if w.ignored(part) {
			return false
		}
	}
	ok, err := doublestar.Match(strings.ToLower(w.cfg.Include), strings.ToLower(rel))
	return err == nil && ok
}

func (w *Watcher) ignored(name string) bool {
	for _, dir := range w.cfg.IgnoreDirs {
		if name == dir {
			return true
		}
	}
	return false
}

// Run watches until ctx is cancelled, calling handle for each settled file
// that matches the include pattern. Directories created while running are
// added to the watch.
func (w *Watcher) Run(ctx context.Context, handle Handler) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer fsw.Close()

	root, err := filepath.Abs(w.cfg.Root)
	if err != nil {
		return errors.Wrap(err, "failed to resolve watch root")
	}
	w.cfg.Root = root
	if err := w.addTree(ctx, fsw, root); err != nil {
		return err
	}
	logger.G(ctx).WithField("root", root).WithField("include", w.cfg.Include).Info("watching for recordings")

	settled := make(chan string)
	deb := newDebouncer(w.cfg.Debounce, settled)
	defer deb.stop()

	handlerCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case path := <-settled:
				handle(handlerCtx, path)
			case <-handlerCtx.Done():
				return
			}
		}
	}()
	defer wg.Wait()
	defer cancel()

	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, fsw, deb, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.G(ctx).WithError(err).Warn("file watcher error")
		case <-ctx.Done():
			return nil
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, fsw *fsnotify.Watcher, deb *debouncer, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		if event.Has(fsnotify.Create) && !w.ignored(filepath.Base(event.Name)) {
			if err := w.addTree(ctx, fsw, event.Name); err != nil {
				logger.G(ctx).WithError(err).WithField("directory", event.Name).Warn("failed to watch new directory")
			}
		}
		return
	}
	if w.Matches(event.Name) {
		deb.touch(event.Name)
	}
}

func (w *Watcher) addTree(ctx context.Context, fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignored(d.Name()) {
			return filepath.SkipDir
		}
		logger.G(ctx).WithField("directory", path).Debug("adding directory to watcher")
		return errors.Wrapf(fsw.Add(path), "failed to watch %s", path)
	})
}
