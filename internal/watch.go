package internal

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	tt "github.com/gnoswap-labs/guard/internal/types"
)

const defaultDebounce = 100 * time.Millisecond

// Watcher re-lints Go files as they change.
type Watcher struct {
	engine *Engine
	fs     *fsnotify.Watcher
	logger *zap.Logger

	// Debounce is how long a file must stay quiet before it is linted.
	// A burst of writes to one file yields a single lint.
	Debounce time.Duration
}

// NewWatcher watches every directory under dirs. Hidden directories and
// ignored paths are skipped.
func (e *Engine) NewWatcher(logger *zap.Logger, dirs []string) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("error creating watcher: %w", err)
	}

	w := &Watcher{
		engine:   e,
		fs:       fsw,
		logger:   logger,
		Debounce: defaultDebounce,
	}
	for _, dir := range dirs {
		if err := w.addTree(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("error adding directory to watcher: %w", err)
		}
	}
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.skipDir(path) {
			return filepath.SkipDir
		}
		return w.fs.Add(path)
	})
}

func (w *Watcher) skipDir(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".") || w.engine.ShouldIgnore(path)
}

// Run lints each written Go file and passes the result to report, until
// ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context, report func(filename string, issues []tt.Issue)) error {
	done := make(chan struct{})
	defer close(done)

	ready := make(chan string)
	pending := make(map[string]*time.Timer)
	defer func() {
		for _, t := range pending {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				w.watchNewDir(event.Name)
			}
			if !w.isLintTarget(event) {
				continue
			}

			name := event.Name
			if t, ok := pending[name]; ok {
				t.Reset(w.Debounce)
				continue
			}
			pending[name] = time.AfterFunc(w.Debounce, func() {
				select {
				case ready <- name:
				case <-done:
				}
			})

		case name := <-ready:
			delete(pending, name)
			w.lint(name, report)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", zap.Error(err))
		}
	}
}

// watchNewDir adds a directory created under a watched one.
func (w *Watcher) watchNewDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() || w.skipDir(path) {
		return
	}
	if err := w.addTree(path); err != nil {
		w.logger.Warn("Error watching new directory", zap.String("dir", path), zap.Error(err))
		return
	}
	w.logger.Debug("Watching new directory", zap.String("dir", path))
}

func (w *Watcher) lint(filename string, report func(filename string, issues []tt.Issue)) {
	issues, err := w.engine.Run(filename)
	if err != nil {
		w.logger.Warn("Error linting changed file", zap.String("file", filename), zap.Error(err))
		return
	}
	w.logger.Debug("Linted changed file", zap.String("file", filename), zap.Int("issues", len(issues)))
	report(filename, issues)
}

func (w *Watcher) isLintTarget(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	return strings.HasSuffix(event.Name, ".go") && !w.engine.ShouldIgnore(event.Name)
}

func (w *Watcher) Close() error {
	return w.fs.Close()
}
