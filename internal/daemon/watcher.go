package daemon

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// ContentWatcher watches a content directory tree and calls onChange once per
// burst of file events, after the tree has been quiet for the debounce window.
type ContentWatcher struct {
	root     string
	debounce time.Duration
	onChange func(context.Context)
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
	ready    chan struct{}
}

// NewContentWatcher creates a watcher for root. Run starts it.
func NewContentWatcher(root string, debounce time.Duration, onChange func(context.Context), logger *slog.Logger) (*ContentWatcher, error) {
	if onChange == nil {
		return nil, ferrors.ValidationError("change callback is required").Build()
	}
	if debounce <= 0 {
		return nil, ferrors.ValidationError("debounce must be > 0").Build()
	}
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve content dir: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryDaemon, "failed to create file watcher").Build()
	}
	return &ContentWatcher{
		root:     abs,
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
		watcher:  w,
		ready:    make(chan struct{}),
	}, nil
}

// Ready is closed once the tree has been registered with the watcher.
func (cw *ContentWatcher) Ready() <-chan struct{} {
	return cw.ready
}

// Run watches until ctx is done. It always closes the underlying watcher.
func (cw *ContentWatcher) Run(ctx context.Context) error {
	defer func() { _ = cw.watcher.Close() }()

	if err := cw.addTree(cw.root); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryDaemon, "failed to watch content directory").
			WithContext("path", cw.root).
			Build()
	}
	cw.logger.InfoContext(ctx, "Watching content", logfields.Path(cw.root))
	close(cw.ready)

	timer := time.NewTimer(cw.debounce)
	timer.Stop()
	defer timer.Stop()
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-cw.watcher.Events:
			if !ok {
				return nil
			}
			if !cw.relevant(ev) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := cw.addTree(ev.Name); err != nil {
						cw.logger.WarnContext(ctx, "Failed to watch new directory", logfields.Path(ev.Name), logfields.Error(err))
					}
				}
			}
			cw.logger.DebugContext(ctx, "Content change detected", logfields.File(ev.Name), slog.String("op", ev.Op.String()))
			timer.Reset(cw.debounce)
			fire = timer.C
		case <-fire:
			fire = nil
			cw.onChange(ctx)
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return nil
			}
			cw.logger.ErrorContext(ctx, "Content watcher error", logfields.Error(err))
		}
	}
}

// relevant filters editor swap files and hidden entries such as .git.
func (cw *ContentWatcher) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	rel, err := filepath.Rel(cw.root, ev.Name)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") && part != "." {
			return false
		}
	}
	base := filepath.Base(ev.Name)
	return !strings.HasSuffix(base, "~") && !strings.HasSuffix(base, ".swp")
}

func (cw *ContentWatcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path != root {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return cw.watcher.Add(path)
	})
}
