package daemon

import (
	"context"
	"io/fs"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/source"
)

// Catalog holds the current content snapshot. Readers never block; rescans
// are serialized and replace the snapshot atomically. A failed rescan keeps
// the previous snapshot.
type Catalog struct {
	fsys     fs.FS
	opts     source.Options
	recorder metrics.Recorder
	logger   *slog.Logger

	mu      sync.Mutex
	current atomic.Pointer[source.Source]
	lastErr atomic.Pointer[scanFailure]
}

type scanFailure struct {
	err error
	at  time.Time
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithCatalogRecorder records scan metrics.
func WithCatalogRecorder(r metrics.Recorder) CatalogOption {
	return func(c *Catalog) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithCatalogLogger sets the logger.
func WithCatalogLogger(l *slog.Logger) CatalogOption {
	return func(c *Catalog) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCatalog returns an empty catalog over fsys. Call Rescan to load it.
func NewCatalog(fsys fs.FS, opts source.Options, options ...CatalogOption) *Catalog {
	c := &Catalog{fsys: fsys, opts: opts, recorder: metrics.NoopRecorder{}, logger: slog.Default()}
	for _, o := range options {
		o(c)
	}
	return c
}

// Current returns the latest successful snapshot, or nil before the first scan.
func (c *Catalog) Current() *source.Source {
	return c.current.Load()
}

// LastFailure returns when the most recent rescan failed and why. The error
// is nil when the last rescan succeeded.
func (c *Catalog) LastFailure() (time.Time, error) {
	if f := c.lastErr.Load(); f != nil {
		return f.at, f.err
	}
	return time.Time{}, nil
}

// Rescan scans the content tree and publishes the result.
func (c *Catalog) Rescan(ctx context.Context) (*source.Source, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return c.Current(), err
	}

	start := time.Now()
	snap, err := source.Scan(c.fsys, c.opts)
	c.recorder.ObserveScanDuration(time.Since(start))
	c.recorder.IncScanResult(metrics.ResultFor(err, false))
	if err != nil {
		c.lastErr.Store(&scanFailure{err: err, at: time.Now()})
		if prev := c.Current(); prev != nil {
			c.logger.ErrorContext(ctx, "Content rescan failed, keeping previous snapshot",
				logfields.Error(err), logfields.Pages(prev.Len()))
		}
		return c.Current(), err
	}

	prev := c.current.Swap(snap)
	c.lastErr.Store(nil)
	c.recorder.SetPages(snap.Len())
	if prev == nil || prev.Fingerprint() != snap.Fingerprint() {
		c.logger.InfoContext(ctx, "Content snapshot updated",
			logfields.Pages(snap.Len()), logfields.Duration(time.Since(start)))
	}
	return snap, nil
}
