// Package export assembles rendered pages into the llms.txt document and
// writes prerendered routes to disk.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/inful/mdfp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/render"
	"git.home.luguber.info/inful/docsite/internal/source"
)

// Separator joins page units in an export.
const Separator = "\n\n"

// Snapshots provides the current content snapshot, or nil before the first
// successful scan.
type Snapshots interface {
	Current() *source.Source
}

// Result is a complete export.
type Result struct {
	Body  string
	ETag  string
	Pages int
}

// Exporter renders snapshots into llms.txt exports. Results are memoized per
// snapshot and concurrent requests for the same snapshot share one render.
type Exporter struct {
	snapshots   Snapshots
	concurrency int
	recorder    metrics.Recorder
	logger      *slog.Logger

	group singleflight.Group
	mu    sync.Mutex
	memo  *memoEntry
}

type memoEntry struct {
	snap   *source.Source
	result Result
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithConcurrency bounds the number of pages rendered at once.
// Values below one select GOMAXPROCS.
func WithConcurrency(n int) Option {
	return func(e *Exporter) { e.concurrency = n }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(e *Exporter) {
		if r != nil {
			e.recorder = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Exporter) {
		if l != nil {
			e.logger = l
		}
	}
}

// New returns an Exporter reading from snapshots.
func New(snapshots Snapshots, opts ...Option) *Exporter {
	e := &Exporter{
		snapshots: snapshots,
		recorder:  metrics.NoopRecorder{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.concurrency < 1 {
		e.concurrency = runtime.GOMAXPROCS(0)
	}
	return e
}

// Export renders every page of the current snapshot and joins the units in
// catalog order. The first page that fails to render fails the export.
func (e *Exporter) Export(ctx context.Context) (Result, error) {
	snap, err := e.current()
	if err != nil {
		return Result{}, err
	}
	if res, ok := e.cached(snap); ok {
		e.recorder.IncExportResult(metrics.ResultCached)
		return res, nil
	}

	// The shared render outlives any single caller; each caller stops
	// waiting when its own context ends.
	ch := e.group.DoChan(fmt.Sprintf("%p", snap), func() (any, error) {
		return e.export(context.WithoutCancel(ctx), snap)
	})
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return Result{}, r.Err
		}
		return r.Val.(Result), nil
	}
}

func (e *Exporter) export(ctx context.Context, snap *source.Source) (Result, error) {
	start := time.Now()
	pages := snap.Pages()
	units := make([]string, len(pages))
	pipeline := render.NewPipeline(snap.FS(), render.WithLogger(e.logger))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	e.recorder.SetRenderConcurrency(e.concurrency)

	for i, page := range pages {
		g.Go(func() error {
			pageStart := time.Now()
			unit, err := pipeline.Render(gctx, page)
			e.recorder.ObserveRenderDuration(time.Since(pageStart))
			e.recorder.IncRenderResult(metrics.ResultFor(err, errors.Is(err, context.Canceled)))
			if err != nil {
				return err
			}
			units[i] = unit.String()
			return nil
		})
	}

	err := g.Wait()
	e.recorder.ObserveExportDuration(time.Since(start))
	e.recorder.IncExportResult(metrics.ResultFor(err, errors.Is(err, context.Canceled)))
	if err != nil {
		e.logger.Warn("Export failed", logfields.Pages(len(pages)), logfields.Error(err))
		return Result{}, err
	}

	res := Result{
		Body:  strings.Join(units, Separator),
		ETag:  etag(snap.Fingerprint()),
		Pages: len(pages),
	}
	e.store(snap, res)
	e.logger.Info("Export rendered",
		logfields.Pages(len(pages)),
		logfields.Bytes(len(res.Body)),
		logfields.Duration(time.Since(start)))
	return res, nil
}

// Page renders the single page addressed by slugs.
func (e *Exporter) Page(ctx context.Context, slugs []string) (render.Unit, string, error) {
	snap, err := e.current()
	if err != nil {
		return render.Unit{}, "", err
	}
	page, ok := snap.GetPage(slugs)
	if !ok {
		return render.Unit{}, "", ferrors.NotFoundError("page not found").
			WithContext("url", source.BuildURL(snap.BaseURL(), slugs)).
			Build()
	}

	start := time.Now()
	unit, err := render.NewPipeline(snap.FS(), render.WithLogger(e.logger)).Render(ctx, page)
	e.recorder.ObserveRenderDuration(time.Since(start))
	e.recorder.IncRenderResult(metrics.ResultFor(err, errors.Is(err, context.Canceled)))
	if err != nil {
		return render.Unit{}, "", err
	}
	// Includes are not part of the page fingerprint, so the tag is scoped to
	// the snapshot.
	return unit, etag(mdfp.CalculateFingerprintFromParts(snap.Fingerprint(), page.Fingerprint)), nil
}

func (e *Exporter) current() (*source.Source, error) {
	snap := e.snapshots.Current()
	if snap == nil {
		return nil, ferrors.ContentScanError("content not loaded").Build()
	}
	return snap, nil
}

func (e *Exporter) cached(snap *source.Source) (Result, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.memo != nil && e.memo.snap == snap {
		return e.memo.result, true
	}
	return Result{}, false
}

func (e *Exporter) store(snap *source.Source, res Result) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.memo = &memoEntry{snap: snap, result: res}
}

func etag(fingerprint string) string {
	return `"` + fingerprint + `"`
}
