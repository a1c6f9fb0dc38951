// Package daemon keeps the content snapshot fresh while serving: an optional
// git mirror, a debounced file watcher and periodic rescans.
package daemon

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"git.home.luguber.info/inful/docsite/internal/config"
	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/git"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/observability"
	"git.home.luguber.info/inful/docsite/internal/source"
)

// Daemon owns the content catalog and its refresh triggers.
type Daemon struct {
	cfg        *config.Config
	contentDir string
	catalog    *Catalog
	repo       *git.Client
	recorder   metrics.Recorder
	logger     *slog.Logger
	startedAt  time.Time

	mu        sync.Mutex
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	scheduler *Scheduler
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithRecorder records scan and git metrics.
func WithRecorder(r metrics.Recorder) Option {
	return func(d *Daemon) {
		if r != nil {
			d.recorder = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Daemon) {
		if l != nil {
			d.logger = l
		}
	}
}

// New wires a daemon for cfg. Nothing runs until Prepare or Start.
func New(cfg *config.Config, opts ...Option) *Daemon {
	d := &Daemon{cfg: cfg, recorder: metrics.NoopRecorder{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}

	d.contentDir = cfg.Content.Dir
	if repo := cfg.Content.Repository; repo != nil {
		d.repo = git.NewClient(cfg.Content.Dir, *repo, git.WithRecorder(d.recorder))
		d.contentDir = d.repo.ContentDir()
	}
	d.catalog = NewCatalog(os.DirFS(d.contentDir),
		source.Options{BaseURL: cfg.Content.BaseURL},
		WithCatalogRecorder(d.recorder),
		WithCatalogLogger(d.logger))
	return d
}

// Catalog returns the snapshot holder.
func (d *Daemon) Catalog() *Catalog { return d.catalog }

// ContentDir is the directory pages are scanned from.
func (d *Daemon) ContentDir() string { return d.contentDir }

// Prepare syncs the content repository, if any, and performs the first scan.
// Either failure is fatal.
func (d *Daemon) Prepare(ctx context.Context) error {
	if d.repo != nil {
		if _, err := d.repo.Sync(ctx); err != nil {
			return err
		}
	}
	if info, err := os.Stat(d.contentDir); err != nil || !info.IsDir() {
		return ferrors.ContentScanError("content directory not found").
			WithContext("path", d.contentDir).
			Build()
	}
	_, err := d.catalog.Rescan(observability.WithStage(ctx, "scan"))
	return err
}

// Start runs Prepare and then the background refresh triggers configured in
// watch and content.repository.
func (d *Daemon) Start(ctx context.Context) error {
	if err := d.Prepare(ctx); err != nil {
		return err
	}
	d.startedAt = time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	d.cancel = cancel

	if d.cfg.Watch.Enabled {
		w, err := NewContentWatcher(d.contentDir, d.cfg.Watch.Debounce, d.rescan, d.logger)
		if err != nil {
			cancel()
			return err
		}
		runErr := make(chan error, 1)
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			err := w.Run(runCtx)
			if err != nil {
				d.logger.Error("Content watcher stopped", logfields.Error(err))
			}
			runErr <- err
		}()

		// Edits made after Start returns must be seen.
		select {
		case <-w.Ready():
		case err := <-runErr:
			cancel()
			d.wg.Wait()
			if err == nil {
				err = ferrors.DaemonError("content watcher exited before it was ready").
					WithContext("path", d.contentDir).
					Build()
			}
			return err
		case <-ctx.Done():
			cancel()
			d.wg.Wait()
			return ctx.Err()
		}
	}

	rescanEvery := d.cfg.Watch.RescanInterval
	var pullEvery time.Duration
	if d.repo != nil {
		pullEvery = d.cfg.Content.Repository.PullInterval
	}
	if rescanEvery > 0 || pullEvery > 0 {
		s, err := NewScheduler(d.logger)
		if err != nil {
			cancel()
			return ferrors.WrapError(err, ferrors.CategoryDaemon, "failed to start scheduler").Build()
		}
		if rescanEvery > 0 {
			if _, err := s.Every(runCtx, "content-rescan", rescanEvery, d.rescan); err != nil {
				cancel()
				return err
			}
		}
		if pullEvery > 0 {
			if _, err := s.Every(runCtx, "content-pull", pullEvery, d.pull); err != nil {
				cancel()
				return err
			}
		}
		s.Start()
		d.scheduler = s
	}
	return nil
}

// Stop halts the background triggers and waits for them to exit.
func (d *Daemon) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	var err error
	if d.scheduler != nil {
		err = d.scheduler.Stop()
		d.scheduler = nil
	}
	d.wg.Wait()
	return err
}

func (d *Daemon) rescan(ctx context.Context) {
	// Failures are logged by the catalog, which keeps the previous snapshot.
	_, _ = d.catalog.Rescan(observability.WithStage(ctx, "rescan"))
}

func (d *Daemon) pull(ctx context.Context) {
	res, err := d.repo.Sync(ctx)
	if err != nil {
		d.logger.ErrorContext(ctx, "Content repository sync failed", logfields.Error(err))
		return
	}
	if res.Changed {
		d.rescan(ctx)
	}
}

// Status summarizes the daemon for the health endpoint.
type Status struct {
	Pages         int       `json:"pages"`
	Fingerprint   string    `json:"fingerprint,omitempty"`
	StartedAt     time.Time `json:"startedAt"`
	LastScanError string    `json:"lastScanError,omitempty"`
}

// Status reports the current snapshot and the last scan failure, if any.
func (d *Daemon) Status() Status {
	st := Status{StartedAt: d.startedAt}
	if snap := d.catalog.Current(); snap != nil {
		st.Pages = snap.Len()
		st.Fingerprint = snap.Fingerprint()
	}
	if _, err := d.catalog.LastFailure(); err != nil {
		st.LastScanError = err.Error()
	}
	return st
}
