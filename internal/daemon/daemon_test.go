package daemon

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"git.home.luguber.info/inful/docsite/internal/config"
	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/source"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func file(s string) *fstest.MapFile { return &fstest.MapFile{Data: []byte(s)} }

type scanRecorder struct {
	metrics.NoopRecorder
	mu      sync.Mutex
	results []metrics.ResultLabel
	pages   int
}

func (r *scanRecorder) IncScanResult(l metrics.ResultLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, l)
}

func (r *scanRecorder) SetPages(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages = n
}

func TestCatalogKeepsPreviousSnapshotOnFailure(t *testing.T) {
	fsys := fstest.MapFS{"a.mdx": file("one")}
	rec := &scanRecorder{}
	c := NewCatalog(fsys, source.Options{BaseURL: "/docs"}, WithCatalogRecorder(rec))
	assert.Nil(t, c.Current())

	first, err := c.Rescan(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, c.Current())
	assert.Equal(t, 1, first.Len())

	fsys["a.md"] = file("collides")
	snap, err := c.Rescan(context.Background())
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryContent))
	assert.Same(t, first, snap)
	assert.Same(t, first, c.Current())
	at, lastErr := c.LastFailure()
	require.Error(t, lastErr)
	assert.False(t, at.IsZero())

	delete(fsys, "a.md")
	fsys["b.mdx"] = file("two")
	second, err := c.Rescan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, second.Len())
	_, lastErr = c.LastFailure()
	assert.NoError(t, lastErr)

	assert.Equal(t, []metrics.ResultLabel{metrics.ResultSuccess, metrics.ResultFailed, metrics.ResultSuccess}, rec.results)
	assert.Equal(t, 2, rec.pages)
}

func TestCatalogRescanHonorsCanceledContext(t *testing.T) {
	c := NewCatalog(fstest.MapFS{"a.mdx": file("x")}, source.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	snap, err := c.Rescan(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, snap)
}

func TestContentWatcherDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	w, err := NewContentWatcher(dir, 50*time.Millisecond, func(context.Context) { calls.Add(1) }, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	<-w.Ready()

	for i := range 5 {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "page.mdx"), []byte{byte('a' + i)}, 0o600))
	}
	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "guide"), 0o750))
	require.Eventually(t, func() bool { return calls.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "guide", "nested.mdx"), []byte("x"), 0o600))
	require.Eventually(t, func() bool { return calls.Load() == 3 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestContentWatcherIgnoresHiddenEntries(t *testing.T) {
	dir := t.TempDir()
	w, err := NewContentWatcher(dir, time.Millisecond, func(context.Context) {}, nil)
	require.NoError(t, err)
	defer func() { _ = w.watcher.Close() }()

	assert.False(t, w.relevant(fsEvent(filepath.Join(dir, ".git", "HEAD"))))
	assert.False(t, w.relevant(fsEvent(filepath.Join(dir, "page.mdx.swp"))))
	assert.True(t, w.relevant(fsEvent(filepath.Join(dir, "guide", "page.mdx"))))
}

func TestNewContentWatcherValidates(t *testing.T) {
	_, err := NewContentWatcher(t.TempDir(), time.Second, nil, nil)
	require.Error(t, err)
	_, err = NewContentWatcher(t.TempDir(), 0, func(context.Context) {}, nil)
	require.Error(t, err)
}

func TestSchedulerRunsTask(t *testing.T) {
	s, err := NewScheduler(nil)
	require.NoError(t, err)

	var runs atomic.Int32
	_, err = s.Every(context.Background(), "tick", 20*time.Millisecond, func(context.Context) { runs.Add(1) })
	require.NoError(t, err)
	s.Start()

	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, s.Stop())
}

func testConfig(t *testing.T, dir string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Content.Dir = dir
	return cfg
}

func TestDaemonPrepareMissingContentDir(t *testing.T) {
	d := New(testConfig(t, filepath.Join(t.TempDir(), "missing")))
	err := d.Prepare(context.Background())
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryContent))
	assert.Nil(t, d.Catalog().Current())
}

func TestDaemonPrepareScanFailureIsFatal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.mdx"), []byte("y"), 0o600))

	err := New(testConfig(t, dir)).Prepare(context.Background())
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryContent))
}

func TestDaemonWatchesAndRescans(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.mdx"), []byte("# Home"), 0o600))

	cfg := testConfig(t, dir)
	cfg.Watch.Enabled = true
	cfg.Watch.Debounce = 20 * time.Millisecond
	cfg.Watch.RescanInterval = time.Hour

	d := New(cfg)
	require.NoError(t, d.Start(context.Background()))
	t.Cleanup(func() { _ = d.Stop() })

	status := d.Status()
	assert.Equal(t, 1, status.Pages)
	assert.NotEmpty(t, status.Fingerprint)
	assert.False(t, status.StartedAt.IsZero())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "guide.mdx"), []byte("Guide"), 0o600))
	require.Eventually(t, func() bool { return d.Catalog().Current().Len() == 2 }, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "guide.md"), []byte("dup"), 0o600))
	require.Eventually(t, func() bool { return d.Status().LastScanError != "" }, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, d.Catalog().Current().Len())

	require.NoError(t, d.Stop())
}

func TestDaemonStartReturnsWithWatcherReady(t *testing.T) {
	for i := range 5 {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "index.mdx"), []byte("# Home"), 0o600))

		cfg := testConfig(t, dir)
		cfg.Watch.Enabled = true
		cfg.Watch.Debounce = 10 * time.Millisecond

		d := New(cfg)
		require.NoError(t, d.Start(context.Background()))

		// Written with no settling delay: the watcher is registered once Start returns.
		require.NoError(t, os.WriteFile(filepath.Join(dir, "next.mdx"), []byte("Next"), 0o600))
		require.Eventually(t, func() bool { return d.Catalog().Current().Len() == 2 },
			3*time.Second, 10*time.Millisecond, "run %d", i)
		require.NoError(t, d.Stop())
	}
}
