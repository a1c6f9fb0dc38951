package metrics

import "time"

// ResultLabel enumerates result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
	ResultCached   ResultLabel = "cached"
)

// Recorder defines observability hooks for content scans, page renders and
// exports and HTTP requests. Implementations may forward to Prometheus or any other backend.
type Recorder interface {
	ObserveScanDuration(d time.Duration)
	IncScanResult(result ResultLabel)
	SetPages(n int)
	ObserveRenderDuration(d time.Duration)
	IncRenderResult(result ResultLabel)
	ObserveExportDuration(d time.Duration)
	IncExportResult(result ResultLabel)
	SetRenderConcurrency(n int)
	ObserveGitSyncDuration(repo string, d time.Duration, success bool)
	ObserveHTTPRequest(route string, status int, d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveScanDuration(time.Duration)                  {}
func (NoopRecorder) IncScanResult(ResultLabel)                          {}
func (NoopRecorder) SetPages(int)                                       {}
func (NoopRecorder) ObserveRenderDuration(time.Duration)                {}
func (NoopRecorder) IncRenderResult(ResultLabel)                        {}
func (NoopRecorder) ObserveExportDuration(time.Duration)                {}
func (NoopRecorder) IncExportResult(ResultLabel)                        {}
func (NoopRecorder) SetRenderConcurrency(int)                           {}
func (NoopRecorder) ObserveGitSyncDuration(string, time.Duration, bool) {}
func (NoopRecorder) ObserveHTTPRequest(string, int, time.Duration)      {}

// ResultFor maps an operation error to a result label.
func ResultFor(err error, canceled bool) ResultLabel {
	switch {
	case err == nil:
		return ResultSuccess
	case canceled:
		return ResultCanceled
	default:
		return ResultFailed
	}
}
