package metrics

import (
	"strconv"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once              sync.Once
	scanDuration      prom.Histogram
	scanResults       *prom.CounterVec
	pages             prom.Gauge
	renderDuration    prom.Histogram
	renderResults     *prom.CounterVec
	exportDuration    prom.Histogram
	exportResults     *prom.CounterVec
	renderConcurrency prom.Gauge
	gitSyncDuration   *prom.HistogramVec
	httpDuration      *prom.HistogramVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.scanDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "docsite",
			Name:      "scan_duration_seconds",
			Help:      "Duration of content tree scans",
			Buckets:   prom.DefBuckets,
		})
		pr.scanResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docsite",
			Name:      "scan_results_total",
			Help:      "Content scan results by outcome",
		}, []string{"result"})
		pr.pages = prom.NewGauge(prom.GaugeOpts{
			Namespace: "docsite",
			Name:      "pages",
			Help:      "Number of pages in the current content snapshot",
		})
		pr.renderDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "docsite",
			Name:      "render_duration_seconds",
			Help:      "Duration of single page renders",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		})
		pr.renderResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docsite",
			Name:      "render_results_total",
			Help:      "Page render results by outcome",
		}, []string{"result"})
		pr.exportDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "docsite",
			Name:      "export_duration_seconds",
			Help:      "Duration of full llms.txt exports",
			Buckets:   prom.DefBuckets,
		})
		pr.exportResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docsite",
			Name:      "export_results_total",
			Help:      "Export results by outcome, including cache hits",
		}, []string{"result"})
		pr.renderConcurrency = prom.NewGauge(prom.GaugeOpts{
			Namespace: "docsite",
			Name:      "render_concurrency",
			Help:      "Render concurrency used by the last export",
		})
		pr.gitSyncDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "docsite",
			Name:      "git_sync_duration_seconds",
			Help:      "Duration of content repository clone and pull operations",
			Buckets:   prom.DefBuckets,
		}, []string{"repo", "result"})
		pr.httpDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "docsite",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests by route and status code",
			Buckets:   prom.DefBuckets,
		}, []string{"route", "code"})
		reg.MustRegister(pr.scanDuration, pr.scanResults, pr.pages, pr.renderDuration, pr.renderResults,
			pr.exportDuration, pr.exportResults, pr.renderConcurrency, pr.gitSyncDuration, pr.httpDuration)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveScanDuration(d time.Duration) {
	if p == nil || p.scanDuration == nil {
		return
	}
	p.scanDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncScanResult(result ResultLabel) {
	if p == nil || p.scanResults == nil {
		return
	}
	p.scanResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) SetPages(n int) {
	if p == nil || p.pages == nil {
		return
	}
	p.pages.Set(float64(n))
}

func (p *PrometheusRecorder) ObserveRenderDuration(d time.Duration) {
	if p == nil || p.renderDuration == nil {
		return
	}
	p.renderDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRenderResult(result ResultLabel) {
	if p == nil || p.renderResults == nil {
		return
	}
	p.renderResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveExportDuration(d time.Duration) {
	if p == nil || p.exportDuration == nil {
		return
	}
	p.exportDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncExportResult(result ResultLabel) {
	if p == nil || p.exportResults == nil {
		return
	}
	p.exportResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) SetRenderConcurrency(n int) {
	if p == nil || p.renderConcurrency == nil {
		return
	}
	p.renderConcurrency.Set(float64(n))
}

func (p *PrometheusRecorder) ObserveGitSyncDuration(repo string, d time.Duration, success bool) {
	if p == nil || p.gitSyncDuration == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.gitSyncDuration.WithLabelValues(repo, res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveHTTPRequest(route string, status int, d time.Duration) {
	if p == nil || p.httpDuration == nil {
		return
	}
	p.httpDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(d.Seconds())
}
