// Package metrics provides the observability hooks for content scans, page
// renders and exports.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no call site needs a nil check:
//
//	exp := export.New(snapshots, export.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// PrometheusRecorder registers its collectors on the registry it is given;
// HTTPHandler serves that registry on the /metrics route.
package metrics
