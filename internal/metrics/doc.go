// Package metrics provides observability hooks for mediaindex.
//
// Components receive a Recorder through their options and default to
// NoopRecorder, so nothing is collected unless a caller opts in:
//
//	reg := prometheus.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	runner := pipeline.NewRunner(pipeline.WithRecorder(rec))
//	mux.Handle("/metrics", metrics.HTTPHandler(reg))
//
// The serve command wires the Prometheus recorder when --metrics is set.
package metrics
