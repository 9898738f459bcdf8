package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "mediaindex"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration  *prom.HistogramVec
	stageResults   *prom.CounterVec
	runDuration    prom.Histogram
	runOutcomes    *prom.CounterVec
	fetchDuration  *prom.HistogramVec
	fetchResults   *prom.CounterVec
	fetchRetries   prom.Counter
	collectedFiles prom.Gauge
	pagesServed    *prom.CounterVec
}

// NewPrometheusRecorder constructs metrics and registers them with reg.
// A nil reg gets a private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual indexing stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Total indexing run duration",
			Buckets:   prom.DefBuckets,
		}),
		runOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Indexing runs by final status",
		}, []string{"result"}),
		fetchDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "seed_fetch_duration_seconds",
			Help:      "Duration of dataset image fetches",
			Buckets:   prom.DefBuckets,
		}, []string{"result"}),
		fetchResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "seed_fetch_results_total",
			Help:      "Dataset image fetches by success/failure",
		}, []string{"result"}),
		fetchRetries: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "seed_fetch_retries_total",
			Help:      "Retried dataset image fetches",
		}),
		collectedFiles: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "collected_files",
			Help:      "Files found by the most recent collection",
		}),
		pagesServed: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "pages_served_total",
			Help:      "HTML pages served, split by manifest rewrite",
		}, []string{"rewritten"}),
	}
	reg.MustRegister(pr.stageDuration, pr.stageResults, pr.runDuration, pr.runOutcomes,
		pr.fetchDuration, pr.fetchResults, pr.fetchRetries, pr.collectedFiles, pr.pagesServed)
	return pr
}

func successLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failed"
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunOutcome(result ResultLabel) {
	if p == nil {
		return
	}
	p.runOutcomes.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveFetchDuration(d time.Duration, success bool) {
	if p == nil {
		return
	}
	label := successLabel(success)
	p.fetchDuration.WithLabelValues(label).Observe(d.Seconds())
	p.fetchResults.WithLabelValues(label).Inc()
}

func (p *PrometheusRecorder) IncFetchRetry() {
	if p == nil {
		return
	}
	p.fetchRetries.Inc()
}

func (p *PrometheusRecorder) SetCollectedFiles(n int) {
	if p == nil {
		return
	}
	p.collectedFiles.Set(float64(n))
}

func (p *PrometheusRecorder) IncPageServed(rewritten bool) {
	if p == nil {
		return
	}
	label := "false"
	if rewritten {
		label = "true"
	}
	p.pagesServed.WithLabelValues(label).Inc()
}
