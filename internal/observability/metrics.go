// Package observability holds the Prometheus instruments of the service.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus instruments. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Reconciliation
	RecordsIn          *prometheus.CounterVec
	DuplicatesDropped  *prometheus.CounterVec
	ResolvedDates      *prometheus.CounterVec
	UnknownObjectives  *prometheus.CounterVec
	MalformedExtras    prometheus.Counter
	PipelineDuration   *prometheus.HistogramVec
	CampaignsProcessed *prometheus.CounterVec

	// Snapshot cache
	CacheLookups *prometheus.CounterVec
	CacheErrors  *prometheus.CounterVec

	// Warming
	WarmRuns *prometheus.CounterVec
}

// NewMetrics creates the instruments on a fresh registry that also carries the
// Go runtime and process collectors.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RecordsIn: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_in_total",
				Help:      "Metric records entering the reconciliation pipeline",
			},
			[]string{"granularity"},
		),
		DuplicatesDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "duplicates_dropped_total",
				Help:      "Stale duplicate records discarded by deduplication",
			},
			[]string{"granularity"},
		),
		ResolvedDates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolved_dates_total",
				Help:      "Campaign dates resolved, by selected rollup level",
			},
			[]string{"level"},
		),
		UnknownObjectives: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "unknown_objectives_total",
				Help:      "Campaigns whose objective matched no classification rule",
			},
			[]string{"platform"},
		),
		MalformedExtras: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "malformed_extra_metrics_total",
				Help:      "Rows whose extra_metrics payload could not be parsed",
			},
		),
		PipelineDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pipeline_duration_seconds",
				Help:      "Reconciliation pipeline run time",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"status"},
		),
		CampaignsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "campaigns_processed_total",
				Help:      "Campaign KPI snapshots computed, by result category",
			},
			[]string{"category"},
		),
		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "snapshot_cache_lookups_total",
				Help:      "Snapshot cache lookups by result",
			},
			[]string{"result"}, // hit, miss
		),
		CacheErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "snapshot_cache_errors_total",
				Help:      "Snapshot cache failures by operation",
			},
			[]string{"operation"},
		),
		WarmRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "warm_runs_total",
				Help:      "Cache warming runs per workspace by status",
			},
			[]string{"status"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordDedup records one deduplication pass.
func (m *Metrics) RecordDedup(granularity string, in, dropped int) {
	if m == nil {
		return
	}
	m.RecordsIn.WithLabelValues(granularity).Add(float64(in))
	m.DuplicatesDropped.WithLabelValues(granularity).Add(float64(dropped))
}

// RecordResolvedDate records the level chosen for one campaign date.
func (m *Metrics) RecordResolvedDate(level string) {
	if m == nil {
		return
	}
	if level == "" {
		level = "none"
	}
	m.ResolvedDates.WithLabelValues(level).Inc()
}

// RecordCampaign records a computed snapshot.
func (m *Metrics) RecordCampaign(category, platform string, unknown bool) {
	if m == nil {
		return
	}
	m.CampaignsProcessed.WithLabelValues(category).Inc()
	if unknown {
		m.UnknownObjectives.WithLabelValues(platform).Inc()
	}
}

// RecordMalformedExtra records a row with an unreadable extra_metrics payload.
func (m *Metrics) RecordMalformedExtra() {
	if m == nil {
		return
	}
	m.MalformedExtras.Inc()
}

// ObservePipeline records a pipeline run.
func (m *Metrics) ObservePipeline(err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.PipelineDuration.WithLabelValues(status(err)).Observe(elapsed.Seconds())
}

// RecordCacheLookup records a snapshot cache hit or miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// RecordCacheError records a failed cache operation.
func (m *Metrics) RecordCacheError(operation string) {
	if m == nil {
		return
	}
	m.CacheErrors.WithLabelValues(operation).Inc()
}

// RecordWarmRun records one workspace warming run.
func (m *Metrics) RecordWarmRun(err error) {
	if m == nil {
		return
	}
	m.WarmRuns.WithLabelValues(status(err)).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
