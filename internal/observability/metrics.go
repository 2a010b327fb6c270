package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges shared by
// the scrape worker and the batch merger.
type Metrics struct {
	// Worker-side metrics.
	ScrapesCompleted *prometheus.CounterVec // label: result={robot,barchart,freetext,hourly,empty}
	ScrapeErrors     prometheus.Counter
	ArtifactsWritten prometheus.Counter
	SweepDuration    prometheus.Histogram
	WorkerRunning    prometheus.Gauge

	// Merge-side metrics.
	ArtifactsParsed  prometheus.Counter
	ArtifactsSkipped prometheus.Counter
	RecordsEmitted   *prometheus.CounterVec // label: kind={nowcast,hourly}
	RecordsPublished prometheus.Counter
	MergeDuration    prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default Prometheus
// registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ScrapesCompleted,
		m.ScrapeErrors,
		m.ArtifactsWritten,
		m.SweepDuration,
		m.WorkerRunning,
		m.ArtifactsParsed,
		m.ArtifactsSkipped,
		m.RecordsEmitted,
		m.RecordsPublished,
		m.MergeDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ScrapesCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nowcast_etl",
			Name:      "scrapes_total",
			Help:      "Completed scrape attempts by classified result.",
		}, []string{"result"}),
		ScrapeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nowcast_etl",
			Name:      "scrape_errors_total",
			Help:      "Probe attempts that failed before classification.",
		}),
		ArtifactsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nowcast_etl",
			Name:      "artifacts_written_total",
			Help:      "Scrape artifacts persisted to disk.",
		}),
		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "nowcast_etl",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of one full pass over the station list.",
			Buckets:   []float64{1, 5, 15, 60, 300, 900, 1800, 3600},
		}),
		WorkerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nowcast_etl",
			Name:      "worker_running",
			Help:      "1 when the scrape worker loop is active, 0 when shut down.",
		}),
		ArtifactsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nowcast_etl",
			Name:      "artifacts_parsed_total",
			Help:      "Artifact files successfully parsed during a merge.",
		}),
		ArtifactsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nowcast_etl",
			Name:      "artifacts_skipped_total",
			Help:      "Artifact files skipped as malformed during a merge.",
		}),
		RecordsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nowcast_etl",
			Name:      "records_emitted_total",
			Help:      "Normalized records appended to the output table, by kind.",
		}, []string{"kind"}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nowcast_etl",
			Name:      "records_published_total",
			Help:      "Normalized records published to the Kafka sink.",
		}),
		MergeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "nowcast_etl",
			Name:      "merge_duration_seconds",
			Help:      "Duration of a complete artifact-directory merge.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		}),
	}
}
