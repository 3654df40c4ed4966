package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joseph-ayodele/docextract/internal/entity"
)

const namespace = "docextract"

// Metrics holds the engine's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	documents       *prometheus.CounterVec
	failures        *prometheus.CounterVec
	duplicates      prometheus.Counter
	score           prometheus.Histogram
	documentSeconds prometheus.Histogram
	batches         *prometheus.CounterVec
	batchSeconds    prometheus.Histogram
	queueDepth      prometheus.Gauge
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Processed documents by validation status.",
		}, []string{"status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_failures_total",
			Help:      "Per-document failures by kind.",
		}, []string{"kind"}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_total",
			Help:      "Documents marked as duplicates.",
		}),
		score: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "validation_score",
			Help:      "Distribution of validation scores.",
			Buckets:   []float64{0, 0.25, 0.5, 0.6, 0.7, 0.75, 0.85, 0.9, 1},
		}),
		documentSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_duration_seconds",
			Help:      "Time spent extracting, normalizing and validating one document.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Batches by final status.",
		}, []string{"status"}),
		batchSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Wall time of one batch run.",
			Buckets:   prometheus.DefBuckets,
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Batches waiting in the daemon queue.",
		}),
	}
	m.registry.MustRegister(
		m.documents, m.failures, m.duplicates, m.score, m.documentSeconds,
		m.batches, m.batchSeconds, m.queueDepth,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveDocument records one validated document. Its signature matches
// pipeline.Observer.
func (m *Metrics) ObserveDocument(doc entity.ProcessedDocument, elapsed time.Duration) {
	m.documents.WithLabelValues(string(doc.Validation.Status)).Inc()
	m.score.Observe(doc.Validation.Score)
	m.documentSeconds.Observe(elapsed.Seconds())
	for _, f := range doc.Failures {
		m.failures.WithLabelValues(string(f.Kind)).Inc()
	}
}

// ObserveBatch records a finished batch.
func (m *Metrics) ObserveBatch(status string, duplicates int, elapsed time.Duration) {
	m.batches.WithLabelValues(status).Inc()
	m.duplicates.Add(float64(duplicates))
	m.batchSeconds.Observe(elapsed.Seconds())
}

// SetQueueDepth reports the current number of queued batches.
func (m *Metrics) SetQueueDepth(n int) {
	m.queueDepth.Set(float64(n))
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
