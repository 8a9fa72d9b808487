// Package prometheus exports pipeline events as Prometheus metrics.
package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/canvasrag/internal/core/domain"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driven"
)

// Ensure Sink implements the interface.
var _ driven.EventSink = (*Sink)(nil)

const namespace = "canvasrag"

// Sink turns events into counters and histograms on its own registry.
type Sink struct {
	registry *prometheus.Registry

	events         *prometheus.CounterVec
	streamDuration *prometheus.HistogramVec
	streamChunks   *prometheus.HistogramVec
	cancellations  *prometheus.CounterVec
	topSimilarity  prometheus.Histogram
	screenshots    prometheus.Counter
	indexedDocs    *prometheus.CounterVec
}

// NewSink registers the collectors on a fresh registry, together with
// the Go runtime and process collectors.
func NewSink() *Sink {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Sink{
		registry: reg,
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Pipeline events by component and name",
		}, []string{"component", "event"}),
		streamDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stream_duration_seconds",
			Help:      "Duration of completed generation streams",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
		}, []string{"component"}),
		streamChunks: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stream_chunks",
			Help:      "Fragments forwarded per completed stream",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"component"}),
		cancellations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_cancellations_total",
			Help:      "Streams ended early by reason",
		}, []string{"component", "reason"}),
		topSimilarity: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_top_similarity",
			Help:      "Similarity of the best semantic match",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}),
		screenshots: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "screenshots_fetched_total",
			Help:      "Screenshots attached to prompts",
		}),
		indexedDocs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "indexed_documents_total",
			Help:      "Documents written or skipped by the indexer",
		}, []string{"outcome"}),
	}
}

// Emit updates metrics for event. Unknown events only bump events_total.
func (s *Sink) Emit(event domain.Event) {
	s.events.WithLabelValues(event.Component, event.Name).Inc()

	switch {
	case event.Name == domain.EventCompleted && event.Component == domain.ComponentIndexer:
		if n, ok := number(event.Fields["indexed"]); ok {
			s.indexedDocs.WithLabelValues("indexed").Add(n)
		}
		if n, ok := number(event.Fields["skipped"]); ok {
			s.indexedDocs.WithLabelValues("skipped").Add(n)
		}
	case event.Name == domain.EventCompleted:
		if ms, ok := number(event.Fields["duration_ms"]); ok {
			s.streamDuration.WithLabelValues(event.Component).Observe(ms / 1000)
		}
		if n, ok := number(event.Fields["chunks"]); ok {
			s.streamChunks.WithLabelValues(event.Component).Observe(n)
		}
	case event.Name == domain.EventCancelled:
		reason, _ := event.Fields["reason"].(string)
		s.cancellations.WithLabelValues(event.Component, reason).Inc()
	case event.Component == domain.ComponentRetriever && event.Name == domain.EventResults:
		if sim, ok := number(event.Fields["top_similarity"]); ok {
			s.topSimilarity.Observe(sim)
		}
	case event.Component == domain.ComponentScreenshots && event.Name == domain.EventFetched:
		if n, ok := number(event.Fields["fetched"]); ok {
			s.screenshots.Add(n)
		}
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (s *Sink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (s *Sink) Registry() *prometheus.Registry {
	return s.registry
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}
