package worker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes coordinator counters to Prometheus. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	chunksLoaded  prometheus.Counter
	loadFailures  prometheus.Counter
	sectionsBuilt prometheus.Counter
	buildFailures prometheus.Counter
	staleResults  prometheus.Counter
	droppedSubs   prometheus.Counter
	buildDuration prometheus.Histogram
	geometryBytes *prometheus.CounterVec
}

// NewMetrics creates the coordinator metrics and registers them with reg
// when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		chunksLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chunkview",
			Name:      "chunks_loaded_total",
			Help:      "Chunks decoded and applied to the view.",
		}),
		loadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chunkview",
			Name:      "load_failures_total",
			Help:      "Chunk payloads that failed to decode.",
		}),
		sectionsBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chunkview",
			Name:      "sections_built_total",
			Help:      "Section meshes applied to the view.",
		}),
		buildFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chunkview",
			Name:      "build_failures_total",
			Help:      "Section builds that returned an error.",
		}),
		staleResults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chunkview",
			Name:      "stale_results_total",
			Help:      "Build results discarded because a newer build was applied.",
		}),
		droppedSubs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chunkview",
			Name:      "subscribers_dropped_total",
			Help:      "Event subscriptions closed because the subscriber fell behind.",
		}),
		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "chunkview",
			Name:      "build_duration_seconds",
			Help:      "Time a worker spent meshing one section.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
		geometryBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chunkview",
			Name:      "geometry_bytes_total",
			Help:      "Vertex bytes applied to the view, by layer.",
		}, []string{"layer"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.chunksLoaded,
			m.loadFailures,
			m.sectionsBuilt,
			m.buildFailures,
			m.staleResults,
			m.droppedSubs,
			m.buildDuration,
			m.geometryBytes,
		)
	}
	return m
}

func (m *Metrics) chunkLoaded() {
	if m != nil {
		m.chunksLoaded.Inc()
	}
}

func (m *Metrics) loadFailed() {
	if m != nil {
		m.loadFailures.Inc()
	}
}

func (m *Metrics) sectionBuilt(d time.Duration, opaque, transparent int) {
	if m == nil {
		return
	}
	m.sectionsBuilt.Inc()
	m.buildDuration.Observe(d.Seconds())
	m.geometryBytes.WithLabelValues("opaque").Add(float64(opaque))
	m.geometryBytes.WithLabelValues("transparent").Add(float64(transparent))
}

func (m *Metrics) buildFailed() {
	if m != nil {
		m.buildFailures.Inc()
	}
}

func (m *Metrics) stale() {
	if m != nil {
		m.staleResults.Inc()
	}
}

func (m *Metrics) subscriberDropped() {
	if m != nil {
		m.droppedSubs.Inc()
	}
}
