// Package metrics exposes pipeline counters through a Prometheus registry.
package metrics

import (
	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/prometheus/client_golang/prometheus"
	"go.trai.ch/zerr"
)

const namespace = "fastrag"

// Recorder implements ports.Metrics with a private Prometheus registry.
type Recorder struct {
	registry *prometheus.Registry
	lookups  *prometheus.CounterVec
	written  prometheus.Counter
	events   *prometheus.CounterVec
	scores   *prometheus.GaugeVec
}

// New creates a Recorder with all collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by result.",
		}, []string{"result"}),
		written: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "written_bytes_total",
			Help:      "Bytes written to cache payloads.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Task events by type.",
		}, []string{"type"}),
		scores: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "experiment_score",
			Help:      "Mean benchmark score per experiment.",
		}, []string{"experiment"}),
	}
	r.registry.MustRegister(r.lookups, r.written, r.events, r.scores)
	return r
}

// CacheLookup counts a cache hit or miss.
func (r *Recorder) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.lookups.WithLabelValues(result).Inc()
}

// CacheWrite adds written payload bytes.
func (r *Recorder) CacheWrite(n int) {
	r.written.Add(float64(n))
}

// Event counts one task event.
func (r *Recorder) Event(t domain.EventType) {
	r.events.WithLabelValues(string(t)).Inc()
}

// ExperimentScore records the final score of an experiment.
func (r *Recorder) ExperimentScore(id string, score float64) {
	r.scores.WithLabelValues(id).Set(score)
}

// Gatherer exposes the underlying registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteFile writes all metrics to path in the text exposition format.
func (r *Recorder) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrMetricsWriteFailed.Error()), "path", path)
	}
	return nil
}
