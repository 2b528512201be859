// Package metrics provides Prometheus metrics export for the garden service.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide metrics registry.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// Registry holds all garden metrics on its own Prometheus registry.
type Registry struct {
	reg            *prometheus.Registry
	saves          *prometheus.CounterVec
	errors         *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	legendEntries  prometheus.Gauge
	snapshots      prometheus.Gauge
}

// NewRegistry creates a new metrics registry.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "garden",
			Name:      "snapshot_saves_total",
			Help:      "Snapshots written, by kind of change.",
		}, []string{"kind"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "garden",
			Name:      "operation_errors_total",
			Help:      "Aborted user actions, by error class.",
		}, []string{"code"}),
		renderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "garden",
			Name:      "render_duration_seconds",
			Help:      "Time spent compositing and writing the layout preview.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
		legendEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "garden",
			Name:      "legend_entries",
			Help:      "Legend rows in the current snapshot.",
		}),
		snapshots: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "garden",
			Name:      "snapshots",
			Help:      "Snapshots in the history.",
		}),
	}
	r.reg.MustRegister(r.saves, r.errors, r.renderDuration, r.legendEntries, r.snapshots)
	return r
}

// RecordSave records a written snapshot.
func (r *Registry) RecordSave(kind string, legendEntries, historyLen int) {
	r.saves.WithLabelValues(kind).Inc()
	r.legendEntries.Set(float64(legendEntries))
	r.snapshots.Set(float64(historyLen))
}

// RecordError records an aborted action. Errors without a class are counted
// under "internal".
func (r *Registry) RecordError(code string) {
	if code == "" {
		code = "internal"
	}
	r.errors.WithLabelValues(code).Inc()
}

// RecordRender records a preview render.
func (r *Registry) RecordRender(success bool, duration time.Duration) {
	result := "ok"
	if !success {
		result = "error"
	}
	r.renderDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// Gatherer exposes the underlying registry, mainly for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
