// Package metric provides Prometheus metrics for refstate.
package metric

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yndnr/refstate-go/internal/core/domain"
)

const namespace = "refstate"

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Reference metrics
	ReferencesCreated  *prometheus.CounterVec
	ReferenceFallbacks prometheus.Counter
	ReferencesResolved *prometheus.CounterVec
	ReferencesEvicted  prometheus.Counter
	ErrorsTotal        *prometheus.CounterVec

	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewRegistry creates a registry with all metrics registered.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		ReferencesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "references_created_total",
			Help:      "Reference tokens created, by path (client or server).",
		}, []string{"path"}),

		ReferenceFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reference_fallbacks_total",
			Help:      "Server-path creations that fell back to a client token.",
		}),

		ReferencesResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "references_resolved_total",
			Help:      "Token resolutions, by path and result.",
		}, []string{"path", "result"}),

		ReferencesEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "references_evicted_total",
			Help:      "Stored references removed by their expiry timer.",
		}),

		ErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Raised conditions, by error kind.",
		}, []string{"kind"}),

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by route, method and status.",
		}, []string{"route", "method", "status"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by route and method.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"route", "method"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.ReferencesCreated,
		r.ReferenceFallbacks,
		r.ReferencesResolved,
		r.ReferencesEvicted,
		r.ErrorsTotal,
		r.RequestsTotal,
		r.RequestDuration,
	)

	return r
}

var (
	globalOnce sync.Once
	global     *Registry
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		global = NewRegistry()
	})
	return global
}

// Registerer exposes the underlying registry for component collectors.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.registry
}

// Handler returns an HTTP handler serving this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Handler returns an HTTP handler for the global registry.
func Handler() http.Handler {
	return Global().Handler()
}

// RegisterStoredGauge exposes fn as the number of stored references.
func (r *Registry) RegisterStoredGauge(fn func() int) error {
	return r.registry.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "references_stored",
		Help:      "References currently held by the store.",
	}, func() float64 {
		return float64(fn())
	}))
}

// ReferenceCreated implements service.Recorder.
func (r *Registry) ReferenceCreated(path domain.Path) {
	r.ReferencesCreated.WithLabelValues(string(path)).Inc()
}

// ReferenceFallback implements service.Recorder.
func (r *Registry) ReferenceFallback() {
	r.ReferenceFallbacks.Inc()
}

// ReferenceResolved implements service.Recorder.
func (r *Registry) ReferenceResolved(path domain.Path, result string) {
	r.ReferencesResolved.WithLabelValues(string(path), result).Inc()
}

// ErrorRaised implements service.Recorder.
func (r *Registry) ErrorRaised(kind domain.Kind) {
	r.ErrorsTotal.WithLabelValues(string(kind)).Inc()
}

// ReferenceEvicted counts a timer eviction.
func (r *Registry) ReferenceEvicted() {
	r.ReferencesEvicted.Inc()
}

// RecordRequest counts a finished HTTP request and its latency.
func (r *Registry) RecordRequest(route, method, status string, seconds float64) {
	r.RequestsTotal.WithLabelValues(route, method, status).Inc()
	r.RequestDuration.WithLabelValues(route, method).Observe(seconds)
}
