// Package metricsx holds the portal's Prometheus collectors. A nil *Metrics
// is valid and records nothing, so components can be used without metrics.
package metricsx

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "portal").
	Namespace string

	// Buckets are the histogram buckets for refresh duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry receives the collectors. Default: a fresh registry.
	Registry *prometheus.Registry
}

// Option configures the collectors.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) { c.Namespace = namespace }
}

// WithRegistry registers the collectors on registry.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(c *Config) { c.Registry = registry }
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) { c.Buckets = buckets }
}

// Metrics groups the collectors for the route guard and the API clients.
type Metrics struct {
	registry *prometheus.Registry

	guardDecisions  *prometheus.CounterVec
	refreshes       *prometheus.CounterVec
	refreshDuration *prometheus.HistogramVec
	replays         *prometheus.CounterVec
}

// New creates and registers the collectors.
func New(opts ...Option) *Metrics {
	cfg := Config{
		Namespace: "portal",
		Buckets:   prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}

	factory := promauto.With(cfg.Registry)
	return &Metrics{
		registry: cfg.Registry,
		guardDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "guard",
			Name:      "decisions_total",
			Help:      "Route guard decisions by outcome and reason.",
		}, []string{"outcome", "reason"}),
		refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "apiclient",
			Name:      "refreshes_total",
			Help:      "Token refresh exchanges by client and result.",
		}, []string{"client", "result"}),
		refreshDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: "apiclient",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of token refresh exchanges.",
			Buckets:   cfg.Buckets,
		}, []string{"client"}),
		replays: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "apiclient",
			Name:      "replays_total",
			Help:      "Requests replayed after a 401, by client and outcome.",
		}, []string{"client", "outcome"}),
	}
}

// Registry exposes the registry, e.g. for tests gathering values.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) GuardDecision(outcome, reason string) {
	if m == nil {
		return
	}
	m.guardDecisions.WithLabelValues(outcome, reason).Inc()
}

func (m *Metrics) Refresh(client, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(client, result).Inc()
	m.refreshDuration.WithLabelValues(client).Observe(d.Seconds())
}

func (m *Metrics) Replay(client, outcome string) {
	if m == nil {
		return
	}
	m.replays.WithLabelValues(client, outcome).Inc()
}
