// Package metrics holds the Prometheus instruments of the feature store.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the HTTP and repository metrics. A nil *Collector is
// valid and records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	Requests         *prometheus.CounterVec
	RequestDurations *prometheus.HistogramVec
	RepositoryErrors *prometheus.CounterVec
}

// NewCollector registers the metrics against reg, defaulting to the global
// registry when reg is nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{
		gatherer: gatherer,
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feature_store_requests_total",
			Help: "Total number of handled HTTP requests, labeled by method, route and status code.",
		}, []string{"method", "route", "code"}),
		RequestDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "feature_store_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"method", "route"}),
		RepositoryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feature_store_repository_errors_total",
			Help: "Repository errors surfaced to clients, labeled by kind.",
		}, []string{"kind"}),
	}

	for _, col := range []prometheus.Collector{c.Requests, c.RequestDurations, c.RepositoryErrors} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ObserveRequest records one finished HTTP request.
func (c *Collector) ObserveRequest(method, route string, code int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.Requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	c.RequestDurations.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RepositoryError counts an error of the given kind.
func (c *Collector) RepositoryError(kind string) {
	if c == nil {
		return
	}
	c.RepositoryErrors.WithLabelValues(kind).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
