package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private Prometheus registry with the grid and HTTP
// metrics. A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	GridRows            *prometheus.GaugeVec
	LowStockItems       *prometheus.GaugeVec
	Mutations           *prometheus.CounterVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewCollector creates a Collector whose metric names are prefixed with
// namespace. Go runtime and process collectors are included.
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		GridRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "grid_rows",
			Help:      "Number of rows held by each page's grid",
		}, []string{"page"}),
		LowStockItems: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "grid_low_stock_items",
			Help:      "Number of items below the low stock threshold",
		}, []string{"page"}),
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grid_mutations_total",
			Help:      "Grid mutations by page, operation and outcome",
		}, []string{"page", "operation", "status"}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status_code"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}

	reg.MustRegister(
		c.GridRows,
		c.LowStockItems,
		c.Mutations,
		c.HTTPRequestsTotal,
		c.HTTPRequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveSummary updates the per-page gauges.
func (c *Collector) ObserveSummary(page string, s Summary) {
	if c == nil {
		return
	}
	c.GridRows.WithLabelValues(page).Set(float64(s.Rows))
	c.LowStockItems.WithLabelValues(page).Set(float64(len(s.LowStock)))
}

// RecordMutation counts a grid mutation. status is "ok" or an error code.
func (c *Collector) RecordMutation(page, operation, status string) {
	if c == nil {
		return
	}
	c.Mutations.WithLabelValues(page, operation, status).Inc()
}

// RecordHTTPRequest records an HTTP request metric. path should be a route
// pattern, not the raw URL, to keep cardinality bounded.
func (c *Collector) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	c.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
