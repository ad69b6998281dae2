// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultNamespace = "easysteem"

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Chain properties metrics
	RefreshTotal          *prometheus.CounterVec
	RefreshDuration       prometheus.Histogram
	LastSuccessfulRefresh prometheus.Gauge

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// NewMetrics creates the metrics and registers them with reg, or with the
// default registry when reg is nil.
func NewMetrics(namespace string, reg *prometheus.Registry) *Metrics {
	if namespace == "" {
		namespace = defaultNamespace
	}

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if reg != nil {
		registerer, gatherer = reg, reg
	}
	factory := promauto.With(registerer)

	return &Metrics{
		RefreshTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chainprops",
			Name:      "refresh_total",
			Help:      "Total number of chain properties refreshes by status",
		}, []string{"status"}),
		RefreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chainprops",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of chain properties refreshes",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		LastSuccessfulRefresh: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "chainprops",
			Name:      "last_successful_refresh_timestamp",
			Help:      "Unix timestamp of the last successful refresh",
		}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of API requests by route and status code",
		}, []string{"route", "code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of API requests by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),

		gatherer: gatherer,
	}
}

// ObserveRefresh records the outcome of a chain properties refresh.
func (m *Metrics) ObserveRefresh(success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	m.RefreshTotal.WithLabelValues(status).Inc()
	m.RefreshDuration.Observe(duration.Seconds())
	if success {
		m.LastSuccessfulRefresh.SetToCurrentTime()
	}
}

// ObserveHTTP records an API request.
func (m *Metrics) ObserveHTTP(route string, code int, duration time.Duration) {
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
