// Package metrics exposes service metrics in the Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agentstation/modelcast/internal/distribution"
)

const namespace = "modelcast"

// Prometheus records catalog, distribution, HTTP and feedback metrics.
type Prometheus struct {
	registry *prometheus.Registry

	reloads           *prometheus.CounterVec
	catalogRecords    prometheus.Gauge
	broadcasts        prometheus.Counter
	deliveries        *prometheus.CounterVec
	activeSubscribers *prometheus.GaugeVec
	requestDuration   *prometheus.HistogramVec
	feedback          *prometheus.CounterVec
}

// New registers all metrics on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Prometheus {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(registry)
}

// NewWithRegistry registers the service metrics on registry.
func NewWithRegistry(registry *prometheus.Registry) *Prometheus {
	factory := promauto.With(registry)

	return &Prometheus{
		registry: registry,
		reloads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_reloads_total",
				Help:      "Total number of catalog reloads",
			},
			[]string{"status"},
		),
		catalogRecords: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "catalog_records",
				Help:      "Number of records in the current catalog",
			},
		),
		broadcasts: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "broadcasts_total",
				Help:      "Total number of catalog broadcasts",
			},
		),
		deliveries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "deliveries_total",
				Help:      "Total number of snapshot deliveries to subscribers",
			},
			[]string{"transport", "status"},
		),
		activeSubscribers: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_subscribers",
				Help:      "Current number of push subscribers",
			},
			[]string{"transport"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"method", "path", "code"},
		),
		feedback: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "feedback_submissions_total",
				Help:      "Total number of feedback submissions",
			},
			[]string{"status"},
		),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// ObserveReload records a catalog reload.
func (p *Prometheus) ObserveReload(err error, records int) {
	p.reloads.WithLabelValues(status(err)).Inc()
	p.catalogRecords.Set(float64(records))
}

// ObserveBroadcast records one broadcast.
func (p *Prometheus) ObserveBroadcast(int) {
	p.broadcasts.Inc()
}

// ObserveDelivery records one delivery attempt.
func (p *Prometheus) ObserveDelivery(transport string, err error) {
	p.deliveries.WithLabelValues(transport, status(err)).Inc()
}

// SubscriberAdded increments the active subscriber gauge.
func (p *Prometheus) SubscriberAdded(transport string) {
	p.activeSubscribers.WithLabelValues(transport).Inc()
}

// SubscriberRemoved decrements the active subscriber gauge.
func (p *Prometheus) SubscriberRemoved(transport string) {
	p.activeSubscribers.WithLabelValues(transport).Dec()
}

// ObserveRequest records an HTTP request.
func (p *Prometheus) ObserveRequest(method, path string, code int, duration time.Duration) {
	p.requestDuration.WithLabelValues(method, path, strconv.Itoa(code)).Observe(duration.Seconds())
}

// ObserveFeedback records a feedback submission.
func (p *Prometheus) ObserveFeedback(err error) {
	p.feedback.WithLabelValues(status(err)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

var _ distribution.Metrics = (*Prometheus)(nil)
