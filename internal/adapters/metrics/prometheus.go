package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"catalog-api/internal/domain"
	"catalog-api/internal/ports"
)

const namespace = "catalog"

// Collector records authorization, store and HTTP metrics on its own registry.
type Collector struct {
	registry        *prometheus.Registry
	handler         http.Handler
	decisions       *prometheus.CounterVec
	storeOperations *prometheus.CounterVec
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

var (
	_ ports.Metrics      = (*Collector)(nil)
	_ ports.StoreMetrics = (*Collector)(nil)
)

func New() *Collector {
	registry := prometheus.NewRegistry()
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authorization_decisions_total",
		Help:      "Authorization decisions by required level and outcome.",
	}, []string{"required", "outcome"})
	storeOperations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_operations_total",
		Help:      "Entity store calls by entity, operation and outcome.",
	}, []string{"entity", "op", "outcome"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
	registry.MustRegister(
		decisions, storeOperations, requests, duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Collector{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		decisions:       decisions,
		storeOperations: storeOperations,
		requestsTotal:   requests,
		requestDuration: duration,
	}
}

func (c *Collector) Handler() http.Handler {
	return c.handler
}

// Registerer exposes the registry for collectors owned by other packages.
func (c *Collector) Registerer() prometheus.Registerer {
	return c.registry
}

func (c *Collector) ObserveAuthorization(required domain.PermissionLevel, granted bool) {
	outcome := "denied"
	if granted {
		outcome = "granted"
	}
	c.decisions.WithLabelValues(required.String(), outcome).Inc()
}

func (c *Collector) ObserveStoreOperation(entity, op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.storeOperations.WithLabelValues(entity, op, outcome).Inc()
}

// ObserveHTTPRequest records one request. route is the matched pattern, not
// the raw path.
func (c *Collector) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
