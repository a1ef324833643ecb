package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all shipping service metrics
type Metrics struct {
	serviceName string
	registry    *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Kafka metrics
	KafkaEventsPublished *prometheus.CounterVec
	KafkaPublishDuration *prometheus.HistogramVec

	// Carrier API metrics
	CarrierRequestsTotal   *prometheus.CounterVec
	CarrierRequestDuration *prometheus.HistogramVec
	CarrierRetriesTotal    *prometheus.CounterVec
	RateLimiterRejections  *prometheus.CounterVec
	RateLimiterWindowUsage *prometheus.GaugeVec

	// Business metrics
	QuotesServed    *prometheus.CounterVec
	QuoteFallbacks  *prometheus.CounterVec
	BookingsCreated *prometheus.CounterVec
	AddressRejected *prometheus.CounterVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// Config holds metrics configuration
type Config struct {
	ServiceName string
	Namespace   string
	Subsystem   string
}

// DefaultConfig returns the standard namespace and service label
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,
		Namespace:   "vanfit",
		Subsystem:   serviceName,
	}
}

// New builds the collector set on a private registry. Go runtime and
// process collectors are included alongside the service metrics.
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		serviceName: config.ServiceName,
		registry:    registry,
	}

	// HTTP metrics
	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"service", "method", "path"},
	)

	m.HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "http_requests_in_flight",
			Help:        "Number of HTTP requests currently being processed",
			ConstLabels: prometheus.Labels{"service": config.ServiceName},
		},
	)

	// Kafka metrics
	m.KafkaEventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "kafka_events_published_total",
			Help:      "Total number of Kafka events published",
		},
		[]string{"service", "topic", "event_type", "status"},
	)

	m.KafkaPublishDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "kafka_publish_duration_seconds",
			Help:      "Kafka publish duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"service", "topic"},
	)

	// Carrier API metrics
	m.CarrierRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "carrier_requests_total",
			Help:      "Total number of carrier API requests",
		},
		[]string{"service", "carrier", "endpoint", "status"},
	)

	m.CarrierRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "carrier_request_duration_seconds",
			Help:      "Carrier API request duration in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15},
		},
		[]string{"service", "carrier", "endpoint"},
	)

	m.CarrierRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "carrier_retries_total",
			Help:      "Total number of retried carrier API calls",
		},
		[]string{"service", "carrier", "endpoint"},
	)

	m.RateLimiterRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "rate_limiter_rejections_total",
			Help:      "Total number of carrier calls rejected by the local rate limiter",
		},
		[]string{"service", "carrier"},
	)

	m.RateLimiterWindowUsage = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Name:      "rate_limiter_window_usage",
			Help:      "Requests counted in the current rate limit window",
		},
		[]string{"service", "carrier"},
	)

	// Business metrics
	m.QuotesServed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "quotes_served_total",
			Help:      "Total number of quote sets served",
		},
		[]string{"service", "source"},
	)

	m.QuoteFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "quote_fallbacks_total",
			Help:      "Total number of quote requests that fell back to estimated rates",
		},
		[]string{"service", "reason"},
	)

	m.BookingsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "bookings_created_total",
			Help:      "Total number of freight bookings created",
		},
		[]string{"service", "carrier", "status"},
	)

	m.AddressRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "addresses_rejected_total",
			Help:      "Total number of delivery addresses rejected by validation",
		},
		[]string{"service", "field"},
	)

	// Circuit breaker metrics
	m.CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"service", "name"},
	)

	m.CircuitBreakerTrips = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "circuit_breaker_trips_total",
			Help:      "Total number of circuit breaker trips",
		},
		[]string{"service", "name"},
	)

	// Register all metrics
	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.KafkaEventsPublished,
		m.KafkaPublishDuration,
		m.CarrierRequestsTotal,
		m.CarrierRequestDuration,
		m.CarrierRetriesTotal,
		m.RateLimiterRejections,
		m.RateLimiterWindowUsage,
		m.QuotesServed,
		m.QuoteFallbacks,
		m.BookingsCreated,
		m.AddressRejected,
		m.CircuitBreakerState,
		m.CircuitBreakerTrips,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(m.serviceName, method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(m.serviceName, method, path).Observe(duration.Seconds())
}

func (m *Metrics) RecordKafkaPublish(topic, eventType string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	m.KafkaEventsPublished.WithLabelValues(m.serviceName, topic, eventType, status).Inc()
	m.KafkaPublishDuration.WithLabelValues(m.serviceName, topic).Observe(duration.Seconds())
}

// RecordCarrierRequest records a carrier API call outcome
func (m *Metrics) RecordCarrierRequest(carrier, endpoint, status string, duration time.Duration) {
	m.CarrierRequestsTotal.WithLabelValues(m.serviceName, carrier, endpoint, status).Inc()
	m.CarrierRequestDuration.WithLabelValues(m.serviceName, carrier, endpoint).Observe(duration.Seconds())
}

// RecordCarrierRetry records a retried carrier API call
func (m *Metrics) RecordCarrierRetry(carrier, endpoint string) {
	m.CarrierRetriesTotal.WithLabelValues(m.serviceName, carrier, endpoint).Inc()
}

// RecordRateLimiterRejection records a locally rejected carrier call
func (m *Metrics) RecordRateLimiterRejection(carrier string) {
	m.RateLimiterRejections.WithLabelValues(m.serviceName, carrier).Inc()
}

// SetRateLimiterWindowUsage sets the current rate limit window usage
func (m *Metrics) SetRateLimiterWindowUsage(carrier string, count int) {
	m.RateLimiterWindowUsage.WithLabelValues(m.serviceName, carrier).Set(float64(count))
}

// RecordQuotesServed records a served quote set by source
func (m *Metrics) RecordQuotesServed(source string) {
	m.QuotesServed.WithLabelValues(m.serviceName, source).Inc()
}

// RecordQuoteFallback records a quote request that used fallback rates
func (m *Metrics) RecordQuoteFallback(reason string) {
	m.QuoteFallbacks.WithLabelValues(m.serviceName, reason).Inc()
}

// RecordBookingCreated records a booking attempt outcome
func (m *Metrics) RecordBookingCreated(carrier string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.BookingsCreated.WithLabelValues(m.serviceName, carrier, status).Inc()
}

// RecordAddressRejected records a validation rejection by field
func (m *Metrics) RecordAddressRejected(field string) {
	m.AddressRejected.WithLabelValues(m.serviceName, field).Inc()
}

func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	m.CircuitBreakerState.WithLabelValues(m.serviceName, name).Set(float64(state))
}

func (m *Metrics) RecordCircuitBreakerTrip(name string) {
	m.CircuitBreakerTrips.WithLabelValues(m.serviceName, name).Inc()
}

func (m *Metrics) IncrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

func (m *Metrics) DecrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}
