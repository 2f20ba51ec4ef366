package middleware

import (
	"strconv"
	"time"

	"github.com/dukerupert/mediaguard"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the HTTP layer, content
// validation and storage operations.
//
// Metrics collected:
//   - http_requests_total (counter) - labels: method, path, status
//   - http_request_duration_seconds (histogram) - labels: method, path
//   - http_requests_in_flight (gauge)
//   - http_request_size_bytes (histogram) - labels: method, path
//   - mediaguard_validation_total (counter) - labels: category, result, reason
//   - mediaguard_storage_operations_total (counter) - labels: provider, op, result
//
// Usage in main.go:
//
//	metrics := middleware.NewMetrics(prometheus.DefaultRegisterer)
//	e.Use(metrics.Middleware())
//	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
type Metrics struct {
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge
	httpRequestSizeBytes *prometheus.HistogramVec

	validationTotal *prometheus.CounterVec
	storageOpsTotal *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// It panics if any collector is already registered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method", "path"},
		),
		httpRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),
		httpRequestSizeBytes: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8), // 100B to 1GB
			},
			[]string{"method", "path"},
		),
		validationTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediaguard_validation_total",
				Help: "Content validation decisions",
			},
			[]string{"category", "result", "reason"},
		),
		storageOpsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediaguard_storage_operations_total",
				Help: "Storage provider operations by outcome",
			},
			[]string{"provider", "op", "result"},
		),
	}
}

// Middleware records request count, latency and size.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Skip metrics endpoint itself to avoid recursion
			if c.Path() == "/metrics" {
				return next(c)
			}

			start := time.Now()
			m.httpRequestsInFlight.Inc()
			defer m.httpRequestsInFlight.Dec()

			requestSize := float64(c.Request().ContentLength)
			if requestSize < 0 {
				requestSize = 0
			}

			err := next(c)
			if err != nil {
				// Write the error response now so the status is known.
				// The error handler skips committed responses.
				c.Error(err)
			}

			method := c.Request().Method
			path := c.Path()
			status := c.Response().Status

			m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
			m.httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			m.httpRequestSizeBytes.WithLabelValues(method, path).Observe(requestSize)

			return err
		}
	}
}

// ObserveValidation counts one validation decision.
func (m *Metrics) ObserveValidation(category, result, reason string) {
	m.validationTotal.WithLabelValues(category, result, reason).Inc()
}

// ObserveStorage counts one storage operation. The result label is "ok" or
// the error code.
func (m *Metrics) ObserveStorage(provider, op string, err error) {
	result := "ok"
	if err != nil {
		result = mediaguard.ErrorCode(err)
	}
	m.storageOpsTotal.WithLabelValues(provider, op, result).Inc()
}
