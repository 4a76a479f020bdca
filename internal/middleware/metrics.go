package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Request counter - tracks total requests by method, route, and status
	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vinyldex_requests_total",
			Help: "Total number of API requests by method, route, and status",
		},
		[]string{"method", "route", "status"},
	)

	// Request duration histogram - tracks response times by method, route, and status
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vinyldex_request_duration_seconds",
			Help:    "Histogram of request durations by method, route, and status",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route", "status"},
	)

	// Error counter - tracks errors by method, route, and status code
	ErrorCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vinyldex_errors_total",
			Help: "Total number of API errors by method, route, and error code",
		},
		[]string{"method", "route", "error_code"},
	)
)

// MetricsMiddleware creates middleware that records request metrics
func MetricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		route := c.Route().Path
		method := c.Method()

		err := c.Next()

		duration := time.Since(start).Seconds()
		statusCode := c.Response().StatusCode()
		statusCodeStr := strconv.Itoa(statusCode)

		RequestCount.WithLabelValues(method, route, statusCodeStr).Inc()
		RequestDuration.WithLabelValues(method, route, statusCodeStr).Observe(duration)

		if err != nil || statusCode >= 400 {
			ErrorCount.WithLabelValues(method, route, statusCodeStr).Inc()
		}

		return err
	}
}
