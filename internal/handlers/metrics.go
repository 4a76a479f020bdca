package handlers

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler handles metrics-related requests
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// Metrics returns a Fiber handler that serves the Prometheus registry
func (h *MetricsHandler) Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		handler := promhttp.Handler()

		writer := &fiberResponseWriter{c: c}

		uri := c.Request().URI()
		httpReqURL, err := url.ParseRequestURI(string(uri.RequestURI()))
		if err != nil {
			return fmt.Errorf("failed to parse request URI: %w", err)
		}

		req := &http.Request{
			Method: c.Method(),
			URL:    httpReqURL,
			Header: make(http.Header),
		}
		c.Request().Header.VisitAll(func(key, value []byte) {
			req.Header.Set(string(key), string(value))
		})

		handler.ServeHTTP(writer, req)

		return nil
	}
}

// fiberResponseWriter implements http.ResponseWriter over a Fiber context
type fiberResponseWriter struct {
	c *fiber.Ctx
}

func (w *fiberResponseWriter) Header() http.Header {
	return make(http.Header)
}

func (w *fiberResponseWriter) Write(data []byte) (int, error) {
	return w.c.Write(data)
}

func (w *fiberResponseWriter) WriteHeader(statusCode int) {
	w.c.Status(statusCode)
}
