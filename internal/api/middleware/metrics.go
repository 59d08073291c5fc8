package middleware

import (
	"net/http"
	"sync/atomic"
)

// MetricsCollector counts requests and error responses.
type MetricsCollector struct {
	requests atomic.Int64
	errors   atomic.Int64
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{}
}

// Middleware returns middleware that counts each request and any 4xx or 5xx response.
func (mc *MetricsCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mc.requests.Add(1)

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		if sw.status >= 400 {
			mc.errors.Add(1)
		}
	})
}

// Snapshot returns the running request and error counts.
func (mc *MetricsCollector) Snapshot() (requests, errors int64) {
	return mc.requests.Load(), mc.errors.Load()
}
