// Package trace keeps per-process request counters for the metrics
// endpoint. Request ids and access logs live in internal/log.
package trace

import (
	"net/http"
	"sync/atomic"
	"time"
)

// Metrics is a point-in-time copy of the counters.
type Metrics struct {
	TotalRequests       int64
	ClientErrors        int64
	ServerErrors        int64
	InFlight            int64
	AverageResponseTime time.Duration
}

// Middleware counts requests by outcome and tracks their mean duration.
type Middleware struct {
	total         int64
	clientErrors  int64
	serverErrors  int64
	inFlight      int64
	totalDuration int64 // nanoseconds
}

func NewMiddleware() *Middleware {
	return &Middleware{}
}

func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		atomic.AddInt64(&m.inFlight, 1)
		defer atomic.AddInt64(&m.inFlight, -1)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		atomic.AddInt64(&m.total, 1)
		atomic.AddInt64(&m.totalDuration, int64(time.Since(start)))
		switch {
		case rw.statusCode >= 500:
			atomic.AddInt64(&m.serverErrors, 1)
		case rw.statusCode >= 400:
			atomic.AddInt64(&m.clientErrors, 1)
		}
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// GetMetrics returns current metrics
func (m *Middleware) GetMetrics() Metrics {
	total := atomic.LoadInt64(&m.total)
	var avg time.Duration
	if total > 0 {
		avg = time.Duration(atomic.LoadInt64(&m.totalDuration) / total)
	}
	return Metrics{
		TotalRequests:       total,
		ClientErrors:        atomic.LoadInt64(&m.clientErrors),
		ServerErrors:        atomic.LoadInt64(&m.serverErrors),
		InFlight:            atomic.LoadInt64(&m.inFlight),
		AverageResponseTime: avg,
	}
}
