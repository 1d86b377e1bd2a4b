package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/liquidlens/liquidlens/internal/metrics"
)

// Metrics records request counts and latency per route. The pattern from the
// mux is used rather than the raw path so /api/markets/{id} stays one
// series.
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}
			next.ServeHTTP(rw, r)

			path := r.Pattern
			if path == "" {
				path = r.URL.Path
			}
			metrics.HTTPRequestsTotal.WithLabelValues(
				r.Method, path, strconv.Itoa(rw.statusCode),
			).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
		})
	}
}
