package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/templui/recipehub/internal/metrics"
)

// Metrics records request counts and latencies by route pattern. It must run
// inside any middleware that replaces the request, so it sees the pattern the
// mux matched.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := wrap(w)

		next.ServeHTTP(rw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
