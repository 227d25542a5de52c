package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JaimeStill/weles/pkg/metrics"
)

// Metrics returns middleware recording request latency by method and status
// code, plus the number of requests in flight. Register it once per registry.
func Metrics(reg prometheus.Registerer, component string) func(http.Handler) http.Handler {
	duration := metrics.MustRegisterHistogramVec(reg, component,
		"request_duration_seconds", "HTTP request latency.",
		[]float64{.005, .025, .1, .5, 1, 5, 30, 120, 600},
		"method", "code")
	inFlight := metrics.MustRegisterGaugeVec(reg, component,
		"requests_in_flight", "HTTP requests being served.")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			gauge := inFlight.WithLabelValues()
			gauge.Inc()
			defer gauge.Dec()

			rec := record(w)
			next.ServeHTTP(rec, r)

			duration.
				WithLabelValues(r.Method, strconv.Itoa(rec.Status())).
				Observe(time.Since(start).Seconds())
		})
	}
}
