package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/farmgatehq/farmgate-backend/pkg/metrics"
)

// Metrics records per-request duration and outcome, labelled by method and
// route pattern.
func Metrics(m *metrics.RequestMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()

			next.ServeHTTP(rec, r)

			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			op := r.Method + " " + r.URL.Path
			m.ObserveDuration(op, time.Since(start))
			if rec.status < 400 {
				m.IncSuccess(op)
			} else {
				m.IncFailure(op, strconv.Itoa(rec.status))
			}
		})
	}
}
