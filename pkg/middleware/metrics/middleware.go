package metrics

import (
	"net/http"
	"strconv"
	"time"

	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/joeydtaylor/steeze-effects/pkg/middleware/auth"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collect records request counters and latency.
func Collect(ca *auth.Middleware) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimd.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				if isSkipPath(r) {
					return
				}
				role := ""
				if ca != nil {
					role = ca.GetUser(r.Context()).Role.Name
				}
				route := routeLabel(r)
				requestsFromRole.WithLabelValues(role).Inc()
				requests.WithLabelValues(strconv.Itoa(ww.Status()), r.Method, route).Inc()
				responseTime.WithLabelValues(route).Observe(time.Since(start).Seconds())
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// ProvideMetrics is the /metrics handler over the default gatherer.
func ProvideMetrics() http.Handler { return promhttp.Handler() }
