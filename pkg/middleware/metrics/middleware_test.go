package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Collect(nil))
	r.Post("/actions/{type}", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusAccepted) })
	r.Get("/metrics", func(http.ResponseWriter, *http.Request) {})

	before := testutil.ToFloat64(requests.WithLabelValues("202", http.MethodPost, "/actions/{type}"))
	for _, p := range []string{"/actions/Deposit", "/actions/Withdraw"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, p, nil))
	}
	skipped := testutil.ToFloat64(requests.WithLabelValues("200", http.MethodGet, "/metrics"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, before+2, testutil.ToFloat64(requests.WithLabelValues("202", http.MethodPost, "/actions/{type}")))
	assert.Equal(t, skipped, testutil.ToFloat64(requests.WithLabelValues("200", http.MethodGet, "/metrics")))
}
