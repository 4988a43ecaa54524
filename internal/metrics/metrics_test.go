package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_CountsRequests(t *testing.T) {
	m := New(prometheus.NewRegistry())

	h := m.Middleware(func(*http.Request) string { return "/api/waste/{id}" })(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))

	for loopIdx := 0; loopIdx < 3; loopIdx++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/api/waste/7", nil))
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.Requests.WithLabelValues("/api/waste/{id}", http.MethodDelete, "404")))
}

func TestMiddleware_UnmatchedRoute(t *testing.T) {
	m := New(prometheus.NewRegistry())

	h := m.Middleware(func(*http.Request) string { return "" })(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("ok"))
		}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("unmatched", http.MethodGet, "200")))
}

func TestDomainCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.SubmissionCreated("plastic")
	m.StatusChanged("special", "Collected")
	m.CapacityEvent()
	m.Geocoded(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions.WithLabelValues("plastic")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Collections.WithLabelValues("special", "Collected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CapacityEvents))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GeocodeResults.WithLabelValues("failed")))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() {
		nilMetrics.SubmissionCreated("plastic")
		nilMetrics.StatusChanged("waste", "Completed")
		nilMetrics.CapacityEvent()
		nilMetrics.Geocoded(true)
	})
}
