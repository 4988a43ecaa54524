// Package metrics метрики Prometheus сервиса.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics набор счётчиков и гистограмм
type Metrics struct {
	Requests       *prometheus.CounterVec
	Duration       *prometheus.HistogramVec
	Submissions    *prometheus.CounterVec
	Collections    *prometheus.CounterVec
	CapacityEvents prometheus.Counter
	GeocodeResults *prometheus.CounterVec
}

// New регистрирует метрики в reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "waste",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status code.",
		}, []string{"route", "method", "code"}),
		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "waste",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		Submissions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "waste",
			Name:      "submissions_total",
			Help:      "Recyclable submissions by category.",
		}, []string{"category"}),
		Collections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "waste",
			Name:      "collection_status_changes_total",
			Help:      "Status transitions of submissions and special collections.",
		}, []string{"kind", "status"}),
		CapacityEvents: f.NewCounter(prometheus.CounterOpts{
			Namespace: "waste",
			Name:      "capacity_events_total",
			Help:      "Consumed capacity.updated events.",
		}),
		GeocodeResults: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "waste",
			Name:      "geocode_results_total",
			Help:      "Background geocoding outcomes.",
		}, []string{"result"}),
	}
}

// Middleware считает запросы. routePattern возвращает шаблон маршрута,
// чтобы не плодить метки по ID.
func (m *Metrics) Middleware(routePattern func(r *http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			route := routePattern(r)
			if route == "" {
				route = "unmatched"
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.Requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
			m.Duration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		})
	}
}

// SubmissionCreated учитывает новую заявку. Безопасен для nil.
func (m *Metrics) SubmissionCreated(category string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(category).Inc()
}

// StatusChanged учитывает смену статуса. Безопасен для nil.
func (m *Metrics) StatusChanged(kind, status string) {
	if m == nil {
		return
	}
	m.Collections.WithLabelValues(kind, status).Inc()
}

// CapacityEvent учитывает событие заполненности. Безопасен для nil.
func (m *Metrics) CapacityEvent() {
	if m == nil {
		return
	}
	m.CapacityEvents.Inc()
}

// Geocoded учитывает результат фонового геокодирования. Безопасен для nil.
func (m *Metrics) Geocoded(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.GeocodeResults.WithLabelValues(result).Inc()
}
