package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ad2m/missions/internal/mission"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	transitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "missions_transitions_total",
			Help: "Total number of committed mission transitions",
		},
		[]string{"action", "to"},
	)

	draftsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "missions_drafts_created_total",
			Help: "Total number of mission drafts created",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(transitionsTotal)
	prometheus.MustRegister(draftsCreatedTotal)
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// Recorder counts transitions. It is meant to sit next to other notifiers.
type Recorder struct{}

func (Recorder) MissionChanged(_ context.Context, e mission.Event) error {
	transitionsTotal.WithLabelValues(string(e.Action), string(e.To)).Inc()
	return nil
}

func RecordDraftCreated() {
	draftsCreatedTotal.Inc()
}

// Middleware records request counts and latency labelled by chi route pattern,
// so /missions/{id} stays one series.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
