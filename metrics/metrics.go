// Package metrics exposes Prometheus counters for form activity.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	formEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "patrol_form_events_total",
			Help: "Form events received, by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	autosavesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "patrol_autosaves_total",
			Help: "Report auto-saves, by outcome",
		},
		[]string{"outcome"},
	)

	reportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "patrol_reports_total",
			Help: "Report lifecycle operations",
		},
		[]string{"operation"},
	)

	openSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "patrol_form_sessions_open",
			Help: "Form sessions currently open",
		},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "patrol_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status_code"},
	)
)

func init() {
	prometheus.MustRegister(
		formEventsTotal,
		autosavesTotal,
		reportsTotal,
		openSessions,
		httpRequestDuration,
	)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func FormEvent(action string, err error) {
	formEventsTotal.WithLabelValues(action, outcome(err)).Inc()
}

// Autosave has the signature of a session save hook.
func Autosave(err error) {
	autosavesTotal.WithLabelValues(outcome(err)).Inc()
}

func ReportCreated() {
	reportsTotal.WithLabelValues("create").Inc()
}

func ReportDeleted() {
	reportsTotal.WithLabelValues("delete").Inc()
}

func SetOpenSessions(n int) {
	openSessions.Set(float64(n))
}

// Middleware times requests by route pattern, so ids do not explode the
// label set.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}
