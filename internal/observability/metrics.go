package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	picksTotal      *prometheus.CounterVec
	inwardsTotal    *prometheus.CounterVec
	returnsTotal    *prometheus.CounterVec
	delayedTasks    prometheus.Gauge
}

// NewMetrics initialises the registry and base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chairline_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chairline_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	picks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chairline_picks_total",
		Help: "Pick commits by result.",
	}, []string{"result"})
	inwards := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chairline_inward_accepts_total",
		Help: "Production inward accepts by result.",
	}, []string{"result"})
	returns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chairline_return_decisions_total",
		Help: "Return triage decisions by outcome.",
	}, []string{"outcome"})
	delayed := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chairline_delayed_tasks",
		Help: "Pending tasks past their due date, set by the reminder scan.",
	})
	registry.MustRegister(requests, duration, picks, inwards, returns, delayed)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		picksTotal:      picks,
		inwardsTotal:    inwards,
		returnsTotal:    returns,
		delayedTasks:    delayed,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// CountPick records a pick attempt outcome.
func (m *Metrics) CountPick(result string) {
	if m == nil {
		return
	}
	m.picksTotal.WithLabelValues(result).Inc()
}

// CountInward records an inward accept outcome.
func (m *Metrics) CountInward(result string) {
	if m == nil {
		return
	}
	m.inwardsTotal.WithLabelValues(result).Inc()
}

// CountReturnDecision records a triage outcome.
func (m *Metrics) CountReturnDecision(outcome string) {
	if m == nil {
		return
	}
	m.returnsTotal.WithLabelValues(outcome).Inc()
}

// SetDelayedTasks records the size of the delayed-task backlog.
func (m *Metrics) SetDelayedTasks(n int) {
	if m == nil {
		return
	}
	m.delayedTasks.Set(float64(n))
}

// Registerer exposes the registry for custom metric registration.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if ctx := chi.RouteContext(r.Context()); ctx != nil {
		if pattern := ctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}
