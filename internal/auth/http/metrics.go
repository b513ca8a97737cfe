package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for login and refresh counters.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeLocked   = "locked"
	OutcomeDisabled = "disabled"
	OutcomeError    = "error"
)

// Metrics owns a private registry so several routers (tests) can coexist.
type Metrics struct {
	Registry *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	logins   *prometheus.CounterVec
	refresh  *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "otoshop_http_requests_total",
				Help: "HTTP requests by route, method and status code.",
			},
			[]string{"route", "method", "code"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "otoshop_http_request_duration_seconds",
				Help:    "HTTP request latency by route and method.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		logins: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "otoshop_auth_logins_total",
				Help: "Login attempts by outcome.",
			},
			[]string{"outcome"},
		),
		refresh: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "otoshop_auth_refreshes_total",
				Help: "Refresh attempts by outcome.",
			},
			[]string{"outcome"},
		),
	}
}

// Instrument wraps h with request counters labelled by route, which is the
// mux pattern rather than the raw path.
func (m *Metrics) Instrument(route string, h http.Handler) http.Handler {
	labels := prometheus.Labels{"route": route}
	return promhttp.InstrumentHandlerDuration(
		m.duration.MustCurryWith(labels),
		promhttp.InstrumentHandlerCounter(m.requests.MustCurryWith(labels), h),
	)
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

func (m *Metrics) Login(outcome string)   { m.logins.WithLabelValues(outcome).Inc() }
func (m *Metrics) Refresh(outcome string) { m.refresh.WithLabelValues(outcome).Inc() }
