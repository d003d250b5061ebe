package metrics

import (
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once           sync.Once
	registry       *prom.Registry
	tickDuration   prom.Histogram
	buildDuration  prom.Histogram
	buildOutcome   *prom.CounterVec
	transitions    *prom.CounterVec
	activeSessions prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.once.Do(func() {
		pr.tickDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "chickadee",
			Name:      "tick_duration_seconds",
			Help:      "Duration of display state recomputation ticks",
			Buckets:   prom.DefBuckets,
		})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "chickadee",
			Name:      "site_build_duration_seconds",
			Help:      "Total static site build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "chickadee",
			Name:      "site_build_outcomes_total",
			Help:      "Site build outcomes by final status",
		}, []string{"outcome"})
		pr.transitions = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "chickadee",
			Name:      "timer_transitions_total",
			Help:      "Timer state machine transitions by kind",
		}, []string{"transition"})
		pr.activeSessions = prom.NewGauge(prom.GaugeOpts{
			Namespace: "chickadee",
			Name:      "active_sessions",
			Help:      "Number of live timer sessions",
		})

		reg.MustRegister(pr.tickDuration, pr.buildDuration, pr.buildOutcome, pr.transitions, pr.activeSessions)
	})
	return pr
}

// Handler returns an HTTP handler exposing the registry.
func (pr *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(pr.registry, promhttp.HandlerOpts{})
}

func (pr *PrometheusRecorder) ObserveTickDuration(d time.Duration) {
	pr.tickDuration.Observe(d.Seconds())
}

func (pr *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	pr.buildDuration.Observe(d.Seconds())
}

func (pr *PrometheusRecorder) IncBuildOutcome(outcome string) {
	pr.buildOutcome.WithLabelValues(outcome).Inc()
}

func (pr *PrometheusRecorder) IncTimerTransition(transition string) {
	pr.transitions.WithLabelValues(transition).Inc()
}

func (pr *PrometheusRecorder) SetActiveSessions(n int) {
	pr.activeSessions.Set(float64(n))
}
