// Package metrics exposes the app's Prometheus collectors behind the
// repository.Metrics interface.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "trackbets"

type Recorder struct {
	analyses *prometheus.CounterVec
	funnel   *prometheus.CounterVec
	failures *prometheus.CounterVec
	price    *prometheus.GaugeVec
	duration *prometheus.HistogramVec
}

// New registers the collectors on reg, or on the default registry when reg
// is nil. Calling it twice against one registry panics.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &Recorder{
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Verdicts shown to a user, by data source and signal.",
		}, []string{"source", "signal"}),
		funnel: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "funnel_events_total",
			Help:      "Funnel events handed to a backend.",
		}, []string{"backend", "kind"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Failures by component and reason.",
		}, []string{"component", "reason"}),
		price: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_price",
			Help:      "Most recent streamed price per ticker.",
		}, []string{"ticker"}),
		// analyze calls sit behind a multi-second loading screen
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_seconds",
			Help:      "Time spent per operation.",
			Buckets:   []float64{.001, .01, .05, .1, .25, .5, 1, 2, 4, 8, 16},
		}, []string{"operation"}),
	}
	reg.MustRegister(r.analyses, r.funnel, r.failures, r.price, r.duration)
	return r
}

func (r *Recorder) RecordAnalysis(source, signal string) {
	r.analyses.WithLabelValues(source, signal).Inc()
}

func (r *Recorder) RecordFunnelEvent(backend, kind string) {
	r.funnel.WithLabelValues(backend, kind).Inc()
}

// RecordError counts a failure. Kinds are "component_reason" (for example
// "ingest_unmarshal"); a kind without an underscore has an empty reason.
func (r *Recorder) RecordError(kind string) {
	component, reason, _ := strings.Cut(kind, "_")
	r.failures.WithLabelValues(component, reason).Inc()
}

func (r *Recorder) RecordLastPrice(ticker string, price float64) {
	r.price.WithLabelValues(ticker).Set(price)
}

func (r *Recorder) RecordLatency(op string, seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	r.duration.WithLabelValues(op).Observe(seconds)
}
