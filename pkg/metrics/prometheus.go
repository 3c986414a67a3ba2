package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	ticksSent     *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	agentLatency  *prometheus.HistogramVec
	riskGauge     *prometheus.GaugeVec
	interventions *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		ticksSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentry_ticks_sent_total",
				Help: "Total number of ticks routed to a backend",
			},
			[]string{"backend", "symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentry_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		agentLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sentry_agent_analyze_seconds",
				Help:    "Duration of agent analysis in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"agent"},
		),
		riskGauge: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sentry_risk_confidence",
				Help: "Last fused risk confidence per asset",
			},
			[]string{"asset"},
		),
		interventions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentry_interventions_total",
				Help: "Total interventions issued",
			},
			[]string{"asset"},
		),
	}
}

// RecordTickSent records a tick routed to a backend.
func (r *Recorder) RecordTickSent(backend, symbol string) {
	r.ticksSent.WithLabelValues(backend, symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordAgentLatency records agent analysis latency in seconds.
func (r *Recorder) RecordAgentLatency(agent string, seconds float64) {
	r.agentLatency.WithLabelValues(agent).Observe(seconds)
}

// RecordRisk records the last fused risk confidence for an asset.
func (r *Recorder) RecordRisk(asset string, confidence float64) {
	r.riskGauge.WithLabelValues(asset).Set(confidence)
}

// RecordIntervention counts an issued intervention.
func (r *Recorder) RecordIntervention(asset string) {
	r.interventions.WithLabelValues(asset).Inc()
}
