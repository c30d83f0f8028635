package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	analyses      *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	missingFields *prometheus.GaugeVec
	vixFallbacks  prometheus.Counter
	dynamicParams *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
}

// New creates a Prometheus metrics recorder on the default registry.
func New() *Recorder {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates a recorder on a specific registry; tests pass their own.
func NewWith(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		analyses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volana_analyses_total",
				Help: "Total number of evaluated snapshots",
			},
			[]string{"symbol", "quadrant"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volana_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		missingFields: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "volana_missing_fields",
				Help: "Confidence-relevant fields missing in the last record per symbol",
			},
			[]string{"symbol"},
		),
		vixFallbacks: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "volana_vix_fallbacks_total",
				Help: "Evaluations that used the VIX fallback constant",
			},
		),
		dynamicParams: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "volana_dynamic_param",
				Help: "Last smoothed adaptive coefficient per symbol",
			},
			[]string{"symbol", "param"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "volana_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordAnalysis counts one evaluated snapshot by outcome quadrant.
func (r *Recorder) RecordAnalysis(symbol, quadrant string) {
	r.analyses.WithLabelValues(symbol, quadrant).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordMissingFields records the missing-field count of the latest record.
func (r *Recorder) RecordMissingFields(symbol string, n int) {
	r.missingFields.WithLabelValues(symbol).Set(float64(n))
}

// RecordVIXFallback counts an evaluation served by the fallback VIX constant.
func (r *Recorder) RecordVIXFallback() {
	r.vixFallbacks.Inc()
}

// RecordDynamicParams exposes the current smoothed coefficients.
func (r *Recorder) RecordDynamicParams(symbol string, beta, lambda, alpha float64) {
	r.dynamicParams.WithLabelValues(symbol, "beta").Set(beta)
	r.dynamicParams.WithLabelValues(symbol, "lambda").Set(lambda)
	r.dynamicParams.WithLabelValues(symbol, "alpha").Set(alpha)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
