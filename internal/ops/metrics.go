package ops

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// MetricsRegistry holds every live-I/O and guardrail metric this core
// exposes, named per spec.md §6's LIVE_IO_* guardrail thresholds.
type MetricsRegistry struct {
	registry        *prometheus.Registry
	FetchLatency    *prometheus.HistogramVec
	FetchTimeouts   *prometheus.CounterVec
	FetchRateLimited *prometheus.CounterVec
	FetchFailures   *prometheus.CounterVec
	CircuitOpen     *prometheus.GaugeVec
	ActivationsTotal *prometheus.CounterVec
	ActivationDenials *prometheus.CounterVec
	GuardrailTriggers prometheus.Counter
}

// NewMetricsRegistry constructs every metric against its own Prometheus
// registry, rather than the global DefaultRegisterer, so a process can hold
// more than one (and tests can construct one per case without panicking on
// duplicate registration).
func NewMetricsRegistry() *MetricsRegistry {
	r := &MetricsRegistry{
		registry: prometheus.NewRegistry(),
		FetchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "matchdecide_fetch_latency_ms",
				Help:    "Connector fetch latency in milliseconds",
				Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
			},
			[]string{"connector"},
		),
		FetchTimeouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "matchdecide_fetch_timeouts_total",
				Help: "Total connector fetch timeouts",
			},
			[]string{"connector"},
		),
		FetchRateLimited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "matchdecide_fetch_rate_limited_total",
				Help: "Total connector fetches rejected by rate limiting (429)",
			},
			[]string{"connector"},
		),
		FetchFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "matchdecide_fetch_failures_total",
				Help: "Total connector fetch failures (5xx, transport errors)",
			},
			[]string{"connector"},
		),
		CircuitOpen: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "matchdecide_circuit_open",
				Help: "1 when a connector's circuit breaker is open, else 0",
			},
			[]string{"connector"},
		),
		ActivationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "matchdecide_activations_total",
				Help: "Total decisions allowed through the activation gate",
			},
			[]string{"market"},
		),
		ActivationDenials: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "matchdecide_activation_denials_total",
				Help: "Total decisions denied by the activation gate, by reason",
			},
			[]string{"reason"},
		),
		GuardrailTriggers: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "matchdecide_guardrail_triggers_total",
				Help: "Total guardrail events: stability-hash divergence or approval denial",
			},
		),
	}

	r.registry.MustRegister(
		r.FetchLatency, r.FetchTimeouts, r.FetchRateLimited, r.FetchFailures,
		r.CircuitOpen, r.ActivationsTotal, r.ActivationDenials, r.GuardrailTriggers,
	)
	return r
}

// Registry returns the metrics' dedicated Prometheus registry, for wiring
// into a promhttp handler.
func (r *MetricsRegistry) Registry() *prometheus.Registry {
	return r.registry
}

// RecordFetch records one connector fetch's latency.
func (r *MetricsRegistry) RecordFetch(connector string, latency time.Duration) {
	r.FetchLatency.WithLabelValues(connector).Observe(float64(latency.Milliseconds()))
}

// RecordTimeout records a connector fetch timeout.
func (r *MetricsRegistry) RecordTimeout(connector string) {
	r.FetchTimeouts.WithLabelValues(connector).Inc()
}

// RecordRateLimited records a 429 from a connector.
func (r *MetricsRegistry) RecordRateLimited(connector string) {
	r.FetchRateLimited.WithLabelValues(connector).Inc()
}

// RecordFailure records a connector fetch failure.
func (r *MetricsRegistry) RecordFailure(connector string) {
	r.FetchFailures.WithLabelValues(connector).Inc()
}

// SetCircuitOpen records a connector's circuit breaker state.
func (r *MetricsRegistry) SetCircuitOpen(connector string, open bool) {
	v := 0.0
	if open {
		v = 1.0
	}
	r.CircuitOpen.WithLabelValues(connector).Set(v)
}

// RecordActivation records one decision allowed through the activation gate.
func (r *MetricsRegistry) RecordActivation(market string) {
	r.ActivationsTotal.WithLabelValues(market).Inc()
}

// RecordActivationDenial records one decision denied by the activation gate.
func (r *MetricsRegistry) RecordActivationDenial(reason string) {
	r.ActivationDenials.WithLabelValues(reason).Inc()
}

// EmitGuardrailEvent increments the guardrail counter and logs the event. It
// has the signature of internal/activation.GuardrailEventFunc, so it can be
// passed to CheckApproval as the denial callback; nothing in this module
// passes it to CheckApproval.
func (r *MetricsRegistry) EmitGuardrailEvent(reasons []string) {
	r.GuardrailTriggers.Inc()
	log.Error().Strs("reasons", reasons).Msg("activation guardrail triggered")
}
