// Package monitoring exposes the engine's Prometheus metrics.
package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "solar_"

	// ResultSuccess and ResultError label evaluation outcomes.
	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	evaluationsTotal   *prometheus.CounterVec
	evaluationLatency  *prometheus.HistogramVec
	degradedTotal      *prometheus.CounterVec
	complianceTotal    *prometheus.CounterVec
	externalLatency    *prometheus.HistogramVec
	breakerState       *prometheus.GaugeVec
	schedulesTotal     *prometheus.CounterVec
	proposalTransition *prometheus.CounterVec
)

// Init registers the metrics with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		evaluationsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "viability_evaluations_total",
				Help: "Total viability evaluations by result",
			},
			[]string{"result"},
		)
		evaluationLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "viability_evaluation_seconds",
				Help:    "Viability evaluation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		degradedTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "degraded_calls_total",
				Help: "External calls replaced by their fallback, by service and reason",
			},
			[]string{"service", "reason"},
		)
		complianceTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "compliance_checks_total",
				Help: "MMGD oversizing checks by verdict",
			},
			[]string{"verdict"},
		)
		externalLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "external_call_seconds",
				Help:    "Latency of calls to external services",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"service"},
		)
		breakerState = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "circuit_breaker_state",
				Help: "Circuit breaker state per service (0 closed, 1 open, 2 half-open)",
			},
			[]string{"service"},
		)
		schedulesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "financing_schedules_total",
				Help: "Generated amortization schedules by system",
			},
			[]string{"system"},
		)
		proposalTransition = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "proposal_transitions_total",
				Help: "Financing proposal state transitions by target status",
			},
			[]string{"status"},
		)

		prometheus.MustRegister(
			evaluationsTotal,
			evaluationLatency,
			degradedTotal,
			complianceTotal,
			externalLatency,
			breakerState,
			schedulesTotal,
			proposalTransition,
		)
	})
}

// ObserveEvaluation records evaluation latency and result.
func ObserveEvaluation(result string, duration time.Duration) {
	Init()
	evaluationsTotal.WithLabelValues(result).Inc()
	evaluationLatency.WithLabelValues(result).Observe(duration.Seconds())
}

// IncDegraded counts a fallback substitution.
func IncDegraded(service, reason string) {
	Init()
	degradedTotal.WithLabelValues(service, reason).Inc()
}

// IncCompliance counts an oversizing verdict.
func IncCompliance(valid bool) {
	Init()
	verdict := "valid"
	if !valid {
		verdict = "invalid"
	}
	complianceTotal.WithLabelValues(verdict).Inc()
}

// ObserveExternal records how long a call to service took.
func ObserveExternal(service string, duration time.Duration) {
	Init()
	externalLatency.WithLabelValues(service).Observe(duration.Seconds())
}

// SetBreakerState publishes a breaker's numeric state.
func SetBreakerState(service string, state int) {
	Init()
	breakerState.WithLabelValues(service).Set(float64(state))
}

// IncSchedule counts a generated schedule.
func IncSchedule(system string) {
	Init()
	schedulesTotal.WithLabelValues(system).Inc()
}

// IncProposalTransition counts a proposal entering status.
func IncProposalTransition(status string) {
	Init()
	proposalTransition.WithLabelValues(status).Inc()
}
