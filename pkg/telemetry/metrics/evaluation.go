package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// EvaluationMetrics tracks engine evaluations.
//
// Metrics:
//   - guardrail_evaluations_total{mode,outcome}
//   - guardrail_evaluation_duration_seconds{mode}
//   - guardrail_phase_duration_seconds{phase}
//   - guardrail_findings_total{rule_id,type}
type EvaluationMetrics struct {
	evaluationsTotal   *prometheus.CounterVec
	evaluationDuration *prometheus.HistogramVec
	phaseDuration      *prometheus.HistogramVec
	findingsTotal      *prometheus.CounterVec
}

// NewEvaluationMetrics creates and registers evaluation metrics.
func NewEvaluationMetrics(namespace string, registry *prometheus.Registry) *EvaluationMetrics {
	em := &EvaluationMetrics{
		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "evaluations_total",
				Help:      "Total number of compliance evaluations by mode and outcome",
			},
			[]string{"mode", "outcome"},
		),

		evaluationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "evaluation_duration_seconds",
				Help:      "Duration of compliance evaluations in seconds",
				// Quick evaluations take milliseconds; full ones wait on AI capabilities.
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"mode"},
		),

		phaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "phase_duration_seconds",
				Help:      "Duration of evaluation phases in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"phase"},
		),

		findingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "findings_total",
				Help:      "Total number of findings reported by rule and type",
			},
			[]string{"rule_id", "type"},
		),
	}

	registry.MustRegister(
		em.evaluationsTotal,
		em.evaluationDuration,
		em.phaseDuration,
		em.findingsTotal,
	)

	return em
}

// RecordEvaluation records one finished evaluation.
func (em *EvaluationMetrics) RecordEvaluation(mode, outcome string, seconds float64) {
	em.evaluationsTotal.WithLabelValues(mode, outcome).Inc()
	em.evaluationDuration.WithLabelValues(mode).Observe(seconds)
}

// RecordPhase records the duration of one phase.
func (em *EvaluationMetrics) RecordPhase(phase string, seconds float64) {
	em.phaseDuration.WithLabelValues(phase).Observe(seconds)
}

// RecordFinding counts one reported finding.
func (em *EvaluationMetrics) RecordFinding(ruleID, findingType string) {
	em.findingsTotal.WithLabelValues(ruleID, findingType).Inc()
}
