package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CapabilityMetrics tracks AI capability providers and the result cache.
//
// Metrics:
//   - guardrail_capability_calls_total{provider,operation,status}
//   - guardrail_capability_call_duration_seconds{provider,operation}
//   - guardrail_capability_provider_healthy{provider}
//   - guardrail_capability_cache_lookups_total{operation,result}
//   - guardrail_capability_cache_pruned_total
type CapabilityMetrics struct {
	callsTotal   *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	healthy      *prometheus.GaugeVec
	cacheLookups *prometheus.CounterVec
	cachePruned  prometheus.Counter
}

// NewCapabilityMetrics creates and registers capability metrics.
func NewCapabilityMetrics(namespace string, registry *prometheus.Registry) *CapabilityMetrics {
	cm := &CapabilityMetrics{
		callsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "capability",
				Name:      "calls_total",
				Help:      "Total number of capability provider calls",
			},
			[]string{"provider", "operation", "status"},
		),

		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "capability",
				Name:      "call_duration_seconds",
				Help:      "Duration of capability provider calls in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 25},
			},
			[]string{"provider", "operation"},
		),

		healthy: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "capability",
				Name:      "provider_healthy",
				Help:      "Provider health status (1 = healthy, 0 = unhealthy)",
			},
			[]string{"provider"},
		),

		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "capability",
				Name:      "cache_lookups_total",
				Help:      "Total number of capability cache lookups by result",
			},
			[]string{"operation", "result"},
		),

		cachePruned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "capability",
				Name:      "cache_pruned_total",
				Help:      "Total number of expired cache entries removed",
			},
		),
	}

	registry.MustRegister(
		cm.callsTotal,
		cm.callDuration,
		cm.healthy,
		cm.cacheLookups,
		cm.cachePruned,
	)

	return cm
}

// RecordCall records one provider call.
func (cm *CapabilityMetrics) RecordCall(provider, operation string, success bool, seconds float64) {
	status := "success"
	if !success {
		status = "error"
	}
	cm.callsTotal.WithLabelValues(provider, operation, status).Inc()
	cm.callDuration.WithLabelValues(provider, operation).Observe(seconds)
}

// UpdateHealth sets the provider health gauge.
func (cm *CapabilityMetrics) UpdateHealth(provider string, healthy bool) {
	v := 0.0
	if healthy {
		v = 1.0
	}
	cm.healthy.WithLabelValues(provider).Set(v)
}

// RecordCacheLookup counts a cache hit or miss.
func (cm *CapabilityMetrics) RecordCacheLookup(operation string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cm.cacheLookups.WithLabelValues(operation, result).Inc()
}

// RecordPrune adds removed to the pruned entries counter.
func (cm *CapabilityMetrics) RecordPrune(removed int64) {
	if removed > 0 {
		cm.cachePruned.Add(float64(removed))
	}
}
