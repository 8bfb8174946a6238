package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RulesMetrics tracks the rule catalog in effect.
//
// Metrics:
//   - guardrail_rules_reloads_total{result}
//   - guardrail_rules_catalog_size
//   - guardrail_rules_catalog_info{version}
type RulesMetrics struct {
	reloadsTotal *prometheus.CounterVec
	catalogSize  prometheus.Gauge
	catalogInfo  *prometheus.GaugeVec
}

// NewRulesMetrics creates and registers catalog metrics.
func NewRulesMetrics(namespace string, registry *prometheus.Registry) *RulesMetrics {
	rm := &RulesMetrics{
		reloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rules",
				Name:      "reloads_total",
				Help:      "Total number of rule catalog reloads by result",
			},
			[]string{"result"},
		),
		catalogSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "rules",
				Name:      "catalog_size",
				Help:      "Number of rules in the active catalog",
			},
		),
		catalogInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "rules",
				Name:      "catalog_info",
				Help:      "Active rule catalog version (always 1)",
			},
			[]string{"version"},
		),
	}

	registry.MustRegister(rm.reloadsTotal, rm.catalogSize, rm.catalogInfo)
	return rm
}

// RecordReload records a reload attempt. A failed reload leaves the catalog
// gauges untouched.
func (rm *RulesMetrics) RecordReload(success bool, version string, size int) {
	if !success {
		rm.reloadsTotal.WithLabelValues("failure").Inc()
		return
	}
	rm.reloadsTotal.WithLabelValues("success").Inc()
	rm.catalogSize.Set(float64(size))
	rm.catalogInfo.Reset()
	rm.catalogInfo.WithLabelValues(version).Set(1)
}
