package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"retailmedia-hq/guardrail/pkg/config"
)

// overflowLabel replaces label values beyond the cardinality limit.
const overflowLabel = "other"

// Collector owns the guardrail metrics. It implements engine.Observer and
// capability.Observer, so the same value is handed to the engine and to the
// capability chain.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	evaluations *EvaluationMetrics
	capability  *CapabilityMetrics
	rules       *RulesMetrics

	// ruleIDs bounds the rule_id label; catalogs loaded from disk can carry
	// arbitrary ids.
	ruleIDs *CardinalityLimiter
}

// NewCollector creates the collector and registers its metrics, plus the Go
// runtime and process collectors, with registry. A nil registry creates a
// private one.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNS
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Collector{
		config:      cfg,
		registry:    registry,
		evaluations: NewEvaluationMetrics(cfg.Namespace, registry),
		capability:  NewCapabilityMetrics(cfg.Namespace, registry),
		rules:       NewRulesMetrics(cfg.Namespace, registry),
		ruleIDs:     NewCardinalityLimiter(500),
	}
}

// ObserveEvaluation implements engine.Observer.
func (c *Collector) ObserveEvaluation(mode, outcome string, seconds float64) {
	if !c.config.Enabled {
		return
	}
	c.evaluations.RecordEvaluation(mode, outcome, seconds)
}

// ObservePhase implements engine.Observer.
func (c *Collector) ObservePhase(phase string, seconds float64) {
	if !c.config.Enabled {
		return
	}
	c.evaluations.RecordPhase(phase, seconds)
}

// ObserveFinding implements engine.Observer.
func (c *Collector) ObserveFinding(ruleID, findingType string) {
	if !c.config.Enabled {
		return
	}
	if !c.ruleIDs.Allow(ruleID) {
		ruleID = overflowLabel
	}
	c.evaluations.RecordFinding(ruleID, findingType)
}

// ObserveCapabilityCall implements capability.Observer.
func (c *Collector) ObserveCapabilityCall(provider, operation string, success bool, seconds float64) {
	if !c.config.Enabled {
		return
	}
	c.capability.RecordCall(provider, operation, success, seconds)
}

// ObserveCacheLookup implements capability.Observer.
func (c *Collector) ObserveCacheLookup(operation string, hit bool) {
	if !c.config.Enabled {
		return
	}
	c.capability.RecordCacheLookup(operation, hit)
}

// UpdateProviderHealth sets the health gauge of an HTTP capability provider.
func (c *Collector) UpdateProviderHealth(provider string, healthy bool) {
	if !c.config.Enabled {
		return
	}
	c.capability.UpdateHealth(provider, healthy)
}

// RecordCachePrune counts entries removed by the cache pruner.
func (c *Collector) RecordCachePrune(removed int64) {
	if !c.config.Enabled {
		return
	}
	c.capability.RecordPrune(removed)
}

// RecordRulesReload records a catalog reload attempt. version and size
// describe the catalog in effect afterwards.
func (c *Collector) RecordRulesReload(success bool, version string, size int) {
	if !c.config.Enabled {
		return
	}
	c.rules.RecordReload(success, version, size)
}

// Registry returns the Prometheus registry backing the collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter caps the number of distinct values seen for a label.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter admitting maxCardinality values.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether value may be used as a label. Values already seen are
// always allowed.
func (cl *CardinalityLimiter) Allow(value string) bool {
	cl.mu.RLock()
	_, exists := cl.current[value]
	cl.mu.RUnlock()
	if exists {
		return true
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[value]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}
	cl.current[value] = struct{}{}
	return true
}

// Count returns the number of admitted values.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
