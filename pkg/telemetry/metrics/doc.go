// Package metrics exposes guardrail's Prometheus metrics.
//
// A Collector is created once per process on a private registry and passed
// both to the engine (engine.Observer) and to the capability chain and cache
// (capability.Observer):
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	chain := capability.NewChain(providers, capability.WithObserver(collector))
//	eng, err := engine.New(catalog, engine.DefaultConfig().WithObserver(collector))
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// The rule_id label is capped at 500 distinct values; further ids are
// reported as "other".
package metrics
