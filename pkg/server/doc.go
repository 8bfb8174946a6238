// Package server hosts the compliance engine over HTTP for editors that do
// not embed it.
//
// # Endpoints
//
//   - POST /v1/evaluate/quick: evaluate a snapshot with the quick phases
//   - POST /v1/evaluate/full: evaluate with every phase, including AI checks
//   - GET /v1/verdicts/last: the last verdict served
//   - GET /v1/rules: the active rule catalog (?format=yaml for YAML)
//   - GET /health, /health/live, /version
//   - GET /metrics when a metrics handler is configured
//
// Evaluation responses are verdict JSON with status 200 whenever the body
// parses, including blocked creatives; X-Guardrail-Can-Export mirrors the
// export gate. Malformed bodies get a JSON error with a 4xx status.
//
// # Authentication
//
// When server.api_keys is set, /v1 routes require one of the keys as
// "Authorization: Bearer <key>" or in X-API-Key. Health, version and
// metrics endpoints stay open for probes and scrapers.
//
// # Rules Reload
//
// With an EngineFactory the server swaps engines atomically when the rule
// catalog changes:
//
//	srv := server.New(&cfg.Server, eng,
//	    server.WithEngineFactory(buildEngine),
//	    server.WithReloadRecorder(collector),
//	)
//	go srv.WatchRules(ctx, watcher, source.NewFileSource(cfg.Rules.FilePath))
//	return srv.Start(ctx)
//
// A failed reload keeps the previous engine.
package server
