// Package engine orchestrates a compliance evaluation.
//
// An evaluation runs a fixed sequence of phases over a normalized copy of the
// creative snapshot and accumulates their findings into one verdict:
//
//	profile -> layout -> regex -> semantic -> vision
//
// Quick evaluations stop after the regex phase and never call AI
// capabilities; they are cheap enough to run on every edit. Full evaluations
// run every phase and are meant for the export gate.
//
// # Applicability
//
// A rule runs only when its applies_to_formats list (if any) contains the
// snapshot's format id and every applies_when key equals the matching context
// value. Numbers compare by value, booleans accept "true"/"false" strings and
// unknown keys never match.
//
// # Failure handling
//
// Rule violations are findings, never errors. A snapshot that fails
// validation, or a phase that panics, ends the evaluation with an
// ENGINE_ERROR hard fail. When the deadline passes between phases the
// remaining phases are skipped and an ENGINE_TIMEOUT warning is added; the
// timeout alone does not block export.
//
// # Concurrency
//
// An Engine evaluates one snapshot at a time. A call made while another is in
// progress returns the last completed verdict; if none exists yet it waits for
// the running evaluation and shares its result.
//
// # Usage
//
//	eng, err := engine.New(rules.Default(), engine.DefaultConfig().
//	    WithCapabilities(chain).
//	    WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	v := eng.EvaluateFull(ctx, snapshot)
//	if !v.CanExport {
//	    // show v.Errors to the designer
//	}
package engine
