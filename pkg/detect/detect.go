// Package detect holds the pieces shared by the detectors: the result type and
// the finding constructor. The detectors themselves live in subpackages, one per
// detection method.
//
// Detectors report violations as findings. They never return errors and never
// panic across their boundary; a check that cannot run produces no findings.
package detect

import (
	"retailmedia-hq/guardrail/pkg/creative"
	"retailmedia-hq/guardrail/pkg/rules"
	"retailmedia-hq/guardrail/pkg/verdict"
)

// Result is the outcome of running one detector over one rule.
type Result struct {
	Passed     bool
	Violations []verdict.Finding
}

// Pass is the result of a rule with no violations.
func Pass() Result {
	return Result{Passed: true}
}

// Fail builds a result from violations. An empty list passes.
func Fail(violations ...verdict.Finding) Result {
	return Result{Passed: len(violations) == 0, Violations: violations}
}

// CanvasObjectID is the object id of findings raised from the rendered canvas
// rather than from a single element.
const CanvasObjectID = "canvas"

// NewFinding copies the rule metadata into a finding for objectID.
func NewFinding(r *rules.Rule, method rules.Method, objectID string) verdict.Finding {
	return verdict.Finding{
		RuleID:          r.ID,
		RuleName:        r.Name,
		Category:        string(r.Category),
		Type:            r.Type,
		Severity:        r.Severity,
		DetectionMethod: string(method),
		ObjectID:        objectID,
		Explanation:     r.Explanation,
		PlainEnglish:    r.PlainEnglish,
	}
}

// AsWarning downgrades f to an advisory finding.
func AsWarning(f verdict.Finding) verdict.Finding {
	f.Type = verdict.TypeWarning
	f.Severity = verdict.SeverityWarnUser
	return f
}

// ValueTileRects returns the rectangles of the value tiles on the canvas. Only
// tile shapes count; tile text and icons sit inside them.
func ValueTileRects(elements []creative.Element) []TileRect {
	var out []TileRect
	for i := range elements {
		e := &elements[i]
		if e.IsValueTile && e.Kind == creative.KindShape {
			out = append(out, TileRect{Element: e, Rect: e.Bounds()})
		}
	}
	return out
}

// TileRect is a value tile and its bounding rectangle.
type TileRect struct {
	Element *creative.Element
	Rect    creative.Rect
}

// InsideValueTile reports whether r lies entirely within one of tiles.
func InsideValueTile(tiles []TileRect, r creative.Rect) bool {
	for _, t := range tiles {
		if t.Rect.Contains(r) {
			return true
		}
	}
	return false
}

// SkippedForValueTiles reports whether e is system copy that rules declaring
// skipForValueTiles ignore.
func SkippedForValueTiles(e *creative.Element) bool {
	return e.IsValueTile || e.IsDrinkaware || e.IsTag ||
		e.Role == creative.RoleValueTile || e.Role == creative.RoleDrinkaware || e.Role == creative.RoleTag
}

// Param keys read by more than one detector.
const (
	ParamSkipForValueTiles      = "skipForValueTiles"
	ParamExemptInsideValueTiles = "exemptInsideValueTiles"
	ParamMinConfidence          = "minConfidence"
	ParamMaxPackshots           = "maxPackshots"
)
