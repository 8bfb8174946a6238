// Package layout implements the geometric and color checks. It needs nothing
// but the snapshot and never blocks.
package layout

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"retailmedia-hq/guardrail/pkg/creative"
	"retailmedia-hq/guardrail/pkg/detect"
	"retailmedia-hq/guardrail/pkg/rules"
	"retailmedia-hq/guardrail/pkg/verdict"
)

// Layout checks selected by a rule's layoutCheck param.
const (
	CheckDrinkaware       = "drinkaware"
	CheckValueTileOverlap = "value_tile_overlap"
	CheckTagPlacement     = "tag_placement"
	CheckSafeZone         = "safe_zone"
	CheckMinFont          = "min_font"
	CheckContrast         = "contrast"
	CheckPackshots        = "packshots"
)

// Detector runs layout checks.
type Detector struct {
	logger *slog.Logger
}

// New creates a layout detector. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{logger: logger}
}

// Detect runs the layout check named by the rule. Rules without a known
// layoutCheck pass.
func (d *Detector) Detect(snap *creative.Snapshot, r *rules.Rule) detect.Result {
	switch check := r.Params.String(rules.ParamLayoutCheck, ""); check {
	case CheckSafeZone:
		return detect.Fail(d.safeZone(snap, r)...)
	case CheckMinFont:
		return detect.Fail(d.minFont(snap, r)...)
	case CheckContrast:
		return detect.Fail(d.contrast(snap, r)...)
	case CheckValueTileOverlap:
		return detect.Fail(d.valueTileOverlap(snap, r)...)
	case CheckPackshots:
		return detect.Fail(d.packshots(snap, r)...)
	case CheckDrinkaware:
		return detect.Fail(d.drinkaware(snap, r)...)
	case CheckTagPlacement:
		return detect.Fail(d.tagPlacement(snap, r)...)
	case "":
		return detect.Pass()
	default:
		d.logger.Debug("unknown layout check", "rule_id", r.ID, "check", check)
		return detect.Pass()
	}
}

func (d *Detector) safeZone(snap *creative.Snapshot, r *rules.Rule) []verdict.Finding {
	f, ok := snap.Format()
	if !ok || f.Ratio != r.Params.String("ratio", "9:16") {
		return nil
	}
	top := r.Params.Float("safeZoneTop", 200)
	bottom := r.Params.Float("safeZoneBottom", 250)
	limit := f.Height - bottom

	var out []verdict.Finding
	for i := range snap.Elements {
		e := &snap.Elements[i]
		if e.IsSystem() || !(e.IsText() || e.IsLogoLike()) {
			continue
		}
		b := e.Bounds()
		var msg string
		switch {
		case b.Top < top:
			msg = fmt.Sprintf("%s sits in the top %gpx safe zone (top %.0fpx)", describe(e), top, b.Top)
		case b.Bottom() > limit:
			msg = fmt.Sprintf("%s sits in the bottom %gpx safe zone (bottom edge %.0fpx, limit %.0fpx)", describe(e), bottom, b.Bottom(), limit)
		default:
			continue
		}
		finding := detect.NewFinding(r, rules.MethodLayout, e.ID)
		finding.Message = msg
		out = append(out, finding)
	}
	return out
}

// requiredFontSize returns the minimum effective font size for the snapshot.
// SAYS creatives and small formats lower the threshold; the lowest applies.
func requiredFontSize(snap *creative.Snapshot, p rules.Params) float64 {
	required := p.Float("minFontSize", 20)
	if snap.Context.IsSAYS {
		required = p.Float("minFontSizeSays", 12)
	}
	if f, ok := snap.Format(); ok && f.Height < p.Float("smallFormatHeight", 200) {
		required = math.Min(required, p.Float("minFontSizeSmallFormat", 10))
	}
	return required
}

func (d *Detector) minFont(snap *creative.Snapshot, r *rules.Rule) []verdict.Finding {
	required := requiredFontSize(snap, r.Params)

	var out []verdict.Finding
	for i := range snap.Elements {
		e := &snap.Elements[i]
		if !e.IsText() || e.IsSystem() || e.FontSize <= 0 {
			continue
		}
		size := e.EffectiveFontSize()
		if size >= required {
			continue
		}
		finding := detect.NewFinding(r, rules.MethodLayout, e.ID)
		finding.Message = fmt.Sprintf("text is %gpx, minimum is %gpx", round2(size), required)
		finding.EffectiveSize = verdict.Float(round2(size))
		finding.RequiredSize = verdict.Float(required)
		out = append(out, finding)
	}
	return out
}

func (d *Detector) contrast(snap *creative.Snapshot, r *rules.Rule) []verdict.Finding {
	background := snap.Context.BackgroundColor
	if strings.TrimSpace(background) == "" {
		background = "#FFFFFF"
	}
	normal := r.Params.Float("normalRatio", 4.5)
	large := r.Params.Float("largeRatio", 3)
	largeSize := r.Params.Float("largeTextSize", 24)

	var out []verdict.Finding
	for i := range snap.Elements {
		e := &snap.Elements[i]
		if !e.IsText() || e.IsSystem() || strings.TrimSpace(e.Fill) == "" {
			continue
		}
		ratio, err := ContrastRatio(e.Fill, background)
		if err != nil {
			d.logger.Debug("malformed color, assuming maximum contrast",
				"rule_id", r.ID,
				"element_id", e.ID,
				"fill", e.Fill,
				"background", background,
				"error", err,
			)
		}
		required := normal
		if e.EffectiveFontSize() >= largeSize {
			required = large
		}
		if ratio >= required {
			continue
		}
		finding := detect.NewFinding(r, rules.MethodLayout, e.ID)
		finding.Message = fmt.Sprintf("contrast %.2f:1 against %s, needs %g:1", ratio, background, required)
		finding.MeasuredRatio = verdict.Float(round2(ratio))
		finding.RequiredRatio = verdict.Float(required)
		out = append(out, finding)
	}
	return out
}

func (d *Detector) valueTileOverlap(snap *creative.Snapshot, r *rules.Rule) []verdict.Finding {
	tiles := detect.ValueTileRects(snap.Elements)
	if len(tiles) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	var out []verdict.Finding
	flag := func(id, msg string) {
		if seen[id] {
			return
		}
		seen[id] = true
		finding := detect.NewFinding(r, rules.MethodLayout, id)
		finding.Message = msg
		out = append(out, finding)
	}

	for i, a := range tiles {
		for _, b := range tiles[i+1:] {
			if a.Element.ValueTileType != b.Element.ValueTileType && a.Rect.Overlaps(b.Rect) {
				flag(b.Element.ID, fmt.Sprintf("%s value tile overlaps %s value tile %q",
					tileName(b.Element), tileName(a.Element), a.Element.ID))
			}
		}
	}

	for i := range snap.Elements {
		e := &snap.Elements[i]
		if !blocksTile(e) {
			continue
		}
		bounds := e.Bounds()
		for _, t := range tiles {
			if bounds.Overlaps(t.Rect) {
				flag(e.ID, fmt.Sprintf("%s overlaps %s value tile %q", describe(e), tileName(t.Element), t.Element.ID))
				break
			}
		}
	}
	return out
}

// blocksTile reports whether e may not overlap a value tile.
func blocksTile(e *creative.Element) bool {
	switch {
	case e.IsValueTile, e.Role == creative.RoleValueTile:
		return false
	case e.IsBackground, e.Role == creative.RoleBackground:
		return false
	case e.IsSafeZone, e.Role == creative.RoleSafeZone:
		return false
	case e.IsTag, e.Role == creative.RoleTag:
		return false
	}
	return true
}

func (d *Detector) packshots(snap *creative.Snapshot, r *rules.Rule) []verdict.Finding {
	limit := r.Params.Int(detect.ParamMaxPackshots, 3)

	count, lead, first := 0, false, ""
	for i := range snap.Elements {
		e := &snap.Elements[i]
		if e.IsPackshot || e.Role == creative.RolePackshot {
			if count == 0 {
				first = e.ID
			}
			count++
			lead = lead || e.IsLeadPackshot
		}
	}

	var out []verdict.Finding
	if count > limit {
		finding := detect.NewFinding(r, rules.MethodLayout, "")
		finding.Message = fmt.Sprintf("%d packshots, maximum is %d", count, limit)
		finding.Count = verdict.Int(count)
		out = append(out, finding)
	}
	// The count is creative-level; the missing lead is reported on the first
	// packshot so both survive deduplication.
	if count > 0 && !lead {
		finding := detect.AsWarning(detect.NewFinding(r, rules.MethodLayout, first))
		finding.Message = "no packshot is marked as the lead"
		finding.Count = verdict.Int(count)
		out = append(out, finding)
	}
	return out
}

func (d *Detector) drinkaware(snap *creative.Snapshot, r *rules.Rule) []verdict.Finding {
	if !snap.Context.IsAlcoholProduct {
		return nil
	}

	required := r.Params.Float("minHeight", 20)
	if snap.Context.IsSAYS {
		required = r.Params.Float("minHeightSays", 12)
	}
	allowed := r.Params.Strings("allowedColors")
	if len(allowed) == 0 {
		allowed = []string{"#000000", "#FFFFFF"}
	}

	var out []verdict.Finding
	found := false
	for i := range snap.Elements {
		e := &snap.Elements[i]
		if !e.IsDrinkaware && e.Role != creative.RoleDrinkaware {
			continue
		}
		found = true

		var issues []string
		height := e.EffectiveHeight()
		if height < required {
			issues = append(issues, fmt.Sprintf("lockup is %gpx tall, minimum is %gpx", round2(height), required))
		}
		if fill := strings.TrimSpace(e.Fill); fill != "" && !colorIn(fill, allowed) {
			issues = append(issues, fmt.Sprintf("lockup color %s must be black or white", fill))
		}
		if len(issues) == 0 {
			continue
		}

		finding := detect.NewFinding(r, rules.MethodLayout, e.ID)
		finding.Message = strings.Join(issues, "; ")
		finding.Issues = issues
		if height < required {
			finding.EffectiveSize = verdict.Float(round2(height))
			finding.RequiredSize = verdict.Float(required)
		}
		out = append(out, finding)
	}

	if !found {
		finding := detect.NewFinding(r, rules.MethodLayout, "")
		finding.Message = "Drinkaware required"
		out = append(out, finding)
	}
	return out
}

func (d *Detector) tagPlacement(snap *creative.Snapshot, r *rules.Rule) []verdict.Finding {
	f, ok := snap.Format()
	if !ok {
		return nil
	}
	canvas := f.Canvas()

	var out []verdict.Finding
	for i := range snap.Elements {
		e := &snap.Elements[i]
		if !e.IsTag && e.Role != creative.RoleTag {
			continue
		}
		if canvas.Contains(e.Bounds()) {
			continue
		}
		finding := detect.NewFinding(r, rules.MethodLayout, e.ID)
		finding.Message = "tag extends beyond the canvas"
		out = append(out, finding)
	}
	return out
}

func describe(e *creative.Element) string {
	switch {
	case e.IsLogoLike():
		return "logo"
	case e.IsText():
		return "text"
	}
	return string(e.Kind)
}

func tileName(e *creative.Element) string {
	if e.ValueTileType == creative.ValueTileNone {
		return "untyped"
	}
	return string(e.ValueTileType)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
