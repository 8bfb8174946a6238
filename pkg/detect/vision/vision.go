// Package vision runs the multimodal checks: the Drinkaware lockup, people in
// photography and packshot analysis. Capability failures never reach the
// engine; they are logged and the check is skipped, except that an unreadable
// lockup answer is reported as a failed lockup.
package vision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"retailmedia-hq/guardrail/pkg/capability"
	"retailmedia-hq/guardrail/pkg/creative"
	"retailmedia-hq/guardrail/pkg/detect"
	"retailmedia-hq/guardrail/pkg/rules"
	"retailmedia-hq/guardrail/pkg/verdict"
)

// Vision checks selected by a rule's visionCheck param.
const (
	CheckDrinkawareLockup = "drinkaware_lockup"
	CheckPeople           = "people"
	CheckPackshotAnalysis = "packshot_analysis"
)

// UnverifiedLockupIssue is reported when the lockup answer cannot be parsed.
const UnverifiedLockupIssue = "Drinkaware lockup could not be verified"

// Detector runs vision checks.
type Detector struct {
	caps   capability.Capabilities
	images capability.ImageLoader
	logger *slog.Logger
}

// New creates a vision detector. Nil capabilities disable every check; a nil
// loader uses capability.NewLoader with defaults.
func New(caps capability.Capabilities, images capability.ImageLoader, logger *slog.Logger) *Detector {
	if caps == nil {
		caps = capability.Disabled
	}
	if images == nil {
		images = capability.NewLoader(capability.LoaderConfig{})
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{caps: caps, images: images, logger: logger}
}

// Detect runs the vision check named by the rule.
func (d *Detector) Detect(ctx context.Context, snap *creative.Snapshot, r *rules.Rule) detect.Result {
	switch check := r.Params.String(rules.ParamVisionCheck, ""); check {
	case CheckDrinkawareLockup:
		return detect.Fail(d.lockup(ctx, snap, r)...)
	case CheckPeople:
		return detect.Fail(d.people(ctx, snap, r)...)
	case CheckPackshotAnalysis:
		return detect.Fail(d.packshots(ctx, snap, r)...)
	case "":
		return detect.Pass()
	default:
		d.logger.Debug("unknown vision check", "rule_id", r.ID, "check", check)
		return detect.Pass()
	}
}

func (d *Detector) load(ctx context.Context, r *rules.Rule, ref string) (capability.Image, bool) {
	img, err := d.images.Load(ctx, ref)
	if err != nil {
		d.logger.Warn("image load failed, skipping vision check", "rule_id", r.ID, "error", err)
		return capability.Image{}, false
	}
	return img, true
}

func (d *Detector) lockup(ctx context.Context, snap *creative.Snapshot, r *rules.Rule) []verdict.Finding {
	if !snap.Context.IsAlcoholProduct || snap.Context.CanvasDataURL == "" {
		return nil
	}
	img, ok := d.load(ctx, r, snap.Context.CanvasDataURL)
	if !ok {
		return nil
	}

	res, err := d.caps.VerifyLockup(ctx, img, capability.LockupDrinkaware)
	switch {
	case errors.Is(err, capability.ErrUnparseable):
		d.logger.Warn("lockup answer unparseable, failing lockup", "rule_id", r.ID, "error", err)
		res = capability.LockupResult{Valid: false, Issues: []string{UnverifiedLockupIssue}}
	case err != nil:
		d.logger.Warn("lockup verification unavailable", "rule_id", r.ID, "error", err)
		return nil
	}
	if res.Valid {
		return nil
	}

	issues := nonEmpty(res.Issues)
	if len(issues) == 0 {
		issues = []string{"Drinkaware lockup is missing or illegible"}
	}
	finding := detect.NewFinding(r, rules.MethodVision, "")
	finding.Issues = issues
	finding.Message = strings.Join(issues, "; ")
	return []verdict.Finding{finding}
}

func (d *Detector) people(ctx context.Context, snap *creative.Snapshot, r *rules.Rule) []verdict.Finding {
	if snap.Context.BackgroundImageURL == "" || snap.Context.PeopleConfirmed {
		return nil
	}
	img, ok := d.load(ctx, r, snap.Context.BackgroundImageURL)
	if !ok {
		return nil
	}

	res, err := d.caps.DetectPeople(ctx, img)
	if err != nil {
		d.logger.Warn("people detection unavailable", "rule_id", r.ID, "error", err)
		return nil
	}
	minConfidence := r.Params.Float(detect.ParamMinConfidence, 0)
	if !res.Detected || res.Confidence < minConfidence {
		return nil
	}

	finding := detect.NewFinding(r, rules.MethodVision, "")
	finding.Type = verdict.TypeWarning
	finding.Severity = verdict.SeverityUserConfirmation
	finding.Confidence = verdict.Float(res.Confidence)
	if res.Count > 0 {
		finding.Count = verdict.Int(res.Count)
		finding.Message = fmt.Sprintf("%d people detected, confirm usage rights", res.Count)
	} else {
		finding.Message = "people detected, confirm usage rights"
	}
	return []verdict.Finding{finding}
}

func (d *Detector) packshots(ctx context.Context, snap *creative.Snapshot, r *rules.Rule) []verdict.Finding {
	if snap.Context.CanvasDataURL == "" || !hasPackshot(snap) {
		return nil
	}
	img, ok := d.load(ctx, r, snap.Context.CanvasDataURL)
	if !ok {
		return nil
	}

	res, err := d.caps.AnalyzePackshots(ctx, img)
	if err != nil {
		d.logger.Warn("packshot analysis unavailable", "rule_id", r.ID, "error", err)
		return nil
	}

	limit := r.Params.Int(detect.ParamMaxPackshots, 3)
	var issues []string
	if res.Count > limit {
		issues = append(issues, fmt.Sprintf("%d packshots visible, maximum is %d", res.Count, limit))
	}
	if res.Count > 0 && !res.HasLead {
		issues = append(issues, "no lead packshot is visible")
	}
	issues = append(issues, nonEmpty(res.Issues)...)
	if len(issues) == 0 {
		return nil
	}

	finding := detect.AsWarning(detect.NewFinding(r, rules.MethodVision, detect.CanvasObjectID))
	finding.Issues = issues
	finding.Count = verdict.Int(res.Count)
	finding.Message = strings.Join(issues, "; ")
	return []verdict.Finding{finding}
}

func hasPackshot(snap *creative.Snapshot) bool {
	for i := range snap.Elements {
		if snap.Elements[i].IsPackshot || snap.Elements[i].Role == creative.RolePackshot {
			return true
		}
	}
	return false
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
