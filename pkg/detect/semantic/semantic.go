// Package semantic catches paraphrased copy violations that the regex patterns
// miss, by asking an entailment capability whether each piece of copy entails
// the rule's hypothesis.
package semantic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"retailmedia-hq/guardrail/pkg/capability"
	"retailmedia-hq/guardrail/pkg/creative"
	"retailmedia-hq/guardrail/pkg/detect"
	"retailmedia-hq/guardrail/pkg/detect/regex"
	"retailmedia-hq/guardrail/pkg/rules"
	"retailmedia-hq/guardrail/pkg/verdict"
)

// Config tunes the detector.
type Config struct {
	// BatchSize is the number of entailment calls in flight at once.
	BatchSize int

	// BatchTimeout bounds one batch.
	BatchTimeout time.Duration

	// Timeout bounds one rule across all batches.
	Timeout time.Duration

	// MinConfidence is the default entailment confidence threshold.
	MinConfidence float64
}

// DefaultConfig returns the default tuning.
func DefaultConfig() Config {
	return Config{
		BatchSize:     5,
		BatchTimeout:  8 * time.Second,
		Timeout:       20 * time.Second,
		MinConfidence: 0.75,
	}
}

// Detector runs entailment checks.
type Detector struct {
	caps   capability.Capabilities
	cfg    Config
	logger *slog.Logger
}

// New creates a detector. Zero fields in cfg take their defaults.
func New(caps capability.Capabilities, cfg Config, logger *slog.Logger) *Detector {
	def := DefaultConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = def.BatchTimeout
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = def.MinConfidence
	}
	if caps == nil {
		caps = capability.Disabled
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{caps: caps, cfg: cfg, logger: logger}
}

// Applies reports whether the rule is checked semantically: it must use both
// regex and semantic_nli and carry a hypothesis.
func Applies(r *rules.Rule) bool {
	return r.Uses(rules.MethodRegex) && r.Uses(rules.MethodSemantic) &&
		strings.TrimSpace(r.Params.String(rules.ParamHypothesis, "")) != ""
}

// Detect checks every eligible text element not in flagged, the set of object
// ids regex already reported for this rule. Capability failures are logged and
// the element is treated as clean.
func (d *Detector) Detect(ctx context.Context, snap *creative.Snapshot, r *rules.Rule, flagged map[string]bool) detect.Result {
	if !Applies(r) {
		return detect.Pass()
	}
	hypothesis := strings.TrimSpace(r.Params.String(rules.ParamHypothesis, ""))
	threshold := r.Params.Float(detect.ParamMinConfidence, d.cfg.MinConfidence)

	candidates := d.candidates(snap, r, flagged)
	if len(candidates) == 0 {
		return detect.Pass()
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	results := make([]*capability.EntailmentResult, len(candidates))
	for start := 0; start < len(candidates); start += d.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			d.logger.Warn("semantic checks stopped",
				"rule_id", r.ID,
				"checked", start,
				"remaining", len(candidates)-start,
				"error", err,
			)
			break
		}
		end := min(start+d.cfg.BatchSize, len(candidates))
		d.runBatch(ctx, r, hypothesis, candidates, results, start, end)
	}

	var out []verdict.Finding
	for i, res := range results {
		if res == nil || !res.Entails || res.Confidence < threshold {
			continue
		}
		e := candidates[i]
		finding := detect.NewFinding(r, rules.MethodSemantic, e.ID)
		finding.Confidence = verdict.Float(res.Confidence)
		finding.Message = fmt.Sprintf("copy implies: %s", hypothesis)
		out = append(out, finding)
	}
	return detect.Fail(out...)
}

func (d *Detector) candidates(snap *creative.Snapshot, r *rules.Rule, flagged map[string]bool) []*creative.Element {
	tiles := detect.ValueTileRects(snap.Elements)
	var out []*creative.Element
	for _, e := range snap.TextElements() {
		if flagged[e.ID] || !regex.Eligible(e, r, tiles) {
			continue
		}
		if utf8.RuneCountInString(strings.TrimSpace(e.Text)) <= 3 {
			continue
		}
		out = append(out, e)
	}
	return out
}

// runBatch checks candidates[start:end] concurrently under the batch deadline
// and stores each answer at its element's index.
func (d *Detector) runBatch(ctx context.Context, r *rules.Rule, hypothesis string, candidates []*creative.Element, results []*capability.EntailmentResult, start, end int) {
	batchCtx, cancel := context.WithTimeout(ctx, d.cfg.BatchTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(batchCtx)
	g.SetLimit(d.cfg.BatchSize)

	for i := start; i < end; i++ {
		e := candidates[i]
		g.Go(func() error {
			premise := regex.Normalize(e.Text)
			res, err := d.caps.CheckEntailment(gctx, premise, hypothesis)
			if err != nil {
				level := slog.LevelWarn
				if errors.Is(err, capability.ErrUnavailable) && !errors.Is(err, context.DeadlineExceeded) {
					level = slog.LevelDebug
				}
				d.logger.Log(gctx, level, "entailment check failed",
					"rule_id", r.ID,
					"element_id", e.ID,
					"error", err,
				)
				return nil
			}
			results[i] = &res
			return nil
		})
	}
	_ = g.Wait()
}
