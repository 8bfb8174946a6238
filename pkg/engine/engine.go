package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/singleflight"

	"retailmedia-hq/guardrail/pkg/capability"
	"retailmedia-hq/guardrail/pkg/creative"
	"retailmedia-hq/guardrail/pkg/detect/layout"
	"retailmedia-hq/guardrail/pkg/detect/regex"
	"retailmedia-hq/guardrail/pkg/detect/semantic"
	"retailmedia-hq/guardrail/pkg/detect/vision"
	"retailmedia-hq/guardrail/pkg/rules"
	"retailmedia-hq/guardrail/pkg/telemetry/logging"
	"retailmedia-hq/guardrail/pkg/telemetry/tracing"
	"retailmedia-hq/guardrail/pkg/verdict"
)

// Mode selects which phases an evaluation runs.
type Mode string

const (
	// ModeQuick runs profile, layout and regex checks. Meant for every edit.
	ModeQuick Mode = "quick"

	// ModeFull adds the semantic and vision phases. Meant for export.
	ModeFull Mode = "full"
)

// IsValid reports whether m is a known mode.
func (m Mode) IsValid() bool {
	return m == ModeQuick || m == ModeFull
}

// Phase names, in execution order.
const (
	PhaseProfile  = "profile"
	PhaseLayout   = "layout"
	PhaseRegex    = "regex"
	PhaseSemantic = "semantic"
	PhaseVision   = "vision"
)

type phase struct {
	name string
	run  func(ctx context.Context, snap *creative.Snapshot, b *verdict.Builder)
}

// Engine evaluates creative snapshots against a rule catalog. It runs one
// evaluation at a time; concurrent callers get the last completed verdict.
type Engine struct {
	catalog  *rules.Catalog
	config   *Config
	logger   *slog.Logger
	observer Observer
	tracer   trace.Tracer
	now      func() time.Time

	layout   *layout.Detector
	regex    *regex.Detector
	semantic *semantic.Detector
	vision   *vision.Detector

	running  atomic.Bool
	last     atomic.Pointer[verdict.Verdict]
	inflight singleflight.Group
}

// New creates an engine for catalog. A nil config means DefaultConfig().
func New(catalog *rules.Catalog, cfg *Config) (*Engine, error) {
	if catalog == nil {
		return nil, ErrNilCatalog
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	caps := cfg.Capabilities
	if caps == nil {
		caps = capability.Disabled
	}
	images := cfg.Images
	if images == nil {
		images = capability.NewLoader(capability.LoaderConfig{})
	}
	observer := cfg.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("guardrail")
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}

	return &Engine{
		catalog:  catalog,
		config:   cfg,
		logger:   logger,
		observer: observer,
		tracer:   tracer,
		now:      now,
		layout:   layout.New(logger),
		regex:    regex.New(catalog, logger),
		semantic: semantic.New(caps, semantic.Config{
			BatchSize:     cfg.SemanticBatchSize,
			BatchTimeout:  cfg.SemanticBatchTimeout,
			Timeout:       cfg.SemanticTimeout,
			MinConfidence: cfg.SemanticMinConfidence,
		}, logger),
		vision: vision.New(caps, images, logger),
	}, nil
}

// Catalog returns the rule catalog the engine evaluates against.
func (e *Engine) Catalog() *rules.Catalog {
	return e.catalog
}

// EvaluateQuick runs the profile, layout and regex phases.
func (e *Engine) EvaluateQuick(ctx context.Context, snap *creative.Snapshot) *verdict.Verdict {
	return e.Evaluate(ctx, snap, ModeQuick)
}

// EvaluateFull runs every phase.
func (e *Engine) EvaluateFull(ctx context.Context, snap *creative.Snapshot) *verdict.Verdict {
	return e.Evaluate(ctx, snap, ModeFull)
}

// Evaluate checks snap in the given mode and always returns a verdict. When an
// evaluation is already running the last completed verdict is returned; before
// any evaluation has completed the caller waits for the running one instead.
func (e *Engine) Evaluate(ctx context.Context, snap *creative.Snapshot, mode Mode) *verdict.Verdict {
	if e.running.Load() {
		if last := e.last.Load(); last != nil {
			e.logger.Warn("evaluation already in progress, returning last verdict", "mode", mode)
			e.observer.ObserveEvaluation(string(mode), OutcomeBusy, 0)
			return last.Clone()
		}
	}

	res, _, shared := e.inflight.Do("evaluate", func() (any, error) {
		e.running.Store(true)
		defer e.running.Store(false)

		v := e.evaluate(ctx, snap, mode)
		e.last.Store(v)
		return v, nil
	})
	if shared {
		e.logger.Debug("shared in-flight evaluation", "mode", mode)
	}
	return res.(*verdict.Verdict).Clone()
}

// GetLastResult returns a copy of the last completed verdict, or nil.
func (e *Engine) GetLastResult() *verdict.Verdict {
	return e.last.Load().Clone()
}

func (e *Engine) evaluate(ctx context.Context, snap *creative.Snapshot, mode Mode) *verdict.Verdict {
	start := e.now()
	id := uuid.NewString()
	if !mode.IsValid() {
		mode = ModeQuick
	}

	ctx = logging.WithEvaluationID(ctx, id)
	ctx = logging.WithMode(ctx, string(mode))
	ctx, span := e.tracer.Start(ctx, "guardrail.evaluate", trace.WithAttributes(
		attribute.String(tracing.AttrEvaluationID, id),
		attribute.String(tracing.AttrMode, string(mode)),
	))
	defer span.End()

	if e.config.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Deadline)
		defer cancel()
	}

	b := verdict.NewBuilder()
	outcome, err := e.run(ctx, snap, mode, start, b)

	end := e.now()
	v := b.Finalize(end, end.Sub(start))
	if outcome == "" {
		outcome = OutcomeExportable
		if !v.CanExport {
			outcome = OutcomeBlocked
		}
	}

	tracing.SetVerdictAttributes(span, v)
	tracing.SetStatus(span, err)
	for _, f := range v.Findings() {
		e.observer.ObserveFinding(f.RuleID, string(f.Type))
	}
	e.observer.ObserveEvaluation(string(mode), outcome, end.Sub(start).Seconds())

	logger := logging.FromContext(ctx, e.logger)
	level := slog.LevelDebug
	if mode == ModeFull {
		level = slog.LevelInfo
	}
	logger.Log(ctx, level, "evaluation complete",
		"outcome", outcome,
		"score", v.Score,
		"can_export", v.CanExport,
		"errors", len(v.Errors),
		"warnings", len(v.Warnings),
		"duration_ms", v.TimeTakenMs,
	)
	return v
}

// run executes the phases into b. It returns a non-empty outcome when the
// evaluation stopped early.
func (e *Engine) run(ctx context.Context, snap *creative.Snapshot, mode Mode, start time.Time, b *verdict.Builder) (string, error) {
	logger := logging.FromContext(ctx, e.logger)

	if snap == nil {
		b.Add(engineError(ErrNilSnapshot))
		return OutcomeError, ErrNilSnapshot
	}
	if err := snap.Validate(); err != nil {
		logger.Warn("snapshot rejected", "error", err)
		b.Add(engineError(err))
		return OutcomeError, err
	}
	var normalized *creative.Snapshot
	if err := guard("normalize", func() { normalized = snap.Normalize() }); err != nil {
		logger.Error("snapshot normalization failed", "error", err)
		b.Add(engineError(err))
		return OutcomeError, err
	}

	ctx = logging.WithFormatID(ctx, normalized.Context.FormatID)
	logger = logging.FromContext(ctx, e.logger)

	for _, p := range e.phases(mode) {
		if e.expired(ctx, start) {
			logger.Warn("evaluation deadline exceeded", "next_phase", p.name)
			b.Add(engineTimeout(p.name))
			return OutcomeTimeout, context.DeadlineExceeded
		}
		if err := e.runPhase(ctx, p, normalized, b); err != nil {
			logger.Error("phase failed", "phase", p.name, "error", err)
			b.Add(engineError(err))
			return OutcomeError, err
		}
	}
	return "", nil
}

func (e *Engine) phases(mode Mode) []phase {
	out := []phase{
		{PhaseProfile, e.profilePhase},
		{PhaseLayout, e.layoutPhase},
		{PhaseRegex, e.regexPhase},
	}
	if mode == ModeFull {
		out = append(out,
			phase{PhaseSemantic, e.semanticPhase},
			phase{PhaseVision, e.visionPhase},
		)
	}
	return out
}

func (e *Engine) runPhase(ctx context.Context, p phase, snap *creative.Snapshot, b *verdict.Builder) error {
	ctx, span := e.tracer.Start(ctx, "guardrail.phase."+p.name, trace.WithAttributes(
		attribute.String(tracing.AttrPhase, p.name),
	))
	defer span.End()

	began := e.now()
	err := guard(p.name, func() { p.run(ctx, snap, b) })
	e.observer.ObservePhase(p.name, e.now().Sub(began).Seconds())
	tracing.SetError(span, err)
	return err
}

// expired reports whether the deadline passed, by the engine clock or the
// caller's context.
func (e *Engine) expired(ctx context.Context, start time.Time) bool {
	if ctx.Err() != nil {
		return true
	}
	return e.config.Deadline > 0 && e.now().Sub(start) >= e.config.Deadline
}

// guard runs fn and converts a panic into a PhaseError.
func guard(name string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PhaseError{Phase: name, Value: r}
		}
	}()
	fn()
	return nil
}

func (e *Engine) profilePhase(_ context.Context, snap *creative.Snapshot, b *verdict.Builder) {
	b.Add(checkProfile(snap)...)
}

func (e *Engine) layoutPhase(_ context.Context, snap *creative.Snapshot, b *verdict.Builder) {
	for _, r := range e.catalog.Rules() {
		if r.Uses(rules.MethodLayout) && Applies(r, snap) {
			b.Add(e.layout.Detect(snap, r).Violations...)
		}
	}
}

func (e *Engine) regexPhase(_ context.Context, snap *creative.Snapshot, b *verdict.Builder) {
	for _, r := range e.catalog.Rules() {
		if r.Uses(rules.MethodRegex) && Applies(r, snap) {
			b.Add(e.regex.Detect(snap, r).Violations...)
		}
	}
}

func (e *Engine) semanticPhase(ctx context.Context, snap *creative.Snapshot, b *verdict.Builder) {
	for _, r := range e.catalog.Rules() {
		if semantic.Applies(r) && Applies(r, snap) {
			b.Add(e.semantic.Detect(ctx, snap, r, b.Flagged(r.ID)).Violations...)
		}
	}
}

func (e *Engine) visionPhase(ctx context.Context, snap *creative.Snapshot, b *verdict.Builder) {
	ctx, cancel := context.WithTimeout(ctx, e.config.VisionTimeout)
	defer cancel()

	for _, r := range e.catalog.Rules() {
		if r.Uses(rules.MethodVision) && Applies(r, snap) {
			b.Add(e.vision.Detect(ctx, snap, r).Violations...)
		}
	}
}

func engineError(err error) verdict.Finding {
	return verdict.Finding{
		RuleID:          verdict.RuleEngineError,
		RuleName:        "Engine error",
		Category:        "engine",
		Type:            verdict.TypeHardFail,
		Severity:        verdict.SeverityBlockExport,
		DetectionMethod: "engine",
		Explanation:     "The compliance check could not complete, so the creative cannot be cleared for export.",
		PlainEnglish:    "Something went wrong while checking this creative. Try again before exporting.",
		Message:         err.Error(),
	}
}

func engineTimeout(nextPhase string) verdict.Finding {
	return verdict.Finding{
		RuleID:          verdict.RuleEngineTimeout,
		RuleName:        "Engine timeout",
		Category:        "engine",
		Type:            verdict.TypeWarning,
		Severity:        verdict.SeverityWarnUser,
		DetectionMethod: "engine",
		Explanation:     "The compliance check ran out of time; later checks were skipped.",
		PlainEnglish:    "Not every check finished. Run the check again before exporting.",
		Message:         fmt.Sprintf("deadline exceeded before %s phase", nextPhase),
	}
}
