package engine

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"retailmedia-hq/guardrail/pkg/capability"
	"retailmedia-hq/guardrail/pkg/creative"
	"retailmedia-hq/guardrail/pkg/rules"
	"retailmedia-hq/guardrail/pkg/verdict"
)

type staticLoader struct{}

func (staticLoader) Load(_ context.Context, ref string) (capability.Image, error) {
	return capability.Image{Data: []byte(ref), MIMEType: "image/png"}, nil
}

// fakeCaps answers entailment with a predicate, people detection with a
// callback and packshot analysis with a fixed result.
type fakeCaps struct {
	entails   func(premise, hypothesis string) bool
	people    func(ctx context.Context) (capability.PeopleResult, error)
	packshots *capability.PackshotResult

	mu       sync.Mutex
	premises []string
}

func (f *fakeCaps) DetectPeople(ctx context.Context, _ capability.Image) (capability.PeopleResult, error) {
	if f.people == nil {
		return capability.PeopleResult{}, nil
	}
	return f.people(ctx)
}

func (f *fakeCaps) VerifyLockup(context.Context, capability.Image, capability.LockupKind) (capability.LockupResult, error) {
	return capability.LockupResult{Valid: true}, nil
}

func (f *fakeCaps) AnalyzePackshots(context.Context, capability.Image) (capability.PackshotResult, error) {
	if f.packshots == nil {
		return capability.PackshotResult{}, capability.ErrUnsupported
	}
	return *f.packshots, nil
}

func (f *fakeCaps) CheckEntailment(ctx context.Context, premise, hypothesis string) (capability.EntailmentResult, error) {
	f.mu.Lock()
	f.premises = append(f.premises, premise)
	f.mu.Unlock()

	if f.entails == nil {
		return capability.EntailmentResult{}, nil
	}
	if f.entails(premise, hypothesis) {
		return capability.EntailmentResult{Entails: true, Confidence: 0.9}, nil
	}
	return capability.EntailmentResult{Entails: false, Confidence: 0.9}, nil
}

func (f *fakeCaps) sawPremise(p string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, got := range f.premises {
		if got == p {
			return true
		}
	}
	return false
}

type recordingObserver struct {
	mu          sync.Mutex
	evaluations []string
	phases      []string
	findings    map[string]int
}

func (o *recordingObserver) ObserveEvaluation(mode, outcome string, _ float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.evaluations = append(o.evaluations, mode+":"+outcome)
}

func (o *recordingObserver) ObservePhase(phase string, _ float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.phases = append(o.phases, phase)
}

func (o *recordingObserver) ObserveFinding(ruleID, _ string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.findings == nil {
		o.findings = make(map[string]int)
	}
	o.findings[ruleID]++
}

func fullConfig(caps capability.Capabilities) *Config {
	return DefaultConfig().WithCapabilities(caps).WithImages(staticLoader{})
}

func TestNew(t *testing.T) {
	if _, err := New(nil, nil); !errors.Is(err, ErrNilCatalog) {
		t.Errorf("New(nil) error = %v, want %v", err, ErrNilCatalog)
	}
	if _, err := New(rules.Default(), DefaultConfig().WithSemanticBatchSize(0)); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("New(batch 0) error = %v, want %v", err, ErrInvalidConfig)
	}
	e := newEngine(t, nil)
	if e.Catalog() != rules.Default() {
		t.Error("Catalog() did not return the engine catalog")
	}
	if got := e.GetLastResult(); got != nil {
		t.Errorf("GetLastResult() = %v, want nil before any evaluation", got)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"no deadline", func(c *Config) { c.Deadline = 0 }, false},
		{"negative deadline", func(c *Config) { c.Deadline = -time.Second }, true},
		{"zero batch size", func(c *Config) { c.SemanticBatchSize = 0 }, true},
		{"zero batch timeout", func(c *Config) { c.SemanticBatchTimeout = 0 }, true},
		{"batch timeout above total", func(c *Config) { c.SemanticBatchTimeout = time.Minute }, true},
		{"confidence above one", func(c *Config) { c.SemanticMinConfidence = 1.5 }, true},
		{"zero confidence", func(c *Config) { c.SemanticMinConfidence = 0 }, true},
		{"zero vision timeout", func(c *Config) { c.VisionTimeout = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var ce *ConfigError
				if !errors.As(err, &ce) {
					t.Errorf("Validate() error type = %T, want *ConfigError", err)
				}
			}
		})
	}
}

func TestEmptySnapshotScoresPerfect(t *testing.T) {
	for _, mode := range []Mode{ModeQuick, ModeFull} {
		t.Run(string(mode), func(t *testing.T) {
			v := newEngine(t, nil).Evaluate(context.Background(), &creative.Snapshot{}, mode)
			if v.Score != 100 || !v.CanExport || len(v.Errors) != 0 || len(v.Warnings) != 0 {
				t.Errorf("Evaluate(empty) = score %d, canExport %v, %d errors, %d warnings; want 100, true, 0, 0",
					v.Score, v.CanExport, len(v.Errors), len(v.Warnings))
			}
			if v.Errors == nil || v.Warnings == nil {
				t.Error("Errors and Warnings must be non-nil slices")
			}
		})
	}
}

func TestEmptyCatalog(t *testing.T) {
	cat, err := rules.NewCatalog(rules.SchemaVersion, nil)
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}
	e, err := New(cat, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	snap := cleanSnapshot()
	snap.Context.IsAlcoholProduct = true
	if v := e.EvaluateFull(context.Background(), snap); v.Score != 100 || !v.CanExport {
		t.Errorf("EvaluateFull() = score %d, canExport %v, want 100, true", v.Score, v.CanExport)
	}
}

func TestEngineErrorFindings(t *testing.T) {
	invalid := cleanSnapshot()
	invalid.Elements[0].Kind = "circle"

	tests := []struct {
		name        string
		snap        *creative.Snapshot
		wantMessage string
	}{
		{"nil snapshot", nil, "nil snapshot"},
		{"invalid element kind", invalid, "circle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newEngine(t, nil).EvaluateQuick(context.Background(), tt.snap)
			if len(v.Errors) != 1 || v.Errors[0].RuleID != verdict.RuleEngineError {
				t.Fatalf("Errors = %v, want a single ENGINE_ERROR", findingKeys(v.Errors))
			}
			if !strings.Contains(v.Errors[0].Message, tt.wantMessage) {
				t.Errorf("Message = %q, want it to contain %q", v.Errors[0].Message, tt.wantMessage)
			}
			if v.CanExport {
				t.Error("CanExport = true, want false")
			}
			if v.Score != 85 {
				t.Errorf("Score = %d, want 85", v.Score)
			}
		})
	}
}

func TestPanicInPhaseBecomesEngineError(t *testing.T) {
	caps := &fakeCaps{people: func(context.Context) (capability.PeopleResult, error) {
		panic("provider exploded")
	}}
	snap := cleanSnapshot()
	snap.Context.BackgroundImageURL = "https://cdn.example.com/bg.jpg"

	v := newEngine(t, fullConfig(caps)).EvaluateFull(context.Background(), snap)

	if len(v.Errors) != 1 || v.Errors[0].RuleID != verdict.RuleEngineError {
		t.Fatalf("Errors = %v, want a single ENGINE_ERROR", findingKeys(v.Errors))
	}
	if !strings.Contains(v.Errors[0].Message, "vision phase panicked") {
		t.Errorf("Message = %q, want vision phase panic", v.Errors[0].Message)
	}
	if v.CanExport {
		t.Error("CanExport = true, want false")
	}
}

func TestDeadlineBetweenPhases(t *testing.T) {
	caps := &fakeCaps{entails: func(string, string) bool { return false }}
	blocking := &blockingEntailment{fakeCaps: caps}
	cfg := fullConfig(blocking).WithDeadline(50 * time.Millisecond)

	v := newEngine(t, cfg).EvaluateFull(context.Background(), cleanSnapshot())

	if len(v.Warnings) != 1 || v.Warnings[0].RuleID != verdict.RuleEngineTimeout {
		t.Fatalf("Warnings = %v, want a single ENGINE_TIMEOUT", findingKeys(v.Warnings))
	}
	if got, want := v.Warnings[0].Message, "deadline exceeded before vision phase"; got != want {
		t.Errorf("Message = %q, want %q", got, want)
	}
	if !v.CanExport {
		t.Error("CanExport = false, want true: a timeout alone does not block export")
	}
	if v.Score != 95 {
		t.Errorf("Score = %d, want 95", v.Score)
	}
}

// blockingEntailment holds every entailment call until its context ends.
type blockingEntailment struct {
	*fakeCaps
}

func (b *blockingEntailment) CheckEntailment(ctx context.Context, _, _ string) (capability.EntailmentResult, error) {
	<-ctx.Done()
	return capability.EntailmentResult{}, ctx.Err()
}

func TestCancelledContextTimesOutBeforeFirstPhase(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v := newEngine(t, nil).EvaluateQuick(ctx, cleanSnapshot())

	if len(v.Findings()) != 1 || !v.Has(verdict.RuleEngineTimeout, "") {
		t.Fatalf("Findings = %v, want only ENGINE_TIMEOUT", findingKeys(v.Findings()))
	}
	if got, want := v.Warnings[0].Message, "deadline exceeded before profile phase"; got != want {
		t.Errorf("Message = %q, want %q", got, want)
	}
}

func TestFullEvaluationSemanticAndVision(t *testing.T) {
	caps := &fakeCaps{
		entails: func(premise, hypothesis string) bool {
			return strings.Contains(hypothesis, "competition") && strings.Contains(premise, "draw")
		},
		people: func(context.Context) (capability.PeopleResult, error) {
			return capability.PeopleResult{Detected: true, Count: 2, Confidence: 0.9}, nil
		},
	}
	snap := cleanSnapshot()
	snap.Context.BackgroundImageURL = "https://cdn.example.com/bg.jpg"
	snap.Elements = append(snap.Elements,
		creative.Element{
			ID: "win", Kind: creative.KindText, X: 100, Y: 500, Width: 400, Height: 36,
			Text: "Win a family holiday", FontSize: 30, Fill: "#FFFFFF",
		},
		creative.Element{
			ID: "draw", Kind: creative.KindText, X: 100, Y: 600, Width: 400, Height: 36,
			Text: "Be in the draw for a holiday", FontSize: 30, Fill: "#FFFFFF",
		},
	)

	obs := &recordingObserver{}
	v := newEngine(t, fullConfig(caps).WithObserver(obs)).EvaluateFull(context.Background(), snap)

	want := []verdict.Key{
		{RuleID: rules.RuleCompetitions, ObjectID: "win"},
		{RuleID: rules.RuleCompetitions, ObjectID: "draw"},
	}
	if got := findingKeys(v.Errors); !reflect.DeepEqual(got, want) {
		t.Errorf("Errors = %v, want %v", got, want)
	}
	if len(v.Errors) == 2 {
		if v.Errors[0].DetectionMethod != string(rules.MethodRegex) {
			t.Errorf("win DetectionMethod = %q, want regex", v.Errors[0].DetectionMethod)
		}
		if v.Errors[1].DetectionMethod != string(rules.MethodSemantic) {
			t.Errorf("draw DetectionMethod = %q, want semantic_nli", v.Errors[1].DetectionMethod)
		}
	}
	if !v.Has(rules.RulePeople, "") {
		t.Errorf("Warnings = %v, want MEDIA_001", findingKeys(v.Warnings))
	}
	if v.Score != 65 {
		t.Errorf("Score = %d, want 65", v.Score)
	}

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if got, want := obs.phases, []string{PhaseProfile, PhaseLayout, PhaseRegex, PhaseSemantic, PhaseVision}; !reflect.DeepEqual(got, want) {
		t.Errorf("phases = %v, want %v", got, want)
	}
	if got, want := obs.evaluations, []string{"full:" + OutcomeBlocked}; !reflect.DeepEqual(got, want) {
		t.Errorf("evaluations = %v, want %v", got, want)
	}
	if obs.findings[rules.RuleCompetitions] != 2 {
		t.Errorf("findings[COPY_002] = %d, want 2", obs.findings[rules.RuleCompetitions])
	}
}

func TestPackshotFindingsSurviveDedupe(t *testing.T) {
	withPackshots := func() *creative.Snapshot {
		snap := cleanSnapshot()
		for i := range 4 {
			snap.Elements = append(snap.Elements, creative.Element{
				ID: fmt.Sprintf("pack-%d", i+1), Kind: creative.KindImage,
				X: float64(100 + 200*i), Y: 600, Width: 150, Height: 150,
				IsPackshot: true,
			})
		}
		snap.Context.CanvasDataURL = "data:image/png;base64,AAAA"
		return snap
	}

	t.Run("quick", func(t *testing.T) {
		v := newEngine(t, nil).EvaluateQuick(context.Background(), withPackshots())

		if !hasKey(v.Errors, verdict.Key{RuleID: rules.RulePackshots, ObjectID: ""}) {
			t.Errorf("Errors = %v, want the packshot count", findingKeys(v.Errors))
		}
		if !hasKey(v.Warnings, verdict.Key{RuleID: rules.RulePackshots, ObjectID: "pack-1"}) {
			t.Errorf("Warnings = %v, want the missing lead on pack-1", findingKeys(v.Warnings))
		}
	})

	t.Run("full", func(t *testing.T) {
		caps := &fakeCaps{packshots: &capability.PackshotResult{Count: 4, Issues: []string{"packshot cropped"}}}
		v := newEngine(t, fullConfig(caps)).EvaluateFull(context.Background(), withPackshots())

		if !hasKey(v.Errors, verdict.Key{RuleID: rules.RulePackshots, ObjectID: ""}) {
			t.Errorf("Errors = %v, want the packshot count", findingKeys(v.Errors))
		}
		for _, id := range []string{"pack-1", "canvas"} {
			if !hasKey(v.Warnings, verdict.Key{RuleID: rules.RulePackshots, ObjectID: id}) {
				t.Errorf("Warnings = %v, want PACK_001 on %q", findingKeys(v.Warnings), id)
			}
		}
	})
}

func hasKey(findings []verdict.Finding, key verdict.Key) bool {
	for i := range findings {
		if findings[i].Key() == key {
			return true
		}
	}
	return false
}

func TestQuickModeSkipsCapabilities(t *testing.T) {
	caps := &fakeCaps{entails: func(string, string) bool { return true }}
	snap := cleanSnapshot()

	v := newEngine(t, fullConfig(caps)).EvaluateQuick(context.Background(), snap)

	if caps.sawPremise("Zero Sugar Full Taste") {
		t.Error("quick evaluation called CheckEntailment")
	}
	if v.Score != 100 {
		t.Errorf("Score = %d, want 100", v.Score)
	}
}

func TestBusyEngineReturnsLastVerdict(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	caps := &fakeCaps{people: func(context.Context) (capability.PeopleResult, error) {
		once.Do(func() { close(entered) })
		<-release
		return capability.PeopleResult{}, nil
	}}
	e := newEngine(t, fullConfig(caps))

	first := e.EvaluateQuick(context.Background(), cleanSnapshot())

	slow := cleanSnapshot()
	slow.Context.BackgroundImageURL = "https://cdn.example.com/bg.jpg"
	done := make(chan *verdict.Verdict)
	go func() { done <- e.EvaluateFull(context.Background(), slow) }()
	<-entered

	alcohol := cleanSnapshot()
	alcohol.Context.IsAlcoholProduct = true
	got := e.EvaluateQuick(context.Background(), alcohol)
	if got.Score != first.Score || len(got.Errors) != len(first.Errors) {
		t.Errorf("busy EvaluateQuick() = score %d, want last verdict score %d", got.Score, first.Score)
	}

	close(release)
	if v := <-done; v.Score != 100 {
		t.Errorf("EvaluateFull() score = %d, want 100", v.Score)
	}

	after := e.EvaluateQuick(context.Background(), alcohol)
	if !after.Has(rules.RuleDrinkaware, "") {
		t.Error("evaluation after release did not run")
	}
}

func TestConcurrentFirstEvaluationsShareResult(t *testing.T) {
	release := make(chan struct{})
	caps := &fakeCaps{people: func(context.Context) (capability.PeopleResult, error) {
		<-release
		return capability.PeopleResult{Detected: true, Count: 1, Confidence: 0.8}, nil
	}}
	e := newEngine(t, fullConfig(caps))
	snap := cleanSnapshot()
	snap.Context.BackgroundImageURL = "https://cdn.example.com/bg.jpg"

	var wg sync.WaitGroup
	results := make([]*verdict.Verdict, 4)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = e.EvaluateFull(context.Background(), snap)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, v := range results {
		if !v.Has(rules.RulePeople, "") {
			t.Errorf("results[%d] missing MEDIA_001", i)
		}
		if !reflect.DeepEqual(v.Findings(), results[0].Findings()) {
			t.Errorf("results[%d] findings differ from results[0]", i)
		}
	}
}

func TestEvaluateDoesNotMutateSnapshot(t *testing.T) {
	snap := cleanSnapshot()
	before := cleanSnapshot()

	newEngine(t, nil).EvaluateQuick(context.Background(), snap)

	if !reflect.DeepEqual(snap, before) {
		t.Error("EvaluateQuick() mutated its input")
	}
}

func TestGetLastResultIsACopy(t *testing.T) {
	e := newEngine(t, nil)
	snap := cleanSnapshot()
	snap.Context.IsAlcoholProduct = true
	e.EvaluateQuick(context.Background(), snap)

	last := e.GetLastResult()
	if last == nil || !last.Has(rules.RuleDrinkaware, "") {
		t.Fatalf("GetLastResult() = %v, want the ALC_001 verdict", last)
	}
	last.Errors[0].RuleID = "CHANGED"
	if e.GetLastResult().Errors[0].RuleID != rules.RuleDrinkaware {
		t.Error("mutating GetLastResult() changed the stored verdict")
	}
}

func TestGetLastResultDetailsAreCopied(t *testing.T) {
	e := newEngine(t, nil)
	snap := cleanSnapshot()
	snap.Elements[0].Text = "100% guarantee freshest ever"
	e.EvaluateQuick(context.Background(), snap)

	claim := func(v *verdict.Verdict) *verdict.Finding {
		for i := range v.Errors {
			if v.Errors[i].RuleID == rules.RuleClaims && len(v.Errors[i].MatchedTerms) > 0 {
				return &v.Errors[i]
			}
		}
		return nil
	}

	f := claim(e.GetLastResult())
	if f == nil {
		t.Fatal("GetLastResult() has no COPY_006 error with matched terms")
	}
	f.MatchedTerms[0] = "MUTATED"

	if got := claim(e.GetLastResult()).MatchedTerms[0]; got != "guarantee" {
		t.Errorf("MatchedTerms[0] = %q after mutating a copy, want %q", got, "guarantee")
	}
}

func TestIdempotence(t *testing.T) {
	e := newEngine(t, nil)
	snap := cleanSnapshot()
	snap.Elements[0].Text = "Win with our guarantee, terms apply"

	a := e.EvaluateQuick(context.Background(), snap)
	b := e.EvaluateQuick(context.Background(), snap)

	if !reflect.DeepEqual(a.Findings(), b.Findings()) || a.Score != b.Score {
		t.Errorf("second evaluation differs: %v vs %v", findingKeys(a.Findings()), findingKeys(b.Findings()))
	}
}

func TestSchemaRoundTrip(t *testing.T) {
	data, err := rules.Marshal(rules.Default())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	reloaded, err := rules.Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	original := newEngine(t, nil)
	roundTripped, err := New(reloaded, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	price := cleanSnapshot()
	price.Elements = append(price.Elements, creative.Element{
		ID: "price", Kind: creative.KindText, X: 540, Y: 600, Width: 300, Height: 48,
		Text: "Only £1.75", FontSize: 40, Fill: "#FFFFFF",
	})
	alcohol := cleanSnapshot()
	alcohol.Context.IsAlcoholProduct = true

	for name, snap := range map[string]*creative.Snapshot{"clean": cleanSnapshot(), "price": price, "alcohol": alcohol} {
		t.Run(name, func(t *testing.T) {
			a := original.EvaluateQuick(context.Background(), snap)
			b := roundTripped.EvaluateQuick(context.Background(), snap)
			if !reflect.DeepEqual(a.Findings(), b.Findings()) {
				t.Errorf("round-tripped findings = %v, want %v", findingKeys(b.Findings()), findingKeys(a.Findings()))
			}
		})
	}
}
