package layout

import (
	"testing"

	"retailmedia-hq/guardrail/pkg/creative"
	"retailmedia-hq/guardrail/pkg/rules"
	"retailmedia-hq/guardrail/pkg/verdict"
)

func rule(t *testing.T, id string) *rules.Rule {
	t.Helper()
	r, err := rules.Default().GetRuleByID(id)
	if err != nil {
		t.Fatalf("GetRuleByID(%q) error = %v", id, err)
	}
	return r
}

func snapshot(width, height float64, ratio string, elements ...creative.Element) *creative.Snapshot {
	return &creative.Snapshot{
		Formats: map[string]creative.Format{
			"f": {ID: "f", Width: width, Height: height, Ratio: ratio},
		},
		Elements: elements,
		Context:  creative.Context{FormatID: "f", BackgroundColor: "#1A1A1A"},
	}
}

func text(id string, y, fontSize float64) creative.Element {
	return creative.Element{
		ID: id, Kind: creative.KindText, Text: "Fresh", X: 100, Y: y,
		Width: 400, Height: fontSize * 1.2, FontSize: fontSize, Fill: "#FFFFFF",
	}
}

func ids(findings []verdict.Finding) []string {
	out := make([]string, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.ObjectID)
	}
	return out
}

func TestSafeZone(t *testing.T) {
	r := rule(t, rules.RuleSafeZone)

	tests := []struct {
		name  string
		ratio string
		el    creative.Element
		want  int
	}{
		{"top exactly 200", "9:16", text("t", 200, 40), 0},
		{"top 199", "9:16", text("t", 199, 40), 1},
		{"headline at 150", "9:16", text("t", 150, 96), 1},
		{"bottom edge inside", "9:16", creative.Element{ID: "t", Kind: creative.KindText, Y: 1570, Height: 100, Width: 10}, 0},
		{"bottom edge in zone", "9:16", creative.Element{ID: "t", Kind: creative.KindText, Y: 1571, Height: 100, Width: 10}, 1},
		{"logo in zone", "9:16", creative.Element{ID: "l", Kind: creative.KindImage, IsLogo: true, Y: 10, Width: 100, Height: 100}, 1},
		{"packshot ignored", "9:16", creative.Element{ID: "p", Kind: creative.KindImage, IsPackshot: true, Y: 10, Width: 100, Height: 100}, 0},
		{"tag excluded", "9:16", creative.Element{ID: "tag", Kind: creative.KindText, IsTag: true, Y: 1800, Width: 100, Height: 40}, 0},
		{"square format skipped", "1:1", text("t", 10, 40), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := snapshot(1080, 1920, tt.ratio, tt.el)
			got := New(nil).Detect(snap, r)
			if len(got.Violations) != tt.want {
				t.Errorf("Detect() violations = %d, want %d (%v)", len(got.Violations), tt.want, got.Violations)
			}
			if got.Passed != (tt.want == 0) {
				t.Errorf("Detect() passed = %v, want %v", got.Passed, tt.want == 0)
			}
		})
	}
}

func TestMinFont(t *testing.T) {
	r := rule(t, rules.RuleMinFontSize)

	tests := []struct {
		name     string
		height   float64
		says     bool
		el       creative.Element
		want     int
		required float64
	}{
		{"20 passes", 1080, false, text("t", 300, 20), 0, 20},
		{"19.9 fails", 1080, false, text("t", 300, 19.9), 1, 20},
		{"scaled down", 1080, false, func() creative.Element { e := text("t", 300, 30); e.ScaleY = 0.5; return e }(), 1, 20},
		{"small format", 150, false, text("t", 10, 10), 0, 10},
		{"small format fails", 150, false, text("t", 10, 9), 1, 10},
		{"says threshold", 1080, true, text("t", 300, 12), 0, 12},
		{"says fails", 1080, true, text("t", 300, 11), 1, 12},
		{"system text excluded", 1080, false, func() creative.Element { e := text("t", 300, 8); e.IsValueTile = true; return e }(), 0, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := snapshot(1080, tt.height, "1:1", tt.el)
			snap.Context.IsSAYS = tt.says
			got := New(nil).Detect(snap, r).Violations
			if len(got) != tt.want {
				t.Fatalf("Detect() violations = %d, want %d", len(got), tt.want)
			}
			if tt.want == 1 && *got[0].RequiredSize != tt.required {
				t.Errorf("RequiredSize = %v, want %v", *got[0].RequiredSize, tt.required)
			}
		})
	}
}

func TestContrast(t *testing.T) {
	r := rule(t, rules.RuleContrast)

	tests := []struct {
		name       string
		fill       string
		background string
		fontSize   float64
		want       int
	}{
		{"white on dark", "#FFFFFF", "#1A1A1A", 20, 0},
		{"grey on grey", "#777777", "#888888", 20, 1},
		{"4.54 at 18px", "#767676", "#FFFFFF", 18, 0},
		{"4.48 at 18px", "#777777", "#FFFFFF", 18, 1},
		{"3.03 at 24px", "#949494", "#FFFFFF", 24, 0},
		{"2.99 at 24px", "#959595", "#FFFFFF", 24, 1},
		{"short hex", "#FFF", "#000", 20, 0},
		{"no hash", "777777", "888888", 20, 1},
		{"malformed fill", "red", "#FFFFFF", 20, 0},
		{"malformed background", "#FFFFFF", "#12", 20, 0},
		{"empty background is white", "#FFFFFF", "", 20, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el := text("t", 300, tt.fontSize)
			el.Fill = tt.fill
			snap := snapshot(1080, 1080, "1:1", el)
			snap.Context.BackgroundColor = tt.background
			got := New(nil).Detect(snap, r).Violations
			if len(got) != tt.want {
				t.Errorf("Detect() violations = %d, want %d (%v)", len(got), tt.want, got)
			}
		})
	}
}

func TestContrastRatio(t *testing.T) {
	got, err := ContrastRatio("#000", "#fff")
	if err != nil || got != MaxContrast {
		t.Errorf("ContrastRatio(black, white) = %v, %v, want %v", got, err, MaxContrast)
	}
	got, _ = ContrastRatio("#abcdef", "#abcdef")
	if got != 1 {
		t.Errorf("ContrastRatio(same) = %v, want 1", got)
	}
	if got, err := ContrastRatio("#gggggg", "#fff"); err == nil || got != MaxContrast {
		t.Errorf("ContrastRatio(malformed) = %v, %v, want %v with error", got, err, MaxContrast)
	}
}

func tile(id string, tileType creative.ValueTileType, x, y float64) creative.Element {
	return creative.Element{
		ID: id, Kind: creative.KindShape, IsValueTile: true, ValueTileType: tileType,
		X: x, Y: y, Width: 200, Height: 200,
	}
}

func TestValueTileOverlap(t *testing.T) {
	r := rule(t, rules.RuleValueTileOverlap)

	tests := []struct {
		name     string
		elements []creative.Element
		want     []string
	}{
		{
			name:     "clear",
			elements: []creative.Element{tile("v1", creative.ValueTileWhite, 500, 500), text("t", 100, 40)},
			want:     []string{},
		},
		{
			name:     "text over tile",
			elements: []creative.Element{
				tile("v1", creative.ValueTileWhite, 500, 500),
				{ID: "t", Kind: creative.KindText, Text: "Fresh", X: 450, Y: 550, Width: 400, Height: 48},
			},
			want: []string{"t"},
		},
		{
			name: "tile text exempt",
			elements: []creative.Element{
				tile("v1", creative.ValueTileClubcard, 500, 500),
				{ID: "vt", Kind: creative.KindText, IsValueTile: true, X: 520, Y: 520, Width: 100, Height: 40},
			},
			want: []string{},
		},
		{
			name: "touching edges",
			elements: []creative.Element{
				tile("v1", creative.ValueTileWhite, 500, 500),
				{ID: "p", Kind: creative.KindImage, X: 700, Y: 500, Width: 100, Height: 100},
			},
			want: []string{},
		},
		{
			name: "zero sized element",
			elements: []creative.Element{
				tile("v1", creative.ValueTileWhite, 500, 500),
				{ID: "z", Kind: creative.KindShape, X: 550, Y: 550},
			},
			want: []string{},
		},
		{
			name: "background and tag exempt",
			elements: []creative.Element{
				{ID: "bg", Kind: creative.KindShape, IsBackground: true, Width: 1080, Height: 1080},
				tile("v1", creative.ValueTileWhite, 500, 500),
				{ID: "tag", Kind: creative.KindText, IsTag: true, X: 550, Y: 550, Width: 100, Height: 30},
			},
			want: []string{},
		},
		{
			name: "different tile types",
			elements: []creative.Element{
				tile("v1", creative.ValueTileWhite, 500, 500),
				tile("v2", creative.ValueTileClubcard, 600, 600),
			},
			want: []string{"v2"},
		},
		{
			name: "same tile type",
			elements: []creative.Element{
				tile("v1", creative.ValueTileWhite, 500, 500),
				tile("v2", creative.ValueTileWhite, 600, 600),
			},
			want: []string{},
		},
		{
			name: "rotated element bounding box",
			elements: []creative.Element{
				tile("v1", creative.ValueTileWhite, 500, 500),
				{ID: "r", Kind: creative.KindImage, X: 480, Y: 300, Width: 200, Height: 20, Angle: 90},
			},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := snapshot(1080, 1080, "1:1", tt.elements...)
			got := ids(New(nil).Detect(snap, r).Violations)
			if len(got) != len(tt.want) {
				t.Fatalf("Detect() objects = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Detect() objects = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestPackshots(t *testing.T) {
	r := rule(t, rules.RulePackshots)
	pack := func(id string, lead bool) creative.Element {
		return creative.Element{ID: id, Kind: creative.KindImage, IsPackshot: true, IsLeadPackshot: lead, Width: 10, Height: 10}
	}

	tests := []struct {
		name      string
		elements  []creative.Element
		wantTypes []verdict.FindingType
		wantIDs   []string
	}{
		{"none", nil, nil, nil},
		{"one lead", []creative.Element{pack("a", true)}, nil, nil},
		{"no lead", []creative.Element{pack("a", false), pack("b", false)}, []verdict.FindingType{verdict.TypeWarning}, []string{"a"}},
		{"three with lead", []creative.Element{pack("a", true), pack("b", false), pack("c", false)}, nil, nil},
		{"four with lead", []creative.Element{pack("a", true), pack("b", false), pack("c", false), pack("d", false)},
			[]verdict.FindingType{verdict.TypeHardFail}, []string{""}},
		{"four without lead", []creative.Element{pack("a", false), pack("b", false), pack("c", false), pack("d", false)},
			[]verdict.FindingType{verdict.TypeHardFail, verdict.TypeWarning}, []string{"", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(nil).Detect(snapshot(1080, 1080, "1:1", tt.elements...), r).Violations
			if len(got) != len(tt.wantTypes) {
				t.Fatalf("Detect() violations = %d, want %d", len(got), len(tt.wantTypes))
			}
			for i, f := range got {
				if f.Type != tt.wantTypes[i] {
					t.Errorf("violation %d type = %s, want %s", i, f.Type, tt.wantTypes[i])
				}
				if f.ObjectID != tt.wantIDs[i] {
					t.Errorf("violation %d ObjectID = %q, want %q", i, f.ObjectID, tt.wantIDs[i])
				}
				if f.Type == verdict.TypeWarning && f.Severity != verdict.SeverityWarnUser {
					t.Errorf("warning severity = %s, want %s", f.Severity, verdict.SeverityWarnUser)
				}
			}
		})
	}
}

func TestDrinkaware(t *testing.T) {
	r := rule(t, rules.RuleDrinkaware)
	lockup := func(height float64, fill string) creative.Element {
		return creative.Element{ID: "da", Kind: creative.KindImage, IsDrinkaware: true, Width: 120, Height: height, Fill: fill}
	}

	tests := []struct {
		name     string
		alcohol  bool
		says     bool
		elements []creative.Element
		wantIDs  []string
		wantMsg  string
	}{
		{"not alcohol", false, false, nil, nil, ""},
		{"missing", true, false, nil, []string{""}, "Drinkaware required"},
		{"ok", true, false, []creative.Element{lockup(20, "#000000")}, nil, ""},
		{"too small", true, false, []creative.Element{lockup(19, "")}, []string{"da"}, ""},
		{"says height", true, true, []creative.Element{lockup(12, "#fff")}, nil, ""},
		{"wrong color", true, false, []creative.Element{lockup(30, "#FF0000")}, []string{"da"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := snapshot(1080, 1080, "1:1", tt.elements...)
			snap.Context.IsAlcoholProduct = tt.alcohol
			snap.Context.IsSAYS = tt.says
			got := New(nil).Detect(snap, r).Violations
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("Detect() violations = %v, want objects %v", got, tt.wantIDs)
			}
			for i, f := range got {
				if f.ObjectID != tt.wantIDs[i] {
					t.Errorf("ObjectID = %q, want %q", f.ObjectID, tt.wantIDs[i])
				}
				if tt.wantMsg != "" && f.Message != tt.wantMsg {
					t.Errorf("Message = %q, want %q", f.Message, tt.wantMsg)
				}
			}
		})
	}
}

func TestTagPlacement(t *testing.T) {
	r := rule(t, rules.RuleTags)
	inside := creative.Element{ID: "in", Kind: creative.KindText, IsTag: true, X: 10, Y: 1000, Width: 300, Height: 40}
	outside := creative.Element{ID: "out", Kind: creative.KindText, IsTag: true, X: 900, Y: 1000, Width: 300, Height: 40}

	got := ids(New(nil).Detect(snapshot(1080, 1080, "1:1", inside, outside), r).Violations)
	if len(got) != 1 || got[0] != "out" {
		t.Errorf("Detect() objects = %v, want [out]", got)
	}
}

func TestUnknownCheckPasses(t *testing.T) {
	r := &rules.Rule{ID: "X", Params: rules.Params{rules.ParamLayoutCheck: "nope"}}
	if got := New(nil).Detect(snapshot(100, 100, "1:1"), r); !got.Passed {
		t.Errorf("Detect() = %+v, want pass", got)
	}
}
