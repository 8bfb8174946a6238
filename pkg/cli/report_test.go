package cli

import (
	"bytes"
	"strings"
	"testing"

	"retailmedia-hq/guardrail/pkg/rules"
	"retailmedia-hq/guardrail/pkg/verdict"
)

func TestReportVerdict(t *testing.T) {
	blocked := &verdict.Verdict{
		Errors: []verdict.Finding{{
			RuleID:       "COPY_006",
			RuleName:     "Unsubstantiated claims",
			Type:         verdict.TypeHardFail,
			ObjectID:     "headline",
			PlainEnglish: "Remove claims you cannot prove.",
			MatchedTerms: []string{"guarantee"},
		}},
		Warnings: []verdict.Finding{{
			RuleID:   "TXT_002",
			RuleName: "Minimum font size",
			Type:     verdict.TypeWarning,
			Issues:   []string{"effective size 14px"},
		}},
		Score:       80,
		TimeTakenMs: 12,
	}

	tests := []struct {
		name    string
		file    string
		v       *verdict.Verdict
		want    []string
		notWant []string
	}{
		{
			name: "blocked",
			file: "feed.json",
			v:    blocked,
			want: []string{
				"feed.json: BLOCKED  score 80  (12ms)",
				"✗ COPY_006 Unsubstantiated claims [headline]",
				"Remove claims you cannot prove.",
				"matched: guarantee",
				"! TXT_002 Minimum font size\n",
				"- effective size 14px",
			},
		},
		{
			name:    "clean",
			v:       &verdict.Verdict{Errors: []verdict.Finding{}, Warnings: []verdict.Finding{}, Score: 100, CanExport: true},
			want:    []string{"EXPORTABLE  score 100", "no findings"},
			notWant: []string{": EXPORTABLE"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewReport(&buf).Verdict(tt.file, tt.v); err != nil {
				t.Fatalf("Verdict() error = %v", err)
			}
			out := buf.String()
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("Verdict() output missing %q:\n%s", want, out)
				}
			}
			for _, nw := range tt.notWant {
				if strings.Contains(out, nw) {
					t.Errorf("Verdict() output contains %q:\n%s", nw, out)
				}
			}
			if strings.Contains(out, "\x1b[") {
				t.Error("Verdict() wrote ANSI escapes to a non-terminal writer")
			}
		})
	}
}

func TestReportRules(t *testing.T) {
	var buf bytes.Buffer
	c := rules.Default()
	if err := NewReport(&buf).Rules(c); err != nil {
		t.Fatalf("Rules() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != c.Len()+2 {
		t.Errorf("Rules() wrote %d lines, want %d", len(lines), c.Len()+2)
	}
	if !strings.HasPrefix(lines[0], "ID") {
		t.Errorf("header = %q, want ID column first", lines[0])
	}
	if !strings.Contains(buf.String(), rules.RuleClaims) {
		t.Errorf("Rules() output missing %s", rules.RuleClaims)
	}
}

func TestReportLint(t *testing.T) {
	tests := []struct {
		name string
		res  *rules.LintResult
		want []string
	}{
		{"ok", &rules.LintResult{}, []string{"✓ rules.json"}},
		{"errors", &rules.LintResult{Errors: []string{"rules[0].id: empty"}, Warnings: []string{"X_001 has no patterns"}},
			[]string{"✗ rules.json", "error: rules[0].id: empty", "warning: X_001 has no patterns"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewReport(&buf).Lint("rules.json", tt.res); err != nil {
				t.Fatalf("Lint() error = %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("Lint() output missing %q:\n%s", want, buf.String())
				}
			}
		})
	}
}

func TestReportColor(t *testing.T) {
	var buf bytes.Buffer
	r := newReport(&buf, true)
	if got := r.render(r.fail, "BLOCKED"); !strings.Contains(got, "BLOCKED") {
		t.Errorf("render() = %q, want text preserved", got)
	}
}
