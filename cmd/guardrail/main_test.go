package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"retailmedia-hq/guardrail/pkg/cli"
	"retailmedia-hq/guardrail/pkg/creative"
	"retailmedia-hq/guardrail/pkg/rules"
)

// execute runs the root command with args and returns what it wrote to stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	checkFull, checkFormat, checkRules = false, "text", ""
	lintStrict, lintFormat = false, "text"
	rulesFile, listFormat, exportFormat, exportOutput = "", "text", "json", ""
	serveListen = ""

	var out, errOut bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func snapshotJSON(t *testing.T, headline string) []byte {
	t.Helper()
	snap := creative.Snapshot{
		Formats: map[string]creative.Format{
			"instagram_feed": {ID: "instagram_feed", Width: 1080, Height: 1080, Ratio: "1:1", Category: creative.CategorySocial},
		},
		Elements: []creative.Element{
			{
				ID: "headline", Kind: creative.KindText, CustomName: "headline",
				X: 540, Y: 270, Width: 500, Height: 86,
				Text: headline, FontSize: 72, Fill: "#FFFFFF",
			},
		},
		Context: creative.Context{FormatID: "instagram_feed", BackgroundColor: "#1A1A1A"},
	}
	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("failed to marshal snapshot: %v", err)
	}
	return data
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func exitCode(err error) int {
	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if err != nil {
		return -1
	}
	return 0
}

func TestCheck(t *testing.T) {
	clean := writeFile(t, "clean.json", snapshotJSON(t, "Zero Sugar Full Taste"))
	claim := writeFile(t, "claim.json", snapshotJSON(t, "100% guarantee freshest ever"))

	tests := []struct {
		name     string
		args     []string
		wantCode int
		want     []string
	}{
		{"clean snapshot", []string{"check", clean}, 0, []string{"EXPORTABLE"}},
		{"blocked snapshot", []string{"check", claim}, 1, []string{"BLOCKED", rules.RuleClaims}},
		{"full mode without capabilities", []string{"check", "--full", clean}, 0, []string{"EXPORTABLE"}},
		{"any blocked fails the run", []string{"check", clean, claim}, 1, []string{"EXPORTABLE", "BLOCKED"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "", tt.args...)
			if got := exitCode(err); got != tt.wantCode {
				t.Fatalf("exit code = %d, want %d (err %v)", got, tt.wantCode, err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestCheck_JSON(t *testing.T) {
	clean := writeFile(t, "clean.json", snapshotJSON(t, "Zero Sugar Full Taste"))
	claim := writeFile(t, "claim.json", snapshotJSON(t, "100% guarantee freshest ever"))

	out, err := execute(t, "", "check", "--format", "json", clean, claim)
	if exitCode(err) != 1 {
		t.Fatalf("check error = %v, want exit status 1", err)
	}

	var results []fileVerdict
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if !results[0].Verdict.CanExport {
		t.Errorf("results[0].CanExport = false, want true")
	}
	if results[1].Verdict.CanExport || !results[1].Verdict.Has(rules.RuleClaims, "headline") {
		t.Errorf("results[1] = %+v, want blocked by %s", results[1].Verdict, rules.RuleClaims)
	}
}

func TestCheck_Stdin(t *testing.T) {
	out, err := execute(t, string(snapshotJSON(t, "Zero Sugar Full Taste")), "check", "--format", "json", "-")
	if err != nil {
		t.Fatalf("check - error = %v", err)
	}
	if !strings.Contains(out, `"canExport": true`) {
		t.Errorf("output = %s, want an exportable verdict", out)
	}
}

func TestCheck_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing file", []string{"check", filepath.Join(t.TempDir(), "absent.json")}},
		{"bad format", []string{"check", "--format", "xml", "x.json"}},
		{"no arguments", []string{"check"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "", tt.args...)
			if err == nil {
				t.Fatal("check error = nil, want error")
			}
			var exitErr *cli.ExitError
			if errors.As(err, &exitErr) {
				t.Errorf("check error = %v, want a reported error rather than an exit status", err)
			}
		})
	}
}

func TestRulesList(t *testing.T) {
	out, err := execute(t, "", "rules", "list")
	if err != nil {
		t.Fatalf("rules list error = %v", err)
	}
	for _, want := range []string{"ID", rules.RuleClaims, "schema " + rules.SchemaVersion} {
		if !strings.Contains(out, want) {
			t.Errorf("rules list output missing %q", want)
		}
	}
}

func TestRulesExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if _, err := execute(t, "", "rules", "export", "--format", "yaml", "-o", path); err != nil {
		t.Fatalf("rules export error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read export: %v", err)
	}
	catalog, err := rules.Parse(data)
	if err != nil {
		t.Fatalf("exported document does not parse: %v", err)
	}
	if catalog.Len() != rules.Default().Len() {
		t.Errorf("exported %d rules, want %d", catalog.Len(), rules.Default().Len())
	}

	if _, err := execute(t, "", "rules", "export", "--format", "text"); err == nil {
		t.Error("rules export --format text error = nil, want error")
	}
}

func TestCheck_RulesOverride(t *testing.T) {
	doc := rules.Document{SchemaVersion: rules.SchemaVersion}
	rulesPath := writeFile(t, "empty.json", mustJSON(t, doc))
	claim := writeFile(t, "claim.json", snapshotJSON(t, "100% guarantee freshest ever"))

	out, err := execute(t, "", "check", "--rules", rulesPath, claim)
	if err != nil {
		t.Fatalf("check with an empty catalog error = %v\n%s", err, out)
	}
}

func TestLint(t *testing.T) {
	valid := writeFile(t, "rules.json", rules.DefaultDocument())
	broken := writeFile(t, "broken.yaml", []byte("schema_version: \"1.0\"\nrules:\n  - id: [oops\n"))

	tests := []struct {
		name     string
		args     []string
		wantCode int
	}{
		{"valid document", []string{"lint", valid}, 0},
		{"broken document", []string{"lint", broken}, 1},
		{"mixed documents", []string{"lint", valid, broken}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "", tt.args...)
			if got := exitCode(err); got != tt.wantCode {
				t.Errorf("exit code = %d, want %d (err %v)", got, tt.wantCode, err)
			}
		})
	}
}

func TestLint_JSON(t *testing.T) {
	broken := writeFile(t, "broken.yaml", []byte("schema_version: \"1.0\"\nrules:\n  - id: [oops\n"))

	out, err := execute(t, "", "lint", "--format", "json", broken)
	if exitCode(err) != 1 {
		t.Fatalf("lint error = %v, want exit status 1", err)
	}
	var reports []lintReport
	if err := json.Unmarshal([]byte(out), &reports); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	if len(reports) != 1 || reports[0].OK || len(reports[0].Errors) == 0 {
		t.Errorf("reports = %+v, want one failing report", reports)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	for _, want := range []string{"Guardrail " + Version, "Git Commit:", "Go Version:"} {
		if !strings.Contains(out, want) {
			t.Errorf("version output missing %q", want)
		}
	}
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			out, err := execute(t, "", "completion", shell)
			if err != nil {
				t.Fatalf("completion %s error = %v", shell, err)
			}
			if !strings.Contains(out, "guardrail") {
				t.Errorf("completion %s output does not mention guardrail", shell)
			}
		})
	}

	if _, err := execute(t, "", "completion", "tcsh"); err == nil {
		t.Error("completion tcsh error = nil, want error")
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	return data
}
