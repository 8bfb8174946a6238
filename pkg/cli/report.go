package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"retailmedia-hq/guardrail/pkg/rules"
	"retailmedia-hq/guardrail/pkg/verdict"
)

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Report renders verdicts and rule listings for people. Color is used only
// when the writer is a terminal.
type Report struct {
	w     io.Writer
	color bool

	title  lipgloss.Style
	pass   lipgloss.Style
	fail   lipgloss.Style
	warn   lipgloss.Style
	muted  lipgloss.Style
	ruleID lipgloss.Style
}

// NewReport creates a report writing to w. Color is enabled when w is a
// terminal and NO_COLOR is unset.
func NewReport(w io.Writer) *Report {
	return newReport(w, IsTerminal(w) && os.Getenv("NO_COLOR") == "")
}

func newReport(w io.Writer, color bool) *Report {
	r := &Report{w: w, color: color}
	if !color {
		return r
	}

	renderer := lipgloss.NewRenderer(w)
	r.title = renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	r.pass = renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("#00A651"))
	r.fail = renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("#E4002B"))
	r.warn = renderer.NewStyle().Foreground(lipgloss.Color("#F5A623"))
	r.muted = renderer.NewStyle().Foreground(lipgloss.Color("#888888"))
	r.ruleID = renderer.NewStyle().Bold(true)
	return r
}

func (r *Report) render(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}

// Verdict writes a verdict summary followed by one block per finding.
//
//	instagram_feed.json: BLOCKED  score 85  (12ms)
//
//	  ✗ COPY_006 Unsubstantiated claims [headline]
//	    Remove claims like "guarantee" unless you can prove them.
func (r *Report) Verdict(name string, v *verdict.Verdict) error {
	var b strings.Builder

	status := r.render(r.pass, "EXPORTABLE")
	if !v.CanExport {
		status = r.render(r.fail, "BLOCKED")
	}
	header := fmt.Sprintf("score %d  (%dms)", v.Score, v.TimeTakenMs)
	if name != "" {
		fmt.Fprintf(&b, "%s: ", r.render(r.title, name))
	}
	fmt.Fprintf(&b, "%s  %s\n", status, r.render(r.muted, header))

	if len(v.Errors) == 0 && len(v.Warnings) == 0 {
		b.WriteString(r.render(r.muted, "  no findings") + "\n")
	}
	for _, f := range v.Errors {
		r.finding(&b, r.render(r.fail, "✗"), f)
	}
	for _, f := range v.Warnings {
		r.finding(&b, r.render(r.warn, "!"), f)
	}

	_, err := io.WriteString(r.w, b.String())
	return err
}

func (r *Report) finding(b *strings.Builder, marker string, f verdict.Finding) {
	fmt.Fprintf(b, "\n  %s %s %s", marker, r.render(r.ruleID, f.RuleID), f.RuleName)
	if f.ObjectID != "" {
		fmt.Fprintf(b, " %s", r.render(r.muted, "["+f.ObjectID+"]"))
	}
	b.WriteString("\n")

	text := f.PlainEnglish
	if text == "" {
		text = f.Explanation
	}
	if text != "" {
		fmt.Fprintf(b, "    %s\n", text)
	}
	if f.Message != "" {
		fmt.Fprintf(b, "    %s\n", r.render(r.muted, f.Message))
	}
	if len(f.MatchedTerms) > 0 {
		fmt.Fprintf(b, "    %s\n", r.render(r.muted, "matched: "+strings.Join(f.MatchedTerms, ", ")))
	}
	for _, issue := range f.Issues {
		fmt.Fprintf(b, "    %s\n", r.render(r.muted, "- "+issue))
	}
}

// Rules writes one aligned row per rule.
func (r *Report) Rules(c *rules.Catalog) error {
	tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tCATEGORY\tMETHODS\tNAME")
	for _, rule := range c.Rules() {
		methods := make([]string, 0, len(rule.DetectionMethods))
		for _, m := range rule.DetectionMethods {
			methods = append(methods, string(m))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			rule.ID, rule.Type, rule.Category, strings.Join(methods, ","), rule.Name)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(r.w, r.render(r.muted, fmt.Sprintf("%d rules, schema %s", c.Len(), c.Version())))
	return err
}

// Lint writes the outcome of a schema lint.
func (r *Report) Lint(name string, res *rules.LintResult) error {
	var b strings.Builder
	if res.OK() {
		fmt.Fprintf(&b, "%s %s\n", r.render(r.pass, "✓"), name)
	} else {
		fmt.Fprintf(&b, "%s %s\n", r.render(r.fail, "✗"), name)
	}
	for _, e := range res.Errors {
		fmt.Fprintf(&b, "  %s %s\n", r.render(r.fail, "error:"), e)
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(&b, "  %s %s\n", r.render(r.warn, "warning:"), w)
	}
	_, err := io.WriteString(r.w, b.String())
	return err
}
