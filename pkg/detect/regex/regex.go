// Package regex implements pattern matching over creative copy and the copy
// length rules. Text is NFKC-normalized before matching so that full-width and
// ligature forms match their plain equivalents.
package regex

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"retailmedia-hq/guardrail/pkg/creative"
	"retailmedia-hq/guardrail/pkg/detect"
	"retailmedia-hq/guardrail/pkg/rules"
	"retailmedia-hq/guardrail/pkg/verdict"
)

// Regex checks selected by a rule's regexCheck param. Rules without one scan
// their patterns.
const (
	CheckHeadlineLength = "headline_length"
	CheckSubheadLength  = "subhead_length"
	CheckTagAllowlist   = "tag_allowlist"
)

// MatcherSource supplies compiled patterns. *rules.Catalog implements it.
type MatcherSource interface {
	Matcher(pattern string) rules.Matcher
}

type compileOnly struct{}

func (compileOnly) Matcher(pattern string) rules.Matcher { return rules.CompilePattern(pattern) }

// Detector runs regex checks.
type Detector struct {
	matchers MatcherSource
	logger   *slog.Logger
}

// New creates a regex detector. A nil source compiles patterns on every use.
func New(matchers MatcherSource, logger *slog.Logger) *Detector {
	if matchers == nil {
		matchers = compileOnly{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{matchers: matchers, logger: logger}
}

// Detect runs the regex check of the rule.
func (d *Detector) Detect(snap *creative.Snapshot, r *rules.Rule) detect.Result {
	switch check := r.Params.String(rules.ParamRegexCheck, ""); check {
	case CheckHeadlineLength:
		return detect.Fail(d.headlineLength(snap, r)...)
	case CheckSubheadLength:
		return detect.Fail(d.subheadLength(snap, r)...)
	case CheckTagAllowlist:
		return detect.Fail(d.tagAllowlist(snap, r)...)
	case "":
		return detect.Fail(d.patterns(snap, r)...)
	default:
		d.logger.Debug("unknown regex check", "rule_id", r.ID, "check", check)
		return detect.Pass()
	}
}

// Normalize returns the NFKC form of s.
func Normalize(s string) string {
	return norm.NFKC.String(s)
}

// Eligible reports whether a text element is scanned for the rule, honoring
// skipForValueTiles and exemptInsideValueTiles.
func Eligible(e *creative.Element, r *rules.Rule, tiles []detect.TileRect) bool {
	if !e.IsText() || strings.TrimSpace(e.Text) == "" {
		return false
	}
	if r.Params.Bool(detect.ParamSkipForValueTiles, false) && detect.SkippedForValueTiles(e) {
		return false
	}
	if r.Params.Bool(detect.ParamExemptInsideValueTiles, false) &&
		(e.IsValueTile || detect.InsideValueTile(tiles, e.Bounds())) {
		return false
	}
	return true
}

func (d *Detector) patterns(snap *creative.Snapshot, r *rules.Rule) []verdict.Finding {
	patterns := r.Params.Strings(rules.ParamPatterns)
	if len(patterns) == 0 {
		return nil
	}
	matchers := make([]rules.Matcher, 0, len(patterns))
	for _, p := range patterns {
		matchers = append(matchers, d.matchers.Matcher(p))
	}
	tiles := detect.ValueTileRects(snap.Elements)

	var out []verdict.Finding
	for _, e := range snap.TextElements() {
		if !Eligible(e, r, tiles) {
			continue
		}
		text := Normalize(e.Text)

		var terms []string
		seen := make(map[string]bool)
		for _, m := range matchers {
			for _, term := range m.FindAll(text) {
				if !seen[term] {
					seen[term] = true
					terms = append(terms, term)
				}
			}
		}
		if len(terms) == 0 {
			continue
		}

		finding := detect.NewFinding(r, rules.MethodRegex, e.ID)
		finding.MatchedTerms = terms
		finding.Message = "contains " + quoteAll(terms)
		out = append(out, finding)
	}
	return out
}

// IsHeadline reports whether e is a headline: named as one, or set at
// headlineSize or larger without a subhead marker.
func IsHeadline(e *creative.Element, headlineSize float64) bool {
	if e.HasMarker("headline") {
		return true
	}
	return !e.HasMarker("subhead") && e.FontSize >= headlineSize
}

// IsSubhead reports whether e is a subhead: named as one, or set in
// [subheadSize, headlineSize) without a headline marker.
func IsSubhead(e *creative.Element, subheadSize, headlineSize float64) bool {
	if e.HasMarker("subhead") {
		return true
	}
	return !e.HasMarker("headline") && e.FontSize >= subheadSize && e.FontSize < headlineSize
}

func (d *Detector) headlineLength(snap *creative.Snapshot, r *rules.Rule) []verdict.Finding {
	maxChars := r.Params.Int("maxChars", 35)
	size := r.Params.Float("headlineFontSize", 48)

	var out []verdict.Finding
	for _, e := range snap.TextElements() {
		if e.IsSystem() || !IsHeadline(e, size) {
			continue
		}
		n := utf8.RuneCountInString(Normalize(e.Text))
		if n <= maxChars {
			continue
		}
		finding := detect.NewFinding(r, rules.MethodRegex, e.ID)
		finding.Message = fmt.Sprintf("headline is %d characters, maximum is %d", n, maxChars)
		finding.Count = verdict.Int(n)
		out = append(out, finding)
	}
	return out
}

func (d *Detector) subheadLength(snap *creative.Snapshot, r *rules.Rule) []verdict.Finding {
	maxWords := r.Params.Int("maxWords", 20)
	subheadSize := r.Params.Float("subheadFontSize", 24)
	headlineSize := r.Params.Float("headlineFontSize", 48)

	var out []verdict.Finding
	for _, e := range snap.TextElements() {
		if e.IsSystem() || !IsSubhead(e, subheadSize, headlineSize) {
			continue
		}
		n := len(strings.Fields(Normalize(e.Text)))
		if n <= maxWords {
			continue
		}
		finding := detect.NewFinding(r, rules.MethodRegex, e.ID)
		finding.Message = fmt.Sprintf("subhead is %d words, maximum is %d", n, maxWords)
		finding.Count = verdict.Int(n)
		out = append(out, finding)
	}
	return out
}

func (d *Detector) tagAllowlist(snap *creative.Snapshot, r *rules.Rule) []verdict.Finding {
	allowed := r.Params.Strings("allowedTags")
	var clubcard rules.Matcher
	if p := r.Params.String("clubcardPattern", ""); p != "" {
		clubcard = d.matchers.Matcher(p)
	}

	var out []verdict.Finding
	for i := range snap.Elements {
		e := &snap.Elements[i]
		if !e.IsTag && e.Role != creative.RoleTag {
			continue
		}
		text := strings.Join(strings.Fields(Normalize(e.Text)), " ")
		if text == "" || TagAllowed(text, allowed, clubcard) {
			continue
		}
		finding := detect.NewFinding(r, rules.MethodRegex, e.ID)
		finding.Message = fmt.Sprintf("tag %q is not an approved tag", text)
		out = append(out, finding)
	}
	return out
}

// TagAllowed reports whether text equals an allowed tag, ignoring case, or
// matches the clubcard pattern.
func TagAllowed(text string, allowed []string, clubcard rules.Matcher) bool {
	for _, a := range allowed {
		if strings.EqualFold(text, strings.TrimSpace(a)) {
			return true
		}
	}
	return clubcard != nil && len(clubcard.FindAll(text)) > 0
}

func quoteAll(terms []string) string {
	q := make([]string, len(terms))
	for i, t := range terms {
		q[i] = fmt.Sprintf("%q", t)
	}
	return strings.Join(q, ", ")
}
