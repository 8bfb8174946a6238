// Package verdict holds the result types of a compliance evaluation: findings,
// the verdict that groups them, and the builder that deduplicates and scores.
package verdict

import (
	"time"
)

// FindingType separates blocking findings from advisory ones.
type FindingType string

const (
	TypeHardFail FindingType = "hard_fail"
	TypeWarning  FindingType = "warning"
)

// Severity describes what the host should do with a finding.
type Severity string

const (
	SeverityBlockExport      Severity = "block_export"
	SeverityUserConfirmation Severity = "user_confirmation"
	SeverityWarnUser         Severity = "warn_user"
)

// Synthetic rule ids produced by the engine itself.
const (
	RuleEngineError   = "ENGINE_ERROR"
	RuleEngineTimeout = "ENGINE_TIMEOUT"
)

// Finding is one rule violation. ObjectID is empty for creative-level findings.
// The detail fields are populated depending on the rule.
type Finding struct {
	RuleID          string      `json:"ruleId"`
	RuleName        string      `json:"ruleName"`
	Category        string      `json:"category"`
	Type            FindingType `json:"type"`
	Severity        Severity    `json:"severity"`
	DetectionMethod string      `json:"detectionMethod"`
	ObjectID        string      `json:"objectId,omitempty"`
	Explanation     string      `json:"explanation"`
	PlainEnglish    string      `json:"plainEnglish"`
	Message         string      `json:"message,omitempty"`

	MatchedTerms  []string `json:"matchedTerms,omitempty"`
	MeasuredRatio *float64 `json:"measuredRatio,omitempty"`
	RequiredRatio *float64 `json:"requiredRatio,omitempty"`
	EffectiveSize *float64 `json:"effectiveSize,omitempty"`
	RequiredSize  *float64 `json:"requiredSize,omitempty"`
	Confidence    *float64 `json:"confidence,omitempty"`
	Count         *int     `json:"count,omitempty"`
	Issues        []string `json:"issues,omitempty"`
}

// Key is the deduplication key of a finding.
type Key struct {
	RuleID   string
	ObjectID string
}

// Key returns the (ruleId, objectId) pair identifying f within a verdict.
func (f *Finding) Key() Key {
	return Key{RuleID: f.RuleID, ObjectID: f.ObjectID}
}

// IsBlocking reports whether the finding blocks export.
func (f *Finding) IsBlocking() bool {
	return f.Type == TypeHardFail
}

// Verdict is the result of one evaluation.
type Verdict struct {
	Errors      []Finding `json:"errors"`
	Warnings    []Finding `json:"warnings"`
	Score       int       `json:"score"`
	CanExport   bool      `json:"canExport"`
	EvaluatedAt time.Time `json:"evaluatedAt"`
	TimeTakenMs int64     `json:"timeTakenMs"`
}

// Clone returns a deep copy of v. Changes to the copy, including its findings'
// detail slices and pointers, never reach v.
func (v *Verdict) Clone() *Verdict {
	if v == nil {
		return nil
	}
	out := *v
	out.Errors = cloneFindings(v.Errors)
	out.Warnings = cloneFindings(v.Warnings)
	return &out
}

// Clone returns a deep copy of f.
func (f Finding) Clone() Finding {
	f.MatchedTerms = cloneStrings(f.MatchedTerms)
	f.Issues = cloneStrings(f.Issues)
	f.MeasuredRatio = clonePtr(f.MeasuredRatio)
	f.RequiredRatio = clonePtr(f.RequiredRatio)
	f.EffectiveSize = clonePtr(f.EffectiveSize)
	f.RequiredSize = clonePtr(f.RequiredSize)
	f.Confidence = clonePtr(f.Confidence)
	f.Count = clonePtr(f.Count)
	return f
}

func cloneFindings(in []Finding) []Finding {
	out := make([]Finding, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Findings returns errors followed by warnings.
func (v *Verdict) Findings() []Finding {
	out := make([]Finding, 0, len(v.Errors)+len(v.Warnings))
	out = append(out, v.Errors...)
	return append(out, v.Warnings...)
}

// Has reports whether the verdict contains a finding for ruleID, optionally
// restricted to objectID when it is non-empty.
func (v *Verdict) Has(ruleID, objectID string) bool {
	for _, f := range v.Findings() {
		if f.RuleID == ruleID && (objectID == "" || f.ObjectID == objectID) {
			return true
		}
	}
	return false
}

// Score computes max(0, 100 - 15*hardFails - 5*warnings).
func Score(hardFails, warnings int) int {
	s := 100 - 15*hardFails - 5*warnings
	if s < 0 {
		return 0
	}
	return s
}

// Float returns a pointer to v for detail fields.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v for detail fields.
func Int(v int) *int { return &v }
