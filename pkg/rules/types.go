package rules

import (
	"slices"

	"retailmedia-hq/guardrail/pkg/verdict"
)

// SchemaVersion is the schema document version this package reads and writes.
const SchemaVersion = "1.0"

// Category groups rules by the part of the brand guidelines they enforce.
type Category string

const (
	CategoryAlcohol       Category = "alcohol"
	CategoryCopy          Category = "copy"
	CategoryDesign        Category = "design"
	CategoryFormat        Category = "format"
	CategoryPhotography   Category = "photography"
	CategoryAccessibility Category = "accessibility"
)

// Method is a detection method.
type Method string

const (
	MethodRegex    Method = "regex"
	MethodLayout   Method = "layout"
	MethodSemantic Method = "semantic_nli"
	MethodVision   Method = "vision"
)

// IsValid reports whether m is a known detection method.
func (m Method) IsValid() bool {
	switch m {
	case MethodRegex, MethodLayout, MethodSemantic, MethodVision:
		return true
	}
	return false
}

// Well-known rule ids of the built-in catalog.
const (
	RuleDrinkaware       = "ALC_001"
	RuleTermsConditions  = "COPY_001"
	RuleCompetitions     = "COPY_002"
	RuleGreenClaims      = "COPY_003"
	RuleCharity          = "COPY_004"
	RulePriceCallouts    = "COPY_005"
	RuleClaims           = "COPY_006"
	RuleHeadlineLength   = "COPY_007"
	RuleSubheadLength    = "COPY_008"
	RuleValueTileOverlap = "DESIGN_001"
	RuleTags             = "TAG_001"
	RuleSafeZone         = "FORMAT_001"
	RulePeople           = "MEDIA_001"
	RuleMinFontSize      = "ACC_001"
	RuleContrast         = "ACC_002"
	RulePackshots        = "PACK_001"
)

// Rule is one declarative compliance rule.
type Rule struct {
	ID               string              `json:"id" yaml:"id"`
	Name             string              `json:"name" yaml:"name"`
	Type             verdict.FindingType `json:"type" yaml:"type"`
	Category         Category            `json:"category" yaml:"category"`
	Severity         verdict.Severity    `json:"severity" yaml:"severity"`
	DetectionMethods []Method            `json:"detection_method" yaml:"detection_method"`
	AppliesToFormats []string            `json:"applies_to_formats,omitempty" yaml:"applies_to_formats,omitempty"`
	AppliesWhen      map[string]any      `json:"applies_when,omitempty" yaml:"applies_when,omitempty"`
	Params           Params              `json:"params,omitempty" yaml:"params,omitempty"`
	Explanation      string              `json:"explanation" yaml:"explanation"`
	PlainEnglish     string              `json:"plain_english" yaml:"plain_english"`
}

// Uses reports whether the rule is evaluated by method m.
func (r *Rule) Uses(m Method) bool {
	return slices.Contains(r.DetectionMethods, m)
}

// AppliesToFormat reports whether the rule's format list admits formatID.
func (r *Rule) AppliesToFormat(formatID string) bool {
	return len(r.AppliesToFormats) == 0 || slices.Contains(r.AppliesToFormats, formatID)
}

// Document is the serialized form of a catalog.
type Document struct {
	SchemaVersion string `json:"schema_version" yaml:"schema_version"`
	Rules         []Rule `json:"rules" yaml:"rules"`
}
