package rules

import (
	"fmt"

	"retailmedia-hq/guardrail/pkg/verdict"
)

// Catalog is an immutable, indexed set of rules.
type Catalog struct {
	version    string
	rules      []*Rule
	byID       map[string]*Rule
	byCategory map[Category][]*Rule
	byMethod   map[Method][]*Rule
	patterns   *patternCache
}

// NewCatalog validates rules and builds the indexes. The rules are copied; later
// changes to the input do not affect the catalog.
func NewCatalog(version string, rules []Rule) (*Catalog, error) {
	if version == "" {
		version = SchemaVersion
	}
	if version != SchemaVersion {
		return nil, fmt.Errorf("%w: %q (want %q)", ErrUnsupportedVersion, version, SchemaVersion)
	}
	if problems := validateRules(rules); len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	c := &Catalog{
		version:    version,
		rules:      make([]*Rule, 0, len(rules)),
		byID:       make(map[string]*Rule, len(rules)),
		byCategory: make(map[Category][]*Rule),
		byMethod:   make(map[Method][]*Rule),
		patterns:   &patternCache{},
	}
	for i := range rules {
		r := cloneRule(rules[i])
		c.rules = append(c.rules, r)
		c.byID[r.ID] = r
		c.byCategory[r.Category] = append(c.byCategory[r.Category], r)
		for _, m := range r.DetectionMethods {
			c.byMethod[m] = append(c.byMethod[m], r)
		}
	}
	return c, nil
}

// Version returns the schema version of the catalog.
func (c *Catalog) Version() string {
	return c.version
}

// Len returns the number of rules.
func (c *Catalog) Len() int {
	return len(c.rules)
}

// Rules returns all rules in document order.
func (c *Catalog) Rules() []*Rule {
	return append([]*Rule(nil), c.rules...)
}

// GetRuleByID returns the rule with the given id.
func (c *Catalog) GetRuleByID(id string) (*Rule, error) {
	r, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	return r, nil
}

// GetRulesByCategory returns the rules of a category in document order.
func (c *Catalog) GetRulesByCategory(category Category) []*Rule {
	return append([]*Rule(nil), c.byCategory[category]...)
}

// GetRulesByDetectionMethod returns the rules using method m in document order.
func (c *Catalog) GetRulesByDetectionMethod(m Method) []*Rule {
	return append([]*Rule(nil), c.byMethod[m]...)
}

// GetHardFailRules returns the hard_fail rules in document order.
func (c *Catalog) GetHardFailRules() []*Rule {
	return c.byType(verdict.TypeHardFail)
}

// GetWarningRules returns the warning rules in document order.
func (c *Catalog) GetWarningRules() []*Rule {
	return c.byType(verdict.TypeWarning)
}

func (c *Catalog) byType(t verdict.FindingType) []*Rule {
	var out []*Rule
	for _, r := range c.rules {
		if r.Type == t {
			out = append(out, r)
		}
	}
	return out
}

// Matcher returns the memoized matcher for pattern.
func (c *Catalog) Matcher(pattern string) Matcher {
	return c.patterns.get(pattern)
}

// Document returns the serializable form of the catalog.
func (c *Catalog) Document() Document {
	doc := Document{SchemaVersion: c.version, Rules: make([]Rule, 0, len(c.rules))}
	for _, r := range c.rules {
		doc.Rules = append(doc.Rules, *cloneRule(*r))
	}
	return doc
}

func cloneRule(r Rule) *Rule {
	out := r
	out.DetectionMethods = append([]Method(nil), r.DetectionMethods...)
	if r.AppliesToFormats != nil {
		out.AppliesToFormats = append([]string(nil), r.AppliesToFormats...)
	}
	if r.AppliesWhen != nil {
		out.AppliesWhen = make(map[string]any, len(r.AppliesWhen))
		for k, v := range r.AppliesWhen {
			out.AppliesWhen[k] = v
		}
	}
	if r.Params != nil {
		out.Params = make(Params, len(r.Params))
		for k, v := range r.Params {
			out.Params[k] = v
		}
	}
	return &out
}

func validateRules(rules []Rule) []string {
	var problems []string
	seen := make(map[string]bool, len(rules))

	for i, r := range rules {
		name := r.ID
		if name == "" {
			name = fmt.Sprintf("rules[%d]", i)
			problems = append(problems, fmt.Sprintf("%s: missing id", name))
		} else if seen[r.ID] {
			problems = append(problems, fmt.Sprintf("%s: duplicate id", name))
		}
		seen[r.ID] = true

		switch r.Type {
		case verdict.TypeHardFail, verdict.TypeWarning:
		default:
			problems = append(problems, fmt.Sprintf("%s: unknown type %q", name, r.Type))
		}
		switch r.Severity {
		case verdict.SeverityBlockExport, verdict.SeverityUserConfirmation, verdict.SeverityWarnUser:
		default:
			problems = append(problems, fmt.Sprintf("%s: unknown severity %q", name, r.Severity))
		}
		if len(r.DetectionMethods) == 0 {
			problems = append(problems, fmt.Sprintf("%s: no detection methods", name))
		}
		for _, m := range r.DetectionMethods {
			if !m.IsValid() {
				problems = append(problems, fmt.Sprintf("%s: unknown detection method %q", name, m))
			}
		}
		if r.Uses(MethodSemantic) && !r.Uses(MethodRegex) {
			problems = append(problems, fmt.Sprintf("%s: semantic_nli requires regex", name))
		}
		if r.Category == "" {
			problems = append(problems, fmt.Sprintf("%s: missing category", name))
		}
	}
	return problems
}
