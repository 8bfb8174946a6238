package rules

import (
	"bytes"
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var schemaCUE string

// LintResult reports the problems found in a schema document. Errors make the
// document unusable; warnings describe rules that load but behave differently
// than their author probably intended.
type LintResult struct {
	Errors   []string
	Warnings []string
}

// OK reports whether the document has no errors.
func (r *LintResult) OK() bool {
	return len(r.Errors) == 0
}

// Lint checks a schema document against the CUE definition of the format and
// then against the catalog invariants. Unlike Parse it reports every problem.
func Lint(data []byte) *LintResult {
	result := &LintResult{}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("compiling schema definition: %v", err))
		return result
	}

	// JSON is valid CUE; YAML goes through the CUE YAML extractor.
	var doc cue.Value
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		doc = ctx.CompileBytes(trimmed, cue.Filename("rules.json"))
	} else {
		f, err := cueyaml.Extract("rules.yaml", data)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("reading YAML: %v", err))
			return result
		}
		doc = ctx.BuildFile(f)
	}
	if err := doc.Err(); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("reading document: %v", err))
		return result
	}

	unified := schema.LookupPath(cue.ParsePath("#Document")).Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		for _, e := range cueerrors.Errors(err) {
			result.Errors = append(result.Errors, e.Error())
		}
		return result
	}

	// Catalog invariants the CUE definition cannot express
	parsed, err := ParseDocument(data)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	result.Errors = append(result.Errors, validateRules(parsed.Rules)...)

	for _, r := range parsed.Rules {
		result.Warnings = append(result.Warnings, lintRule(r)...)
	}
	return result
}

func lintRule(r Rule) []string {
	var warnings []string

	for _, p := range r.Params.Strings(ParamPatterns) {
		if CompilePattern(p).Literal() {
			warnings = append(warnings, fmt.Sprintf("%s: pattern %q is not valid RE2 and will match as literal text", r.ID, p))
		}
	}
	if r.Uses(MethodSemantic) && r.Params.String(ParamHypothesis, "") == "" {
		warnings = append(warnings, fmt.Sprintf("%s: semantic_nli without %s is never checked", r.ID, ParamHypothesis))
	}
	if r.Uses(MethodRegex) && r.Params.String(ParamRegexCheck, "") == "" && len(r.Params.Strings(ParamPatterns)) == 0 {
		warnings = append(warnings, fmt.Sprintf("%s: regex rule has neither %s nor %s", r.ID, ParamRegexCheck, ParamPatterns))
	}
	if r.Uses(MethodVision) && r.Params.String(ParamVisionCheck, "") == "" {
		warnings = append(warnings, fmt.Sprintf("%s: vision rule has no %s", r.ID, ParamVisionCheck))
	}
	return warnings
}
