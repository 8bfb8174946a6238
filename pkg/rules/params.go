package rules

import "fmt"

// Params holds rule-specific parameters. Values come from JSON or YAML and are
// read through the typed accessors, which accept every numeric representation
// either decoder produces.
type Params map[string]any

// Param keys shared by several detectors.
const (
	ParamLayoutCheck = "layoutCheck"
	ParamRegexCheck  = "regexCheck"
	ParamVisionCheck = "visionCheck"
	ParamPatterns    = "patterns"
	ParamHypothesis  = "semanticHypothesis"
)

// String returns the string value of key, or def.
func (p Params) String(key, def string) string {
	if s, ok := p[key].(string); ok {
		return s
	}
	return def
}

// Float returns the numeric value of key, or def.
func (p Params) Float(key string, def float64) float64 {
	if f, ok := toFloat(p[key]); ok {
		return f
	}
	return def
}

// Int returns the numeric value of key truncated to an int, or def.
func (p Params) Int(key string, def int) int {
	if f, ok := toFloat(p[key]); ok {
		return int(f)
	}
	return def
}

// Bool returns the boolean value of key, or def.
func (p Params) Bool(key string, def bool) bool {
	if b, ok := p[key].(bool); ok {
		return b
	}
	return def
}

// Strings returns the string list under key. Non-string items are formatted.
func (p Params) Strings(key string) []string {
	switch v := p[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			} else {
				out = append(out, fmt.Sprint(item))
			}
		}
		return out
	case string:
		return []string{v}
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
