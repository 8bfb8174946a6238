package engine

import (
	"fmt"
	"strconv"
	"strings"

	"retailmedia-hq/guardrail/pkg/creative"
	"retailmedia-hq/guardrail/pkg/rules"
)

// Applies reports whether r should run against snap: the rule's format list
// must admit the current format and every applies_when key must match.
// Unknown keys never match.
func Applies(r *rules.Rule, snap *creative.Snapshot) bool {
	if !r.AppliesToFormat(snap.Context.FormatID) {
		return false
	}
	for key, want := range r.AppliesWhen {
		got, ok := snap.Value(key)
		if !ok || !looseEqual(got, want) {
			return false
		}
	}
	return true
}

// looseEqual compares a context value with a rule-declared value. Numbers
// compare by value whatever their type, booleans accept "true"/"false"
// strings and everything else compares by its string form.
func looseEqual(got, want any) bool {
	if got == nil || want == nil {
		return got == nil && want == nil
	}

	if gf, ok := toFloat64(got); ok {
		wf, ok := toFloat64(want)
		return ok && gf == wf
	}

	if gb, ok := got.(bool); ok {
		wb, ok := toBool(want)
		return ok && gb == wb
	}

	return toString(got) == toString(want)
}

func toFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	default:
		return 0, false
	}
}

func toBool(v any) (bool, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		return b, err == nil
	default:
		return false, false
	}
}

func toString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(v)
	}
}
