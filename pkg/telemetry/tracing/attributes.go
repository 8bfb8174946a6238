package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"retailmedia-hq/guardrail/pkg/verdict"
)

// Attribute keys. Custom keys use the "guardrail.*" namespace.
const (
	// Evaluation attributes
	AttrEvaluationID = "guardrail.evaluation_id"
	AttrMode         = "guardrail.mode"
	AttrPhase        = "guardrail.phase"
	AttrFormatID     = "guardrail.format_id"

	// Verdict attributes
	AttrScore     = "guardrail.verdict.score"
	AttrCanExport = "guardrail.verdict.can_export"
	AttrErrors    = "guardrail.verdict.errors"
	AttrWarnings  = "guardrail.verdict.warnings"
	AttrRuleIDs   = "guardrail.verdict.rule_ids"

	// Capability attributes
	AttrProvider  = "guardrail.capability.provider"
	AttrOperation = "guardrail.capability.operation"
	AttrCacheHit  = "guardrail.cache.hit"

	// Request attributes
	AttrRequestID = "guardrail.request_id"

	AttrErrorMessage = "error.message"
)

// SetVerdictAttributes records the outcome of an evaluation on span. A nil
// verdict is ignored.
func SetVerdictAttributes(span trace.Span, v *verdict.Verdict) {
	if v == nil {
		return
	}

	ids := make([]string, 0, len(v.Errors)+len(v.Warnings))
	for _, f := range v.Findings() {
		ids = append(ids, f.RuleID)
	}

	span.SetAttributes(
		attribute.Int(AttrScore, v.Score),
		attribute.Bool(AttrCanExport, v.CanExport),
		attribute.Int(AttrErrors, len(v.Errors)),
		attribute.Int(AttrWarnings, len(v.Warnings)),
		attribute.StringSlice(AttrRuleIDs, ids),
	)
}

// SetCapabilityAttributes records which provider served an operation.
func SetCapabilityAttributes(span trace.Span, provider, operation string) {
	span.SetAttributes(
		attribute.String(AttrProvider, provider),
		attribute.String(AttrOperation, operation),
	)
}

// AttributeBuilder collects attributes for a single SetAttributes call.
//
//	tracing.NewAttributeBuilder().
//	    Add(tracing.AttrRequestID, id).
//	    AddInt(tracing.AttrScore, 85).
//	    Apply(span)
type AttributeBuilder struct {
	attrs []attribute.KeyValue
}

// NewAttributeBuilder returns an empty builder.
func NewAttributeBuilder() *AttributeBuilder {
	return &AttributeBuilder{}
}

// Add appends a string attribute. Empty values are skipped.
func (b *AttributeBuilder) Add(key, value string) *AttributeBuilder {
	if value != "" {
		b.attrs = append(b.attrs, attribute.String(key, value))
	}
	return b
}

// AddInt appends an int attribute.
func (b *AttributeBuilder) AddInt(key string, value int) *AttributeBuilder {
	b.attrs = append(b.attrs, attribute.Int(key, value))
	return b
}

// AddBool appends a bool attribute.
func (b *AttributeBuilder) AddBool(key string, value bool) *AttributeBuilder {
	b.attrs = append(b.attrs, attribute.Bool(key, value))
	return b
}

// Build returns the collected attributes.
func (b *AttributeBuilder) Build() []attribute.KeyValue {
	return b.attrs
}

// Apply sets the collected attributes on span.
func (b *AttributeBuilder) Apply(span trace.Span) {
	if len(b.attrs) > 0 {
		span.SetAttributes(b.attrs...)
	}
}
