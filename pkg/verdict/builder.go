package verdict

import (
	"sync"
	"time"
)

// Builder accumulates findings in phase order. The first finding for a
// (ruleId, objectId) pair wins; later duplicates are dropped. Safe for
// concurrent use.
type Builder struct {
	mu       sync.Mutex
	seen     map[Key]bool
	errors   []Finding
	warnings []Finding
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{seen: make(map[Key]bool)}
}

// Add records findings, skipping duplicates. It returns the number added.
func (b *Builder) Add(findings ...Finding) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	added := 0
	for _, f := range findings {
		k := f.Key()
		if b.seen[k] {
			continue
		}
		b.seen[k] = true
		if f.Type == TypeHardFail {
			b.errors = append(b.errors, f)
		} else {
			b.warnings = append(b.warnings, f)
		}
		added++
	}
	return added
}

// Contains reports whether a finding with the given key was recorded.
func (b *Builder) Contains(ruleID, objectID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seen[Key{RuleID: ruleID, ObjectID: objectID}]
}

// Flagged returns the object ids already flagged for ruleID.
func (b *Builder) Flagged(ruleID string) map[string]bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[string]bool)
	for k := range b.seen {
		if k.RuleID == ruleID {
			out[k.ObjectID] = true
		}
	}
	return out
}

// Finalize produces the verdict with score and export gate.
func (b *Builder) Finalize(evaluatedAt time.Time, took time.Duration) *Verdict {
	b.mu.Lock()
	defer b.mu.Unlock()

	v := &Verdict{
		Errors:      append([]Finding{}, b.errors...),
		Warnings:    append([]Finding{}, b.warnings...),
		EvaluatedAt: evaluatedAt,
		TimeTakenMs: took.Milliseconds(),
	}
	v.Score = Score(len(v.Errors), len(v.Warnings))
	v.CanExport = len(v.Errors) == 0
	return v
}
