package rules

import (
	"regexp"
	"strings"
	"sync"
)

// Matcher finds pattern occurrences in text.
type Matcher interface {
	// FindAll returns every matched substring in order of occurrence.
	FindAll(text string) []string

	// Literal reports whether the matcher fell back to substring matching.
	Literal() bool
}

type regexMatcher struct {
	re *regexp.Regexp
}

func (m regexMatcher) FindAll(text string) []string {
	var out []string
	for _, s := range m.re.FindAllString(text, -1) {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (regexMatcher) Literal() bool { return false }

// literalMatcher matches a pattern as a case-insensitive substring.
type literalMatcher struct {
	needle string
}

func (m literalMatcher) FindAll(text string) []string {
	if m.needle == "" {
		return nil
	}
	var out []string
	lower := strings.ToLower(text)
	for off := 0; ; {
		i := strings.Index(lower[off:], m.needle)
		if i < 0 {
			break
		}
		start := off + i
		end := start + len(m.needle)
		if end > len(text) {
			break
		}
		out = append(out, text[start:end])
		off = end
	}
	return out
}

func (literalMatcher) Literal() bool { return true }

// CompilePattern compiles pattern case-insensitively. If the pattern is not
// valid RE2 syntax it falls back to a literal case-insensitive substring match.
func CompilePattern(pattern string) Matcher {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return literalMatcher{needle: strings.ToLower(pattern)}
	}
	return regexMatcher{re: re}
}

// patternCache memoizes compiled patterns for one catalog.
type patternCache struct {
	mu       sync.RWMutex
	matchers map[string]Matcher
}

func (c *patternCache) get(pattern string) Matcher {
	c.mu.RLock()
	m, ok := c.matchers[pattern]
	c.mu.RUnlock()
	if ok {
		return m
	}

	m = CompilePattern(pattern)

	c.mu.Lock()
	if c.matchers == nil {
		c.matchers = make(map[string]Matcher)
	}
	c.matchers[pattern] = m
	c.mu.Unlock()
	return m
}
