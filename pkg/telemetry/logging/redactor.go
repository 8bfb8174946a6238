package logging

import (
	"fmt"
	"regexp"
	"strings"

	"retailmedia-hq/guardrail/pkg/config"
)

// Redactor masks payloads and credentials in log values. Snapshots carry
// canvas images as data URLs, which would otherwise flood the logs.
type Redactor struct {
	patterns []redactPattern
}

type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Built-in pattern names.
const (
	PatternDataURL     = "data_url"
	PatternBase64      = "base64"
	PatternGoogleKey   = "google_api_key"
	PatternBearerToken = "bearer_token"
	PatternQuerySecret = "query_secret"
)

// Patterns run in order: data URLs before bare base64 so the media type stays visible.
var defaultPatterns = []struct {
	name        string
	regex       string
	replacement string
}{
	{PatternDataURL, `data:([\w.+-]+/[\w.+-]+)?(;[\w-]+=[\w-]+)*;base64,[A-Za-z0-9+/=]+`, "data:$1;base64,***"},
	{PatternBase64, `[A-Za-z0-9+/]{256,}={0,2}`, "<base64 redacted>"},
	{PatternGoogleKey, `AIza[0-9A-Za-z_-]{35}`, "AIza***"},
	{PatternBearerToken, `(?i)bearer\s+[a-z0-9\-._~+/]+=*`, "Bearer ***"},
	{PatternQuerySecret, `(?i)\b((?:api[-_]?key|key|token|access_token)=)[^&\s"]+`, "${1}***"},
}

// NewRedactor creates a Redactor with the built-in patterns followed by
// custom. Invalid custom patterns are returned as an error.
func NewRedactor(custom []config.RedactPattern) (*Redactor, error) {
	r := &Redactor{}
	for _, p := range defaultPatterns {
		r.patterns = append(r.patterns, redactPattern{
			name:        p.name,
			regex:       regexp.MustCompile(p.regex),
			replacement: p.replacement,
		})
	}

	for i, p := range custom {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			return nil, fmt.Errorf("redact pattern %d: %w", i, err)
		}
		replacement := p.Replacement
		if replacement == "" {
			replacement = "***"
		}
		r.patterns = append(r.patterns, redactPattern{
			name:        fmt.Sprintf("custom_%d", i),
			regex:       re,
			replacement: replacement,
		})
	}

	return r, nil
}

// RedactString applies every pattern to value.
func (r *Redactor) RedactString(value string) string {
	if r == nil || value == "" {
		return value
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// RedactValue masks a value logged under key. Values under sensitive keys are
// replaced outright; other strings go through the patterns.
func (r *Redactor) RedactValue(key, value string) string {
	if r == nil {
		return value
	}
	if isSensitiveKey(key) && value != "" {
		return RedactSecret(value)
	}
	return r.RedactString(value)
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range []string{"api_key", "apikey", "secret", "password", "token", "authorization"} {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// RedactSecret keeps a four character prefix of a credential.
func RedactSecret(s string) string {
	if len(s) <= 4 {
		return "***"
	}
	return s[:4] + "***"
}
