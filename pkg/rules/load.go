package rules

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed default_rules.json
var defaultRulesJSON []byte

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the built-in catalog. It panics if the embedded document is
// invalid, which is caught by this package's tests.
func Default() *Catalog {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Parse(defaultRulesJSON)
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("built-in rule catalog is invalid: %v", defaultErr))
	}
	return defaultCatalog
}

// DefaultDocument returns the raw built-in schema document.
func DefaultDocument() []byte {
	return append([]byte(nil), defaultRulesJSON...)
}

// Parse reads a schema document. JSON is tried first; anything that does not
// look like a JSON object is read as YAML.
func Parse(data []byte) (*Catalog, error) {
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}
	return NewCatalog(doc.SchemaVersion, doc.Rules)
}

// ParseDocument decodes a schema document without building a catalog.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse rule schema JSON: %w", err)
		}
		return &doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse rule schema YAML: %w", err)
	}
	for i := range doc.Rules {
		r := &doc.Rules[i]
		if r.Params != nil {
			r.Params = normalizeMap(r.Params)
		}
		if r.AppliesWhen != nil {
			r.AppliesWhen = normalizeMap(r.AppliesWhen)
		}
	}
	return &doc, nil
}

// Load reads a schema document from r.
func Load(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule schema: %w", err)
	}
	return Parse(data)
}

// Marshal serializes the catalog as an indented JSON schema document.
func Marshal(c *Catalog) ([]byte, error) {
	doc := c.Document()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rule schema: %w", err)
	}
	return append(data, '\n'), nil
}

// MarshalYAML serializes the catalog as a YAML schema document.
func MarshalYAML(c *Catalog) ([]byte, error) {
	doc := c.Document()
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to marshal rule schema: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to marshal rule schema: %w", err)
	}
	return buf.Bytes(), nil
}

// normalizeMap converts YAML decoded values to the shapes encoding/json
// produces: float64 numbers and map[string]any objects.
func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, val := range m {
		out[k] = normalizeYAML(val)
	}
	return out
}

func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return normalizeMap(t)
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeYAML(val)
		}
		return out
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	}
	return v
}
