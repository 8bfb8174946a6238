package source

import (
	"context"
	"fmt"
	"os"

	"retailmedia-hq/guardrail/pkg/rules"
)

// Source provides rule catalogs.
type Source interface {
	// Load reads and validates the catalog.
	Load(ctx context.Context) (*rules.Catalog, error)

	// Describe returns a short human-readable location for log lines.
	Describe() string
}

// FileSource loads a JSON or YAML schema document from disk.
type FileSource struct {
	path string
}

// NewFileSource creates a source for the schema file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Load reads and parses the schema file.
func (s *FileSource) Load(ctx context.Context) (*rules.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule schema %q: %w", s.path, err)
	}

	catalog, err := rules.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load rule schema %q: %w", s.path, err)
	}
	return catalog, nil
}

// Path returns the schema file path.
func (s *FileSource) Path() string {
	return s.path
}

// Describe implements Source.
func (s *FileSource) Describe() string {
	return "file:" + s.path
}

// EmbeddedSource serves the built-in catalog.
type EmbeddedSource struct{}

// Load returns the built-in catalog.
func (EmbeddedSource) Load(ctx context.Context) (*rules.Catalog, error) {
	return rules.Default(), nil
}

// Describe implements Source.
func (EmbeddedSource) Describe() string {
	return "builtin"
}

// MemorySource serves a fixed catalog. Useful in tests and for hosts that build
// catalogs programmatically.
type MemorySource struct {
	catalog *rules.Catalog
}

// NewMemorySource wraps catalog.
func NewMemorySource(catalog *rules.Catalog) *MemorySource {
	return &MemorySource{catalog: catalog}
}

// Load returns the wrapped catalog.
func (s *MemorySource) Load(ctx context.Context) (*rules.Catalog, error) {
	if s.catalog == nil {
		return nil, fmt.Errorf("memory source has no catalog")
	}
	return s.catalog, nil
}

// Describe implements Source.
func (s *MemorySource) Describe() string {
	return "memory"
}
