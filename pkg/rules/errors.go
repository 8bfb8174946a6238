package rules

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRuleNotFound is returned when a rule id is not in the catalog.
	ErrRuleNotFound = errors.New("rule not found")

	// ErrInvalidSchema is wrapped by every schema validation failure.
	ErrInvalidSchema = errors.New("invalid rule schema")

	// ErrUnsupportedVersion is returned for schema documents of another version.
	ErrUnsupportedVersion = errors.New("unsupported schema version")
)

// ValidationError collects the problems found in a schema document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return fmt.Sprintf("invalid rule schema: %s", e.Problems[0])
	}
	return fmt.Sprintf("invalid rule schema: %d problems: %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidSchema
}
