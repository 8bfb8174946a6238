package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig indicates invalid engine configuration.
	ErrInvalidConfig = errors.New("invalid engine configuration")

	// ErrNilCatalog indicates the engine was built without a rule catalog.
	ErrNilCatalog = errors.New("nil rule catalog")

	// ErrNilSnapshot indicates an evaluation was requested without a snapshot.
	ErrNilSnapshot = errors.New("nil snapshot")
)

// ConfigError describes one invalid configuration field.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %s %s", ErrInvalidConfig, e.Field, e.Message)
}

// Unwrap returns ErrInvalidConfig.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// PhaseError wraps a panic raised while a phase was running.
type PhaseError struct {
	Phase string
	Value any
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s phase panicked: %v", e.Phase, e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PhaseError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
