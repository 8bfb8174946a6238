package engine

import (
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"retailmedia-hq/guardrail/pkg/capability"
)

// Config contains configuration for the evaluation engine.
type Config struct {
	// Deadline bounds one evaluation. Zero means no deadline beyond the
	// caller's context.
	// Default: 30s.
	Deadline time.Duration

	// SemanticBatchSize is the number of entailment calls in flight at once.
	// Default: 5.
	SemanticBatchSize int

	// SemanticBatchTimeout bounds one entailment batch.
	// Default: 8s.
	SemanticBatchTimeout time.Duration

	// SemanticTimeout bounds the semantic checks of one rule.
	// Default: 20s.
	SemanticTimeout time.Duration

	// SemanticMinConfidence is the entailment confidence needed for a finding
	// when the rule does not set its own.
	// Default: 0.75.
	SemanticMinConfidence float64

	// VisionTimeout bounds the vision phase.
	// Default: 25s.
	VisionTimeout time.Duration

	// Capabilities serves the semantic and vision phases. Nil disables them.
	Capabilities capability.Capabilities

	// Images resolves image references for the vision phase.
	// Default: a capability.Loader with no CDN transform.
	Images capability.ImageLoader

	// Logger receives engine logs. Default: slog.Default().
	Logger *slog.Logger

	// Observer receives evaluation metrics. Default: discard.
	Observer Observer

	// Tracer creates evaluation spans. Default: noop.
	Tracer trace.Tracer

	// Clock returns the current time. Default: time.Now.
	Clock func() time.Time
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		Deadline:              30 * time.Second,
		SemanticBatchSize:     5,
		SemanticBatchTimeout:  8 * time.Second,
		SemanticTimeout:       20 * time.Second,
		SemanticMinConfidence: 0.75,
		VisionTimeout:         25 * time.Second,
	}
}

// Validate validates the engine configuration.
func (c *Config) Validate() error {
	if c.Deadline < 0 {
		return &ConfigError{Field: "Deadline", Message: "must not be negative"}
	}
	if c.SemanticBatchSize <= 0 {
		return &ConfigError{Field: "SemanticBatchSize", Message: "must be positive"}
	}
	if c.SemanticBatchTimeout <= 0 {
		return &ConfigError{Field: "SemanticBatchTimeout", Message: "must be positive"}
	}
	if c.SemanticTimeout <= 0 {
		return &ConfigError{Field: "SemanticTimeout", Message: "must be positive"}
	}
	if c.SemanticBatchTimeout > c.SemanticTimeout {
		return &ConfigError{Field: "SemanticBatchTimeout", Message: "cannot exceed SemanticTimeout"}
	}
	if c.SemanticMinConfidence <= 0 || c.SemanticMinConfidence > 1 {
		return &ConfigError{Field: "SemanticMinConfidence", Message: fmt.Sprintf("%v is outside (0, 1]", c.SemanticMinConfidence)}
	}
	if c.VisionTimeout <= 0 {
		return &ConfigError{Field: "VisionTimeout", Message: "must be positive"}
	}
	return nil
}

// WithDeadline sets the evaluation deadline.
func (c *Config) WithDeadline(d time.Duration) *Config {
	c.Deadline = d
	return c
}

// WithSemanticBatchSize sets the entailment batch size.
func (c *Config) WithSemanticBatchSize(n int) *Config {
	c.SemanticBatchSize = n
	return c
}

// WithSemanticTimeouts sets the per-batch and per-rule semantic timeouts.
func (c *Config) WithSemanticTimeouts(batch, total time.Duration) *Config {
	c.SemanticBatchTimeout = batch
	c.SemanticTimeout = total
	return c
}

// WithVisionTimeout sets the vision phase timeout.
func (c *Config) WithVisionTimeout(d time.Duration) *Config {
	c.VisionTimeout = d
	return c
}

// WithCapabilities sets the AI capability set.
func (c *Config) WithCapabilities(caps capability.Capabilities) *Config {
	c.Capabilities = caps
	return c
}

// WithImages sets the image loader.
func (c *Config) WithImages(images capability.ImageLoader) *Config {
	c.Images = images
	return c
}

// WithLogger sets the logger.
func (c *Config) WithLogger(logger *slog.Logger) *Config {
	c.Logger = logger
	return c
}

// WithObserver sets the metrics observer.
func (c *Config) WithObserver(o Observer) *Config {
	c.Observer = o
	return c
}

// WithTracer sets the tracer.
func (c *Config) WithTracer(t trace.Tracer) *Config {
	c.Tracer = t
	return c
}

// WithClock sets the time source.
func (c *Config) WithClock(now func() time.Time) *Config {
	c.Clock = now
	return c
}
