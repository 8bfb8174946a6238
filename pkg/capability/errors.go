package capability

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnsupported is returned by providers for operations they do not offer.
	// Chains skip such providers silently.
	ErrUnsupported = errors.New("operation not supported by provider")

	// ErrUnavailable means no provider could serve the call.
	ErrUnavailable = errors.New("capability unavailable")

	// ErrUnparseable means a provider answered but the answer could not be parsed.
	ErrUnparseable = errors.New("unparseable provider response")
)

// ProviderError is a failure reported by a provider.
type ProviderError struct {
	// Provider is the provider name.
	Provider string

	// Operation is the capability operation.
	Operation string

	// StatusCode is the HTTP status code (0 if not applicable).
	StatusCode int

	// Message is the error message.
	Message string

	// Cause is the underlying error (if any).
	Cause error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %q %s failed (status %d): %s", e.Provider, e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %q %s failed: %s", e.Provider, e.Operation, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// TimeoutError is returned when a call exceeds its deadline.
type TimeoutError struct {
	Provider  string
	Operation string
	Timeout   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("provider %q %s timed out after %s", e.Provider, e.Operation, e.Timeout)
}

// ParseError wraps a response that could not be decoded. It unwraps to
// ErrUnparseable.
type ParseError struct {
	Provider    string
	RawResponse string
	Cause       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("provider %q response parse error: %v", e.Provider, e.Cause)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrUnparseable, e.Cause}
}
