package capability

import (
	"context"
)

//go:generate mockgen -destination=mock/capabilities_mock.go -package=mock retailmedia-hq/guardrail/pkg/capability Capabilities

// Capabilities is the set of AI operations available to detectors.
type Capabilities interface {
	// DetectPeople reports whether people appear in an image.
	DetectPeople(ctx context.Context, img Image) (PeopleResult, error)

	// VerifyLockup checks that a mandatory lockup is present and legible.
	VerifyLockup(ctx context.Context, img Image, kind LockupKind) (LockupResult, error)

	// AnalyzePackshots counts product shots and checks for a lead packshot.
	AnalyzePackshots(ctx context.Context, img Image) (PackshotResult, error)

	// CheckEntailment decides whether premise entails hypothesis.
	CheckEntailment(ctx context.Context, premise, hypothesis string) (EntailmentResult, error)
}

// Provider is a named Capabilities implementation that can take part in a Chain.
// Operations a provider cannot perform return ErrUnsupported.
type Provider interface {
	Capabilities

	// Name identifies the provider in logs and metrics.
	Name() string
}

// Operation names used in logs, metrics and cache keys.
const (
	OpDetectPeople     = "detect_people"
	OpVerifyLockup     = "verify_lockup"
	OpAnalyzePackshots = "analyze_packshots"
	OpCheckEntailment  = "check_entailment"
)

// Image is an encoded raster ready for upload.
type Image struct {
	Data     []byte
	MIMEType string
}

// LockupKind names a mandatory lockup.
type LockupKind string

const (
	LockupDrinkaware LockupKind = "drinkaware"
)

// PeopleResult is the outcome of DetectPeople.
type PeopleResult struct {
	Detected   bool    `json:"detected"`
	Count      int     `json:"count"`
	Confidence float64 `json:"confidence"`
}

// LockupResult is the outcome of VerifyLockup.
type LockupResult struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues,omitempty"`
}

// PackshotResult is the outcome of AnalyzePackshots.
type PackshotResult struct {
	Count   int      `json:"count"`
	HasLead bool     `json:"hasLead"`
	Issues  []string `json:"issues,omitempty"`
}

// EntailmentResult is the outcome of CheckEntailment.
type EntailmentResult struct {
	Entails    bool    `json:"entails"`
	Confidence float64 `json:"confidence"`
}

// Observer receives capability call telemetry. Implemented by the metrics package.
type Observer interface {
	ObserveCapabilityCall(provider, operation string, success bool, seconds float64)
	ObserveCacheLookup(operation string, hit bool)
}

// Disabled is the empty capability set: every call fails with ErrUnavailable.
var Disabled Capabilities = disabled{}

type disabled struct{}

func (disabled) DetectPeople(context.Context, Image) (PeopleResult, error) {
	return PeopleResult{}, ErrUnavailable
}

func (disabled) VerifyLockup(context.Context, Image, LockupKind) (LockupResult, error) {
	return LockupResult{}, ErrUnavailable
}

func (disabled) AnalyzePackshots(context.Context, Image) (PackshotResult, error) {
	return PackshotResult{}, ErrUnavailable
}

func (disabled) CheckEntailment(context.Context, string, string) (EntailmentResult, error) {
	return EntailmentResult{}, ErrUnavailable
}
