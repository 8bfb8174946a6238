package engine

// Evaluation outcomes reported to the Observer.
const (
	OutcomeExportable = "exportable"
	OutcomeBlocked    = "blocked"
	OutcomeTimeout    = "timeout"
	OutcomeError      = "error"
	OutcomeBusy       = "busy"
)

// Observer receives evaluation telemetry. Implemented by the metrics package.
type Observer interface {
	ObserveEvaluation(mode, outcome string, seconds float64)
	ObservePhase(phase string, seconds float64)
	ObserveFinding(ruleID, findingType string)
}

type nopObserver struct{}

func (nopObserver) ObserveEvaluation(string, string, float64) {}
func (nopObserver) ObservePhase(string, float64)              {}
func (nopObserver) ObserveFinding(string, string)             {}
