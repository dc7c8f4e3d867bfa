package runner

import "context"

// Gate names the policy flag that may promote a step's WARNING to FAILURE.
type Gate string

const (
	GateNone      Gate = ""
	GateLint      Gate = "lint"
	GateTypecheck Gate = "typecheck"
	GateTest      Gate = "test"
)

// Outcome is what a step reports back to the orchestrator.
type Outcome struct {
	Status  Status
	Details any
	// Pinned outcomes are recorded as-is and never promoted.
	Pinned bool
}

// Step defines one named pipeline stage.
type Step interface {
	// Name returns the unique step name (e.g. "lint_code").
	Name() string

	// Gate returns the promotion gate that applies to the step's warnings.
	Gate() Gate

	// Run executes the step against the shared run state. A returned error
	// is recorded as FAILURE by the orchestrator.
	Run(ctx context.Context, st *State) (Outcome, error)
}

// Result helpers used by step implementations.

func Success(details any) Outcome  { return Outcome{Status: StatusSuccess, Details: details} }
func Warning(details any) Outcome  { return Outcome{Status: StatusWarning, Details: details} }
func Failure(details any) Outcome  { return Outcome{Status: StatusFailure, Details: details} }
func Advisory(details any) Outcome { return Outcome{Status: StatusAdvisory, Details: details} }

// Skipped reports a step that had nothing to do.
func Skipped(reason string) Outcome {
	return Outcome{Status: StatusSkipped, Details: map[string]any{"reason": reason}}
}
