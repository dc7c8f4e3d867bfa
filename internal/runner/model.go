package runner

import (
	"time"

	"github.com/bartekus/vetgate/internal/finding"
)

// Status is the outcome of a single step.
type Status string

const (
	StatusSuccess  Status = "SUCCESS"
	StatusWarning  Status = "WARNING"
	StatusFailure  Status = "FAILURE"
	StatusSkipped  Status = "SKIPPED"
	StatusAdvisory Status = "ADVISORY"
)

// Valid reports whether s is one of the five known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusSuccess, StatusWarning, StatusFailure, StatusSkipped, StatusAdvisory:
		return true
	}
	return false
}

// StepResult is the record of one executed (or skipped) step.
// It is appended to the RunRecord once and never modified.
type StepResult struct {
	Name       string    `json:"name"`
	Status     Status    `json:"status"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	DurationMS int64     `json:"duration_ms"`
	Details    any       `json:"details"`
	Error      string    `json:"error,omitempty"`
}

// CommitOutcome records whether a commit was attempted and what it produced.
type CommitOutcome struct {
	Attempted bool    `json:"attempted"`
	Revision  *string `json:"revision"`
}

// AuditSummary is the top-level digest of the dependency audit.
type AuditSummary struct {
	Ran          bool                     `json:"ran"`
	Dependencies int                      `json:"dependencies"`
	Threshold    finding.Severity         `json:"threshold"`
	Counts       map[finding.Severity]int `json:"counts"`
	Findings     []finding.Finding        `json:"findings"`
}

// ReviewSummary is the top-level digest of the advisory review.
type ReviewSummary struct {
	Counts   map[finding.Severity]int `json:"counts"`
	Findings []finding.Finding        `json:"findings"`
	Warnings []string                 `json:"warnings,omitempty"`
}

// TestSummary is the top-level digest of the generated test run.
type TestSummary struct {
	TestFile         string `json:"test_file"`
	ExitCode         int    `json:"exit_code"`
	Passed           int    `json:"passed"`
	Failed           int    `json:"failed"`
	Errors           int    `json:"errors"`
	Skipped          int    `json:"skipped"`
	NoTestsCollected bool   `json:"no_tests_collected"`
}

// RunRecord is the complete result of one pipeline invocation.
type RunRecord struct {
	RunID         string         `json:"run_id"`
	StartTime     time.Time      `json:"start_time"`
	EndTime       time.Time      `json:"end_time"`
	TargetRoot    string         `json:"target_root"`
	TargetFile    string         `json:"target_file"`
	CandidatePath string         `json:"candidate_path"`
	Commit        CommitOutcome  `json:"commit"`
	Steps         []StepResult   `json:"steps"`
	AuditSummary  *AuditSummary  `json:"audit_summary,omitempty"`
	ReviewSummary *ReviewSummary `json:"review_summary,omitempty"`
	TestSummary   *TestSummary   `json:"test_summary,omitempty"`
	OverallStatus Status         `json:"overall_status"`
}

// NewRecord starts a record for the given invocation.
func NewRecord(runID string, in Inputs, start time.Time) *RunRecord {
	return &RunRecord{
		RunID:         runID,
		StartTime:     start,
		TargetRoot:    in.Root,
		TargetFile:    in.TargetFile,
		CandidatePath: in.CandidatePath,
		Steps:         []StepResult{},
		OverallStatus: StatusSuccess,
	}
}

// Overall is FAILURE iff any step failed, SUCCESS otherwise.
func (r *RunRecord) Overall() Status {
	for _, s := range r.Steps {
		if s.Status == StatusFailure {
			return StatusFailure
		}
	}
	return StatusSuccess
}

// Step returns the result recorded for name, if any.
func (r *RunRecord) Step(name string) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return StepResult{}, false
}

// StepNames lists recorded steps in execution order.
func (r *RunRecord) StepNames() []string {
	names := make([]string, len(r.Steps))
	for i, s := range r.Steps {
		names[i] = s.Name
	}
	return names
}

// Snapshot returns a copy whose step list can be extended without touching r.
func (r *RunRecord) Snapshot() *RunRecord {
	c := *r
	c.Steps = append([]StepResult(nil), r.Steps...)
	return &c
}

func (r *RunRecord) append(res StepResult) {
	r.Steps = append(r.Steps, res)
	r.OverallStatus = r.Overall()
}
