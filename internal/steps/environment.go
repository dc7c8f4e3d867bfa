// SPDX-License-Identifier: AGPL-3.0-or-later

package steps

import (
	"context"
	"errors"

	"github.com/bartekus/vetgate/internal/config"
	"github.com/bartekus/vetgate/internal/finding"
	"github.com/bartekus/vetgate/internal/runner"
)

var errNoEnvironment = errors.New("environment manager not configured")

type ensureEnvironment struct{ base }

func newEnsureEnvironment() runner.Step {
	return &ensureEnvironment{base{name: config.StepEnsureEnvironment}}
}

func (s *ensureEnvironment) Run(ctx context.Context, st *runner.State) (runner.Outcome, error) {
	if st.Env == nil {
		return runner.Outcome{}, errNoEnvironment
	}
	rep, err := st.Env.Ensure(ctx)
	if isToolNotFound(err) {
		return runner.Skipped(err.Error()), nil
	}
	if err != nil {
		return runner.Outcome{Details: rep}, err
	}
	if len(rep.Warnings) > 0 {
		return runner.Warning(rep), nil
	}
	return runner.Success(rep), nil
}

type installDependencies struct{ base }

func newInstallDependencies() runner.Step {
	return &installDependencies{base{name: config.StepInstallDependencies}}
}

func (s *installDependencies) Run(ctx context.Context, st *runner.State) (runner.Outcome, error) {
	if st.Env == nil {
		return runner.Outcome{}, errNoEnvironment
	}
	rep, err := st.Env.InstallDependencies(ctx)
	if isToolNotFound(err) {
		return runner.Skipped(err.Error()), nil
	}
	if err != nil {
		return runner.Outcome{Details: rep}, err
	}
	if rep.Manifest == "" {
		return runner.Success(map[string]any{"manifest": nil, "reason": "no dependency manifest"}), nil
	}
	details := map[string]any{"manifest": rep.Manifest, "files": rep.Files}
	if rep.Result != nil {
		details["duration_ms"] = rep.Result.DurationMS
	}
	return runner.Success(details), nil
}

type auditDependencies struct{ base }

func newAuditDependencies() runner.Step {
	return &auditDependencies{base{name: config.StepAuditDependencies}}
}

// Run classifies scanner findings against the policy threshold.
func (s *auditDependencies) Run(ctx context.Context, st *runner.State) (runner.Outcome, error) {
	if st.Env == nil {
		return runner.Outcome{}, errNoEnvironment
	}
	threshold := st.Policy.Audit.FailThreshold
	rep, err := st.Env.AuditDependencies(ctx)
	if err != nil {
		return runner.Outcome{}, err
	}
	summary := &runner.AuditSummary{
		Ran:          rep.Ran,
		Dependencies: rep.Dependencies,
		Threshold:    threshold,
		Counts:       finding.CountBySeverity(rep.Findings),
		Findings:     finding.SortBySeverity(rep.Findings),
	}
	st.Record.AuditSummary = summary
	if !rep.Ran {
		return runner.Skipped("audit tool not available"), nil
	}

	details := map[string]any{
		"dependencies": rep.Dependencies,
		"findings":     len(rep.Findings),
		"threshold":    threshold,
		"counts":       summary.Counts,
	}
	if highest, ok := finding.Highest(rep.Findings); ok {
		details["highest"] = highest
	}
	return runner.Outcome{Status: runner.AuditStatus(rep.Findings, threshold), Details: details}, nil
}
