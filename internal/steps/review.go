// SPDX-License-Identifier: AGPL-3.0-or-later

package steps

import (
	"context"
	"fmt"
	"os"

	"github.com/bartekus/vetgate/internal/config"
	"github.com/bartekus/vetgate/internal/finding"
	"github.com/bartekus/vetgate/internal/runner"
)

type reviewCode struct{ base }

func newReviewCode() runner.Step {
	return &reviewCode{base{name: config.StepReviewCode}}
}

// Run asks for an advisory review. The result never gates the run: a
// completed review is ADVISORY, a failed service call is a WARNING.
func (s *reviewCode) Run(ctx context.Context, st *runner.State) (runner.Outcome, error) {
	target := targetPath(st)
	if !fileExists(target) {
		return runner.Skipped("target file does not exist"), nil
	}
	if st.Completion == nil {
		return runner.Warning(map[string]any{"error": "completion client not configured"}), nil
	}
	src, err := os.ReadFile(target)
	if err != nil {
		return runner.Warning(map[string]any{"error": fmt.Sprintf("reading target: %v", err)}), nil
	}

	rev, err := st.Completion.GenerateReview(ctx, string(src), st.ModuleName())
	if err != nil {
		return runner.Warning(map[string]any{"error": err.Error(), "warnings": rev.Warnings}), nil
	}
	findings := finding.SortBySeverity(rev.Findings)
	counts := finding.CountBySeverity(findings)
	st.Record.ReviewSummary = &runner.ReviewSummary{
		Counts:   counts,
		Findings: findings,
		Warnings: rev.Warnings,
	}
	return runner.Advisory(map[string]any{
		"findings": len(findings),
		"counts":   counts,
		"warnings": rev.Warnings,
	}), nil
}
