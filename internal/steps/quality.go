// SPDX-License-Identifier: AGPL-3.0-or-later

package steps

import (
	"context"
	"path/filepath"

	"github.com/bartekus/vetgate/internal/config"
	"github.com/bartekus/vetgate/internal/runner"
)

// toolStep runs one quality tool against the target file. Exit 0 is
// SUCCESS, 1 means the tool reported issues (WARNING, subject to the step's
// gate), anything else or a timeout is FAILURE.
type toolStep struct {
	base
	category string
}

func newFormatCode() runner.Step {
	return &toolStep{base: base{name: config.StepFormatCode}, category: config.ToolFormat}
}

func newLintCode() runner.Step {
	return &toolStep{base: base{name: config.StepLintCode, gate: runner.GateLint}, category: config.ToolLint}
}

func newTypeCheck() runner.Step {
	return &toolStep{base: base{name: config.StepTypeCheck, gate: runner.GateTypecheck}, category: config.ToolTypecheck}
}

func (s *toolStep) Run(ctx context.Context, st *runner.State) (runner.Outcome, error) {
	target := targetPath(st)
	if !fileExists(target) {
		return runner.Skipped("target file does not exist"), nil
	}
	res, err := runTool(ctx, st, s.category, filepath.ToSlash(st.Inputs.TargetFile))
	if isToolNotFound(err) {
		return runner.Skipped(err.Error()), nil
	}
	if err != nil {
		return runner.Outcome{}, err
	}

	details := toolDetails(res)
	switch {
	case res.TimedOut:
		details["error"] = "tool timed out"
		return runner.Failure(details), nil
	case res.ExitCode == 0:
		return runner.Success(details), nil
	case res.ExitCode == 1:
		return runner.Warning(details), nil
	default:
		return runner.Failure(details), nil
	}
}
