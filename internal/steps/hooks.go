// SPDX-License-Identifier: AGPL-3.0-or-later

package steps

import (
	"context"
	"path/filepath"

	"github.com/bartekus/vetgate/internal/config"
	"github.com/bartekus/vetgate/internal/runner"
)

const preCommitConfig = ".pre-commit-config.yaml"

type preSubmitHooks struct{ base }

func newPreSubmitHooks() runner.Step {
	return &preSubmitHooks{base{name: config.StepPreSubmitHooks}}
}

// Run executes the project's pre-submit hooks on the changed files. Any
// non-zero exit is a FAILURE.
func (s *preSubmitHooks) Run(ctx context.Context, st *runner.State) (runner.Outcome, error) {
	spec := st.Policy.Tool(config.ToolHooks)
	if filepath.Base(spec.Command) == "pre-commit" && !fileExists(filepath.Join(st.Inputs.Root, preCommitConfig)) {
		return runner.Skipped("no " + preCommitConfig + " in project"), nil
	}

	files := []string{filepath.ToSlash(st.Inputs.TargetFile)}
	if st.TestPath != "" {
		files = append(files, st.TestPath)
	}
	res, err := runTool(ctx, st, config.ToolHooks, files...)
	if isToolNotFound(err) {
		return runner.Skipped(err.Error()), nil
	}
	if err != nil {
		return runner.Outcome{}, err
	}

	details := toolDetails(res)
	switch {
	case res.TimedOut:
		details["error"] = "hooks timed out"
		return runner.Failure(details), nil
	case res.ExitCode != 0:
		return runner.Failure(details), nil
	}
	return runner.Success(details), nil
}
