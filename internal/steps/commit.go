// SPDX-License-Identifier: AGPL-3.0-or-later

package steps

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"text/template"

	"github.com/bartekus/vetgate/internal/config"
	"github.com/bartekus/vetgate/internal/runner"
)

type commitChanges struct{ base }

func newCommitChanges() runner.Step {
	return &commitChanges{base{name: config.StepCommitChanges}}
}

type commitData struct {
	TargetFile string
	ModuleName string
	RunID      string
}

// Run stages the target (and any saved tests) and commits those paths only
// when they changed. Other staged files are left alone. The resulting
// revision is recorded on the run.
func (s *commitChanges) Run(ctx context.Context, st *runner.State) (runner.Outcome, error) {
	if !st.Inputs.Commit {
		return runner.Skipped("commit not requested"), nil
	}
	st.Record.Commit.Attempted = true
	if st.Git == nil {
		return runner.Outcome{}, errors.New("version control not configured")
	}

	ok, err := st.Git.IsRepo(ctx)
	if err != nil {
		return runner.Outcome{}, err
	}
	if !ok {
		return failDetails(fmt.Sprintf("%s is not a git working tree", st.Inputs.Root)), nil
	}

	paths := []string{st.Inputs.TargetFile}
	if st.TestPath != "" {
		paths = append(paths, st.TestPath)
	}
	if err := st.Git.Add(ctx, paths...); err != nil {
		return runner.Outcome{}, err
	}
	staged, err := st.Git.HasStaged(ctx, paths...)
	if err != nil {
		return runner.Outcome{}, err
	}
	if !staged {
		return runner.Success(map[string]any{"committed": false, "reason": "nothing staged"}), nil
	}
	files, err := st.Git.StagedFiles(ctx, paths...)
	if err != nil {
		return runner.Outcome{}, err
	}

	msg, err := renderCommitMessage(st.Policy.CommitMessage, commitData{
		TargetFile: st.Inputs.TargetFile,
		ModuleName: st.ModuleName(),
		RunID:      st.RunID,
	})
	if err != nil {
		return runner.Outcome{}, err
	}
	if err := st.Git.Commit(ctx, msg, paths...); err != nil {
		return runner.Outcome{}, err
	}
	rev, err := st.Git.Head(ctx)
	if err != nil {
		return runner.Outcome{}, err
	}
	st.Record.Commit.Revision = &rev
	return runner.Success(map[string]any{
		"committed": true,
		"revision":  rev,
		"files":     files,
		"message":   msg,
	}), nil
}

func renderCommitMessage(tmpl string, data commitData) (string, error) {
	t, err := template.New("commit_message").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parsing commit message: %w", err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering commit message: %w", err)
	}
	return buf.String(), nil
}
