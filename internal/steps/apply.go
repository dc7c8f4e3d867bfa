// SPDX-License-Identifier: AGPL-3.0-or-later

package steps

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/bartekus/vetgate/internal/config"
	"github.com/bartekus/vetgate/internal/projection"
	"github.com/bartekus/vetgate/internal/runner"
)

type applyCode struct{ base }

func newApplyCode() runner.Step {
	return &applyCode{base{name: config.StepApplyCode}}
}

// Run replaces the target with the candidate content, keeping the target's
// file mode when it already exists.
func (s *applyCode) Run(ctx context.Context, st *runner.State) (runner.Outcome, error) {
	content, err := os.ReadFile(st.Inputs.CandidatePath)
	if err != nil {
		return runner.Outcome{}, fmt.Errorf("reading candidate: %w", err)
	}
	target := targetPath(st)

	details := map[string]any{
		"target_path": target,
		"bytes":       len(content),
		"sha256":      digest(content),
		"created":     true,
	}
	perm := os.FileMode(0o644)
	if info, err := os.Stat(target); err == nil {
		perm = info.Mode().Perm()
		details["created"] = false
		if previous, err := os.ReadFile(target); err == nil {
			details["previous_sha256"] = digest(previous)
		}
	}

	if err := projection.AtomicWrite(target, content, perm); err != nil {
		return runner.Outcome{Details: details}, fmt.Errorf("writing target: %w", err)
	}
	st.TargetPath = target
	st.Applied = true
	return runner.Success(details), nil
}

func digest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
