// SPDX-License-Identifier: AGPL-3.0-or-later

package steps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bartekus/vetgate/internal/config"
	"github.com/bartekus/vetgate/internal/runner"
)

type validateInputs struct{ base }

func newValidateInputs() runner.Step {
	return &validateInputs{base{name: config.StepValidateInputs}}
}

// Run checks that the root is an allowed directory, the target stays inside
// it and the candidate is a readable file.
func (s *validateInputs) Run(ctx context.Context, st *runner.State) (runner.Outcome, error) {
	root := filepath.Clean(st.Inputs.Root)
	info, err := os.Stat(root)
	if err != nil {
		return failDetails(fmt.Sprintf("project root: %v", err)), nil
	}
	if !info.IsDir() {
		return failDetails(fmt.Sprintf("project root %s is not a directory", root)), nil
	}
	realRoot := resolveLinks(root)

	if roots := st.Policy.AllowedRoots; len(roots) > 0 {
		allowed := false
		for _, allowedRoot := range roots {
			if within(resolveLinks(allowedRoot), realRoot) {
				allowed = true
				break
			}
		}
		if !allowed {
			return failDetails(fmt.Sprintf("project root %s is outside the allowed roots", root)), nil
		}
	}

	rel := filepath.Clean(filepath.FromSlash(st.Inputs.TargetFile))
	if filepath.IsAbs(rel) || rel == "." {
		return failDetails(fmt.Sprintf("target %q must be a file path relative to the root", st.Inputs.TargetFile)), nil
	}
	target := filepath.Join(root, rel)
	// Resolve the deepest existing ancestor so symlinked directories cannot
	// lead outside the root.
	if !within(root, target) || !within(realRoot, resolveLinks(target)) {
		return failDetails(fmt.Sprintf("target %q escapes the project root", st.Inputs.TargetFile)), nil
	}
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		return failDetails(fmt.Sprintf("target %q is a directory", st.Inputs.TargetFile)), nil
	}

	cand, err := os.Stat(st.Inputs.CandidatePath)
	if err != nil {
		return failDetails(fmt.Sprintf("candidate: %v", err)), nil
	}
	if !cand.Mode().IsRegular() {
		return failDetails(fmt.Sprintf("candidate %s is not a regular file", st.Inputs.CandidatePath)), nil
	}

	st.TargetPath = target
	return runner.Success(map[string]any{
		"root":            root,
		"target_path":     target,
		"target_exists":   fileExists(target),
		"candidate_bytes": cand.Size(),
	}), nil
}

// within reports whether path equals base or lies below it.
func within(base, path string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// resolveLinks evaluates symlinks on the longest existing prefix of path.
func resolveLinks(path string) string {
	path = filepath.Clean(path)
	var rest []string
	for cur := path; ; {
		if real, err := filepath.EvalSymlinks(cur); err == nil {
			return filepath.Join(append([]string{real}, rest...)...)
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return path
		}
		rest = append([]string{filepath.Base(cur)}, rest...)
		cur = parent
	}
}
