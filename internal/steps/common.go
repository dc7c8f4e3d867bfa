// SPDX-License-Identifier: AGPL-3.0-or-later

// Package steps holds the pipeline stages and the registry that names them.
package steps

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/bartekus/vetgate/internal/runner"
	"github.com/bartekus/vetgate/internal/toolrunner"
)

// outputTailLines is how much tool output a step keeps in its details.
const outputTailLines = 20

// base carries the fixed identity of a step.
type base struct {
	name string
	gate runner.Gate
}

func (b base) Name() string      { return b.name }
func (b base) Gate() runner.Gate { return b.gate }

// targetPath is the absolute path of the file under validation.
func targetPath(st *runner.State) string {
	if st.TargetPath != "" {
		return st.TargetPath
	}
	return filepath.Join(st.Inputs.Root, filepath.FromSlash(st.Inputs.TargetFile))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// envRoot is the environment directory when it exists, else "".
func envRoot(st *runner.State) string {
	if st.Env != nil && st.Env.Exists() {
		return st.Env.Dir()
	}
	return ""
}

// runTool invokes a configured tool category inside the project root with
// extra trailing arguments.
func runTool(ctx context.Context, st *runner.State, category string, extra ...string) (toolrunner.Result, error) {
	spec := st.Policy.Tool(category)
	argv := append([]string{spec.Command}, spec.Args...)
	argv = append(argv, extra...)
	return st.Tools.Run(ctx, toolrunner.Invocation{
		Argv:    argv,
		Dir:     st.Inputs.Root,
		EnvRoot: envRoot(st),
		Timeout: st.Policy.ToolTimeout(),
	})
}

func toolDetails(res toolrunner.Result) map[string]any {
	return map[string]any{
		"command":     res.Command,
		"exit_code":   res.ExitCode,
		"timed_out":   res.TimedOut,
		"duration_ms": res.DurationMS,
		"output":      res.Tail(outputTailLines),
	}
}

func isToolNotFound(err error) bool {
	return errors.Is(err, toolrunner.ErrToolNotFound)
}

func failDetails(msg string) runner.Outcome {
	return runner.Failure(map[string]any{"error": msg})
}
