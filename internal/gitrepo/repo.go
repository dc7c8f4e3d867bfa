// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gitrepo wraps the version-control commands the commit step needs.
package gitrepo

import (
	"context"
	"fmt"
	"strings"

	"github.com/bartekus/vetgate/internal/config"
	"github.com/bartekus/vetgate/internal/toolrunner"
)

// CommandError is a git invocation that exited non-zero or timed out.
type CommandError struct {
	Args     []string
	ExitCode int
	TimedOut bool
	Output   string
}

func (e *CommandError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("git %s: timed out", strings.Join(e.Args, " "))
	}
	return fmt.Sprintf("git %s: exit %d: %s", strings.Join(e.Args, " "), e.ExitCode, e.Output)
}

// Repo runs git inside one working tree.
type Repo struct {
	root  string
	vcs   config.ToolSpec
	tools *toolrunner.Runner
}

// New returns a Repo rooted at root. vcs names the git executable and any
// leading arguments.
func New(root string, vcs config.ToolSpec, tools *toolrunner.Runner) *Repo {
	if vcs.Command == "" {
		vcs.Command = "git"
	}
	return &Repo{root: root, vcs: vcs, tools: tools}
}

func (r *Repo) run(ctx context.Context, args ...string) (toolrunner.Result, error) {
	argv := append([]string{r.vcs.Command}, r.vcs.Args...)
	argv = append(argv, args...)
	return r.tools.Run(ctx, toolrunner.Invocation{
		Argv: argv,
		Dir:  r.root,
		Env:  map[string]string{"GIT_TERMINAL_PROMPT": "0"},
	})
}

// git runs a command that must exit zero and returns its stdout.
func (r *Repo) git(ctx context.Context, args ...string) (string, error) {
	res, err := r.run(ctx, args...)
	if err != nil {
		return "", err
	}
	if res.TimedOut || res.ExitCode != 0 {
		return "", &CommandError{Args: args, ExitCode: res.ExitCode, TimedOut: res.TimedOut, Output: res.Tail(20)}
	}
	return res.Stdout, nil
}

// IsRepo reports whether the root is inside a git working tree.
func (r *Repo) IsRepo(ctx context.Context) (bool, error) {
	res, err := r.run(ctx, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		return false, err
	}
	return res.ExitCode == 0 && strings.TrimSpace(res.Stdout) == "true", nil
}

// Add stages the given paths, relative to the root.
func (r *Repo) Add(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	_, err := r.git(ctx, append([]string{"add", "--"}, paths...)...)
	return err
}

// HasStaged reports whether the index differs from HEAD, limited to paths
// when any are given.
func (r *Repo) HasStaged(ctx context.Context, paths ...string) (bool, error) {
	args := withPaths([]string{"diff", "--cached", "--quiet"}, paths)
	res, err := r.run(ctx, args...)
	if err != nil {
		return false, err
	}
	switch {
	case res.TimedOut:
		return false, &CommandError{Args: args, TimedOut: true}
	case res.ExitCode == 0:
		return false, nil
	case res.ExitCode == 1:
		return true, nil
	default:
		return false, &CommandError{Args: args, ExitCode: res.ExitCode, Output: res.Tail(20)}
	}
}

// StagedFiles lists the staged paths, limited to paths when any are given.
func (r *Repo) StagedFiles(ctx context.Context, paths ...string) ([]string, error) {
	// -z avoids quoting of unusual file names.
	out, err := r.git(ctx, withPaths([]string{"diff", "--cached", "--name-only", "-z"}, paths)...)
	if err != nil {
		return nil, err
	}
	out = strings.TrimSuffix(out, "\x00")
	if out == "" {
		return []string{}, nil
	}
	return strings.Split(out, "\x00"), nil
}

// Commit records message. With paths only those paths are committed and
// anything else in the index stays staged.
func (r *Repo) Commit(ctx context.Context, message string, paths ...string) error {
	_, err := r.git(ctx, withPaths([]string{"commit", "--no-verify", "-m", message}, paths)...)
	return err
}

func withPaths(args, paths []string) []string {
	if len(paths) == 0 {
		return args
	}
	return append(append(args, "--"), paths...)
}

// Head returns the full revision id of HEAD.
func (r *Repo) Head(ctx context.Context) (string, error) {
	out, err := r.git(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
