// SPDX-License-Identifier: AGPL-3.0-or-later

package toolrunner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// DefaultTimeout applies when neither the invocation nor the runner sets one.
const DefaultTimeout = 5 * time.Minute

// Invocation describes one child process.
type Invocation struct {
	Argv    []string
	Dir     string
	EnvRoot string
	Env     map[string]string
	Timeout time.Duration
}

// Result is the outcome of one invocation. A non-zero exit code is data, not
// an error: its meaning depends on the tool.
type Result struct {
	Command    []string `json:"command"`
	ExitCode   int      `json:"exit_code"`
	Stdout     string   `json:"stdout"`
	Stderr     string   `json:"stderr"`
	TimedOut   bool     `json:"timed_out"`
	DurationMS int64    `json:"duration_ms"`
}

// Tail returns the last n lines of combined output, marking truncation.
func (r Result) Tail(n int) string {
	output := strings.TrimSpace(strings.TrimSpace(r.Stdout) + "\n" + strings.TrimSpace(r.Stderr))
	lines := strings.Split(output, "\n")
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
		return "...(truncated)...\n" + strings.Join(lines, "\n")
	}
	return output
}

// Runner executes external tools with bounded timeouts.
type Runner struct {
	resolver       *Resolver
	defaultTimeout time.Duration
	log            *slog.Logger
}

// New creates a runner. defaultTimeout <= 0 selects DefaultTimeout.
func New(resolver *Resolver, defaultTimeout time.Duration, log *slog.Logger) *Runner {
	if defaultTimeout <= 0 {
		defaultTimeout = DefaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Runner{resolver: resolver, defaultTimeout: defaultTimeout, log: log}
}

// Resolve exposes the runner's resolver.
func (r *Runner) Resolve(name, envRoot string) (string, error) {
	return r.resolver.Resolve(name, envRoot)
}

// Run resolves inv.Argv[0] and executes it. It returns an error only when the
// tool cannot be resolved or started, or when ctx itself is cancelled. A
// timeout yields a Result with TimedOut set.
func (r *Runner) Run(ctx context.Context, inv Invocation) (Result, error) {
	if len(inv.Argv) == 0 {
		return Result{}, errors.New("empty command")
	}
	path, err := r.resolver.Resolve(inv.Argv[0], inv.EnvRoot)
	if err != nil {
		return Result{}, err
	}

	timeout := inv.Timeout
	if timeout <= 0 {
		timeout = r.defaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, path, inv.Argv[1:]...)
	cmd.Dir = inv.Dir
	cmd.Env = buildEnv(os.Environ(), inv.EnvRoot, inv.Env)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	configureCommandProcess(cmd)
	cmd.Cancel = func() error {
		terminateCommandProcess(cmd)
		return nil
	}
	cmd.WaitDelay = 2 * time.Second

	res := Result{Command: append([]string{path}, inv.Argv[1:]...)}
	r.log.Debug("running tool", "command", strings.Join(res.Command, " "), "dir", inv.Dir, "timeout", timeout)

	start := time.Now()
	runErr := cmd.Run()
	res.DurationMS = time.Since(start).Milliseconds()
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()

	if ctx.Err() != nil {
		return res, ctx.Err()
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		res.TimedOut = true
		res.ExitCode = -1
		r.log.Warn("tool timed out", "command", res.Command[0], "timeout", timeout)
		return res, nil
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, fmt.Errorf("starting %s: %w", path, runErr)
	}
	return res, nil
}

// buildEnv prepends the environment's bin dir to PATH, sets VIRTUAL_ENV and
// applies extra variables last.
func buildEnv(base []string, envRoot string, extra map[string]string) []string {
	env := make([]string, 0, len(base)+len(extra)+2)
	set := map[string]string{}
	if envRoot != "" {
		set["VIRTUAL_ENV"] = envRoot
		set["PATH"] = BinDir(envRoot) + string(os.PathListSeparator) + lookup(base, "PATH")
	}
	for k, v := range extra {
		set[k] = v
	}

	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, overridden := findKey(set, key); overridden {
			continue
		}
		env = append(env, kv)
	}
	for k, v := range set {
		env = append(env, k+"="+v)
	}
	return env
}

func lookup(env []string, key string) string {
	for _, kv := range env {
		k, v, _ := strings.Cut(kv, "=")
		if sameKey(k, key) {
			return v
		}
	}
	return ""
}

func findKey(set map[string]string, key string) (string, bool) {
	for k := range set {
		if sameKey(k, key) {
			return k, true
		}
	}
	return "", false
}

func sameKey(a, b string) bool {
	if runtime.GOOS == "windows" {
		return strings.EqualFold(a, b)
	}
	return a == b
}
