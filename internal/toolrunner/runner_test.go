//go:build !windows

package toolrunner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartekus/vetgate/internal/logging"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestResolver_Precedence(t *testing.T) {
	root := t.TempDir()
	overrideDir := filepath.Join(root, "override")
	envRoot := filepath.Join(root, "venv")
	systemDir := filepath.Join(root, "system")

	override := writeScript(t, overrideDir, "ruff", "echo override")
	envTool := writeScript(t, BinDir(envRoot), "ruff", "echo env")
	systemTool := writeScript(t, systemDir, "ruff", "echo system")
	t.Setenv("PATH", systemDir)

	log := logging.Discard()

	got, err := NewResolver(map[string]string{"ruff": override}, log).Resolve("ruff", envRoot)
	require.NoError(t, err)
	assert.Equal(t, override, got)

	got, err = NewResolver(nil, log).Resolve("ruff", envRoot)
	require.NoError(t, err)
	assert.Equal(t, envTool, got)

	got, err = NewResolver(nil, log).Resolve("ruff", "")
	require.NoError(t, err)
	assert.Equal(t, systemTool, got)

	_, err = NewResolver(nil, log).Resolve("mypy", envRoot)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrToolNotFound))
	var nf *ToolNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "mypy", nf.Name)
}

func TestResolver_NonExecutableOverrideFallsThrough(t *testing.T) {
	root := t.TempDir()
	plain := filepath.Join(root, "not-exec")
	require.NoError(t, os.WriteFile(plain, []byte("data"), 0o644))
	envRoot := filepath.Join(root, "venv")
	envTool := writeScript(t, BinDir(envRoot), "mypy", "exit 0")
	t.Setenv("PATH", "")

	got, err := NewResolver(map[string]string{"mypy": plain}, logging.Discard()).Resolve("mypy", envRoot)
	require.NoError(t, err)
	assert.Equal(t, envTool, got)
}

func TestRunner_ExitCodesAreData(t *testing.T) {
	dir := t.TempDir()
	tool := writeScript(t, dir, "lint", `echo "out:$1"; echo "err" >&2; exit 3`)

	r := New(NewResolver(nil, logging.Discard()), time.Minute, logging.Discard())
	res, err := r.Run(context.Background(), Invocation{Argv: []string{tool, "file.py"}, Dir: dir})
	require.NoError(t, err)

	assert.Equal(t, 3, res.ExitCode)
	assert.False(t, res.TimedOut)
	assert.Equal(t, "out:file.py\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
	assert.Equal(t, tool, res.Command[0])
}

func TestRunner_TimeoutIsReported(t *testing.T) {
	dir := t.TempDir()
	tool := writeScript(t, dir, "slow", "sleep 5")

	r := New(NewResolver(nil, logging.Discard()), time.Minute, logging.Discard())
	start := time.Now()
	res, err := r.Run(context.Background(), Invocation{Argv: []string{tool}, Dir: dir, Timeout: 200 * time.Millisecond})
	require.NoError(t, err)

	assert.True(t, res.TimedOut)
	assert.Equal(t, -1, res.ExitCode)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestRunner_EnvironmentPathAndExtraEnv(t *testing.T) {
	root := t.TempDir()
	envRoot := filepath.Join(root, "venv")
	writeScript(t, BinDir(envRoot), "helper", "echo helper-ran")
	writeScript(t, BinDir(envRoot), "probe", `helper; echo "venv=$VIRTUAL_ENV"; echo "mode=$VETGATE_MODE"`)
	t.Setenv("PATH", "/usr/bin:/bin")

	r := New(NewResolver(nil, logging.Discard()), time.Minute, logging.Discard())
	res, err := r.Run(context.Background(), Invocation{
		Argv:    []string{"probe"},
		Dir:     root,
		EnvRoot: envRoot,
		Env:     map[string]string{"VETGATE_MODE": "test"},
	})
	require.NoError(t, err)
	require.Equal(t, 0, res.ExitCode, res.Stderr)

	assert.Contains(t, res.Stdout, "helper-ran")
	assert.Contains(t, res.Stdout, "venv="+envRoot)
	assert.Contains(t, res.Stdout, "mode=test")
}

func TestRunner_MissingTool(t *testing.T) {
	t.Setenv("PATH", "")
	r := New(NewResolver(nil, logging.Discard()), time.Minute, logging.Discard())
	_, err := r.Run(context.Background(), Invocation{Argv: []string{"definitely-not-installed"}})
	assert.ErrorIs(t, err, ErrToolNotFound)
}

func TestResult_Tail(t *testing.T) {
	var lines []string
	for i := 0; i < 30; i++ {
		lines = append(lines, "line")
	}
	res := Result{Stdout: strings.Join(lines, "\n")}
	tail := res.Tail(20)
	assert.True(t, strings.HasPrefix(tail, "...(truncated)..."))
	assert.Len(t, strings.Split(tail, "\n"), 21)

	assert.Equal(t, "a\nb", Result{Stdout: "a\n", Stderr: "b\n"}.Tail(20))
}
