// SPDX-License-Identifier: AGPL-3.0-or-later

package toolrunner

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrToolNotFound matches every ToolNotFoundError via errors.Is.
var ErrToolNotFound = errors.New("tool not found")

// ToolNotFoundError names the executable that could not be resolved.
type ToolNotFoundError struct {
	Name     string
	Searched []string
}

func (e *ToolNotFoundError) Error() string {
	if len(e.Searched) == 0 {
		return fmt.Sprintf("tool %q not found", e.Name)
	}
	return fmt.Sprintf("tool %q not found (searched %s and PATH)", e.Name, strings.Join(e.Searched, ", "))
}

func (e *ToolNotFoundError) Is(target error) bool { return target == ErrToolNotFound }

// Resolver maps tool names to executables. Precedence: override, isolated
// environment, system PATH.
type Resolver struct {
	overrides map[string]string
	lookPath  func(string) (string, error)
	log       *slog.Logger
}

// NewResolver creates a resolver with the given name -> path overrides.
func NewResolver(overrides map[string]string, log *slog.Logger) *Resolver {
	cp := make(map[string]string, len(overrides))
	for k, v := range overrides {
		cp[k] = v
	}
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{overrides: cp, lookPath: exec.LookPath, log: log}
}

// Resolve returns the absolute path of the executable for name. envRoot may
// be empty when no isolated environment is in play.
func (r *Resolver) Resolve(name, envRoot string) (string, error) {
	if name == "" {
		return "", &ToolNotFoundError{Name: name}
	}

	// Explicit paths bypass the search entirely.
	if strings.ContainsRune(name, filepath.Separator) || strings.ContainsRune(name, '/') {
		if isExecutable(name) {
			return filepath.Abs(name)
		}
		return "", &ToolNotFoundError{Name: name}
	}

	var searched []string
	if override, ok := r.overrides[name]; ok && override != "" {
		if isExecutable(override) {
			return override, nil
		}
		r.log.Warn("ignoring tool override that is not an executable file", "tool", name, "path", override)
		searched = append(searched, override)
	}

	if envRoot != "" {
		for _, candidate := range envCandidates(envRoot, name) {
			if isExecutable(candidate) {
				return candidate, nil
			}
			searched = append(searched, candidate)
		}
	}

	if path, err := r.lookPath(name); err == nil {
		if abs, err := filepath.Abs(path); err == nil {
			return abs, nil
		}
		return path, nil
	}

	return "", &ToolNotFoundError{Name: name, Searched: searched}
}

// BinDir is the directory of an isolated environment that holds its executables.
func BinDir(envRoot string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(envRoot, "Scripts")
	}
	return filepath.Join(envRoot, "bin")
}

func envCandidates(envRoot, name string) []string {
	dir := BinDir(envRoot)
	if runtime.GOOS != "windows" {
		return []string{filepath.Join(dir, name)}
	}
	return []string{
		filepath.Join(dir, name+".exe"),
		filepath.Join(dir, name+".cmd"),
		filepath.Join(dir, name+".bat"),
		filepath.Join(dir, name),
	}
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
