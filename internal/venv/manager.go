// SPDX-License-Identifier: AGPL-3.0-or-later

package venv

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/bartekus/vetgate/internal/config"
	"github.com/bartekus/vetgate/internal/finding"
	"github.com/bartekus/vetgate/internal/toolrunner"
)

// Options configure a Manager for one project.
type Options struct {
	// Root is the absolute project root.
	Root string
	// Dir is the environment directory, relative to Root unless absolute.
	Dir string
	// Python is the interpreter used to create the environment, e.g. python3.12.
	Python string
	// UpgradeToolchain upgrades pip right after the environment is created.
	UpgradeToolchain bool
	// Audit is the vulnerability scanner invocation.
	Audit config.ToolSpec
	// DefaultSeverity applies to advisories that carry no severity.
	DefaultSeverity finding.Severity
}

// Manager owns the isolated Python environment of a project.
type Manager struct {
	opts  Options
	dir   string
	tools *toolrunner.Runner
	log   *slog.Logger
}

// New creates a manager. Nothing touches the disk until Ensure is called.
func New(opts Options, tools *toolrunner.Runner, log *slog.Logger) *Manager {
	dir := opts.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(opts.Root, dir)
	}
	if opts.DefaultSeverity == "" {
		opts.DefaultSeverity = finding.SeverityModerate
	}
	if log == nil {
		log = slog.Default()
	}
	return &Manager{opts: opts, dir: filepath.Clean(dir), tools: tools, log: log}
}

// Dir is the absolute environment directory.
func (m *Manager) Dir() string { return m.dir }

// Interpreter is the environment's python executable.
func (m *Manager) Interpreter() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(toolrunner.BinDir(m.dir), "python.exe")
	}
	return filepath.Join(toolrunner.BinDir(m.dir), "python")
}

// Exists reports whether the environment has an interpreter.
func (m *Manager) Exists() bool {
	info, err := os.Stat(m.Interpreter())
	return err == nil && !info.IsDir()
}

// EnsureReport describes what Ensure did.
type EnsureReport struct {
	Dir      string   `json:"dir"`
	Created  bool     `json:"created"`
	Upgraded bool     `json:"upgraded"`
	Warnings []string `json:"warnings,omitempty"`
}

// Ensure creates the environment if absent and verifies that python and pip
// work inside it. It is idempotent: an existing environment is only verified.
// A failed toolchain upgrade is reported as a warning.
func (m *Manager) Ensure(ctx context.Context) (EnsureReport, error) {
	rep := EnsureReport{Dir: m.dir}

	if !m.Exists() {
		m.log.Info("creating isolated environment", "dir", m.dir, "python", m.opts.Python)
		res, err := m.tools.Run(ctx, toolrunner.Invocation{
			Argv: []string{m.opts.Python, "-m", "venv", m.dir},
			Dir:  m.opts.Root,
		})
		if err != nil {
			return rep, fmt.Errorf("creating environment: %w", err)
		}
		if err := checkResult("creating environment", res); err != nil {
			return rep, err
		}
		rep.Created = true
	}

	if !m.Exists() {
		return rep, fmt.Errorf("environment %s has no interpreter at %s", m.dir, m.Interpreter())
	}

	res, err := m.pip(ctx, "--version")
	if err != nil {
		return rep, fmt.Errorf("verifying pip: %w", err)
	}
	if err := checkResult("verifying pip", res); err != nil {
		return rep, err
	}

	if rep.Created && m.opts.UpgradeToolchain {
		if err := m.upgradeToolchain(ctx); err != nil {
			m.log.Warn("toolchain upgrade failed", "error", err)
			rep.Warnings = append(rep.Warnings, err.Error())
		} else {
			rep.Upgraded = true
		}
	}
	return rep, nil
}

func (m *Manager) upgradeToolchain(ctx context.Context) error {
	res, err := m.pip(ctx, "install", "--upgrade", "pip")
	if err != nil {
		return fmt.Errorf("upgrading pip: %w", err)
	}
	return checkResult("upgrading pip", res)
}

// InstallReport describes a dependency installation.
type InstallReport struct {
	Manifest string             `json:"manifest"`
	Files    []string           `json:"files,omitempty"`
	Result   *toolrunner.Result `json:"result,omitempty"`
}

// InstallDependencies installs from the first manifest the project provides:
// requirements.txt (plus requirements-dev.txt), pyproject.toml, setup.py.
// A project without any manifest is a successful no-op. A missing
// environment interpreter yields an error matching toolrunner.ErrToolNotFound.
func (m *Manager) InstallDependencies(ctx context.Context) (InstallReport, error) {
	var rep InstallReport
	args, files := m.installArgs()
	if len(files) == 0 {
		m.log.Info("no dependency manifest found", "root", m.opts.Root)
		return rep, nil
	}
	rep.Manifest = files[0]
	rep.Files = files

	if !m.Exists() {
		return rep, &toolrunner.ToolNotFoundError{Name: "python", Searched: []string{m.Interpreter()}}
	}

	res, err := m.pip(ctx, args...)
	if err != nil {
		return rep, fmt.Errorf("installing dependencies: %w", err)
	}
	rep.Result = &res
	if err := checkResult("installing dependencies", res); err != nil {
		return rep, err
	}
	return rep, nil
}

func (m *Manager) installArgs() ([]string, []string) {
	exists := func(name string) bool {
		info, err := os.Stat(filepath.Join(m.opts.Root, name))
		return err == nil && !info.IsDir()
	}
	switch {
	case exists("requirements.txt"):
		args := []string{"install", "-r", "requirements.txt"}
		files := []string{"requirements.txt"}
		if exists("requirements-dev.txt") {
			args = append(args, "-r", "requirements-dev.txt")
			files = append(files, "requirements-dev.txt")
		}
		return args, files
	case exists("pyproject.toml"):
		return []string{"install", "-e", "."}, []string{"pyproject.toml"}
	case exists("setup.py"):
		return []string{"install", "-e", "."}, []string{"setup.py"}
	}
	return nil, nil
}

func (m *Manager) pip(ctx context.Context, args ...string) (toolrunner.Result, error) {
	argv := append([]string{m.Interpreter(), "-m", "pip"}, args...)
	return m.tools.Run(ctx, toolrunner.Invocation{
		Argv:    argv,
		Dir:     m.opts.Root,
		EnvRoot: m.dir,
		Env:     map[string]string{"PIP_DISABLE_PIP_VERSION_CHECK": "1"},
	})
}

func checkResult(what string, res toolrunner.Result) error {
	if res.TimedOut {
		return fmt.Errorf("%s: timed out", what)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("%s: exit %d: %s", what, res.ExitCode, res.Tail(20))
	}
	return nil
}
