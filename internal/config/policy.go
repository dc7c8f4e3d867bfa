// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"time"

	"github.com/bartekus/vetgate/internal/finding"
)

// Policy is the run policy. It is immutable once Load returns; use
// WithOverrides to derive a modified copy.
type Policy struct {
	AllowedRoots       []string            `yaml:"allowed_roots"`
	Audit              AuditPolicy         `yaml:"audit"`
	Gates              Gates               `yaml:"gates"`
	Prompts            Prompts             `yaml:"prompts"`
	ToolTimeoutSeconds int                 `yaml:"tool_timeout_seconds"`
	Completion         CompletionPolicy    `yaml:"completion"`
	Environment        EnvironmentPolicy   `yaml:"environment"`
	Tools              map[string]ToolSpec `yaml:"tools"`
	ToolPaths          map[string]string   `yaml:"tool_paths"`
	TestsDir           string              `yaml:"tests_dir"`
	CommitMessage      string              `yaml:"commit_message"`
	Report             ReportPolicy        `yaml:"report"`
	Steps              []string            `yaml:"steps"`

	source string
}

// AuditPolicy controls how dependency vulnerabilities gate the run.
type AuditPolicy struct {
	FailThreshold   finding.Severity `yaml:"fail_threshold"`
	DefaultSeverity finding.Severity `yaml:"default_severity"`
}

// Gates decide whether warnings from a quality tool become failures.
type Gates struct {
	FailOnLintCritical bool `yaml:"fail_on_lint_critical"`
	FailOnTypeErrors   bool `yaml:"fail_on_type_errors"`
	FailOnTestFailure  bool `yaml:"fail_on_test_failure"`
}

// Prompts holds text/template sources for completion requests.
type Prompts struct {
	TestGeneration string `yaml:"test_generation"`
	Review         string `yaml:"review"`
}

// CompletionPolicy configures the text-completion service.
type CompletionPolicy struct {
	Provider          string `yaml:"provider"`
	Endpoint          string `yaml:"endpoint"`
	Model             string `yaml:"model"`
	APIKeyEnv         string `yaml:"api_key_env"`
	TimeoutSeconds    int    `yaml:"timeout_seconds"`
	MaxAttempts       int    `yaml:"max_attempts"`
	RetryDelaySeconds int    `yaml:"retry_delay_seconds"`
}

// EnvironmentPolicy configures the isolated Python environment.
type EnvironmentPolicy struct {
	Dir              string `yaml:"dir"`
	Python           string `yaml:"python"`
	UpgradeToolchain bool   `yaml:"upgrade_toolchain"`
}

// ToolSpec is an external tool invocation. The target file is appended to Args.
type ToolSpec struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// ReportPolicy controls the final document.
type ReportPolicy struct {
	Format         string `yaml:"format"`
	MaxFieldLength int    `yaml:"max_field_length"`
}

// Tool categories used as keys of Policy.Tools.
const (
	ToolFormat    = "format"
	ToolLint      = "lint"
	ToolTypecheck = "typecheck"
	ToolTest      = "test"
	ToolAudit     = "audit"
	ToolHooks     = "hooks"
	ToolVCS       = "vcs"
)

// ToolCategories lists every tool category a policy must define.
func ToolCategories() []string {
	return []string{ToolFormat, ToolLint, ToolTypecheck, ToolTest, ToolAudit, ToolHooks, ToolVCS}
}

// Source returns the policy file the policy was loaded from, or "" for defaults only.
func (p *Policy) Source() string { return p.source }

// Tool returns the tool spec for a category. The returned Args slice is a copy.
func (p *Policy) Tool(category string) ToolSpec {
	spec := p.Tools[category]
	spec.Args = append([]string(nil), spec.Args...)
	return spec
}

// ToolTimeout is the per-call timeout for external tools.
func (p *Policy) ToolTimeout() time.Duration {
	return time.Duration(p.ToolTimeoutSeconds) * time.Second
}

// Timeout is the per-attempt timeout of a completion request.
func (c CompletionPolicy) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RetryDelay is the fixed delay between completion attempts.
func (c CompletionPolicy) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds) * time.Second
}

// Overrides are invocation-level values applied on top of a loaded policy.
type Overrides struct {
	Python       string
	Endpoint     string
	Model        string
	ReportFormat string
}

// WithOverrides returns a validated copy of p with the non-empty overrides applied.
func (p *Policy) WithOverrides(o Overrides) (*Policy, error) {
	cp := p.clone()
	if o.Python != "" {
		cp.Environment.Python = o.Python
	}
	if o.Endpoint != "" {
		cp.Completion.Endpoint = o.Endpoint
	}
	if o.Model != "" {
		cp.Completion.Model = o.Model
	}
	if o.ReportFormat != "" {
		cp.Report.Format = o.ReportFormat
	}
	if err := cp.Validate(); err != nil {
		return nil, err
	}
	return cp, nil
}

func (p *Policy) clone() *Policy {
	cp := *p
	cp.AllowedRoots = append([]string(nil), p.AllowedRoots...)
	cp.Steps = append([]string(nil), p.Steps...)
	cp.Tools = make(map[string]ToolSpec, len(p.Tools))
	for k, v := range p.Tools {
		v.Args = append([]string(nil), v.Args...)
		cp.Tools[k] = v
	}
	cp.ToolPaths = make(map[string]string, len(p.ToolPaths))
	for k, v := range p.ToolPaths {
		cp.ToolPaths[k] = v
	}
	return &cp
}
