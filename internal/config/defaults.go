// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import "github.com/bartekus/vetgate/internal/finding"

// Step names accepted in Policy.Steps.
const (
	StepValidateInputs      = "validate_inputs"
	StepEnsureEnvironment   = "ensure_environment"
	StepInstallDependencies = "install_dependencies"
	StepAuditDependencies   = "audit_dependencies"
	StepApplyCode           = "apply_code"
	StepFormatCode          = "format_code"
	StepLintCode            = "lint_code"
	StepTypeCheck           = "type_check"
	StepExtractSignatures   = "extract_signatures"
	StepGenerateTests       = "generate_tests"
	StepSaveTests           = "save_tests"
	StepExecuteTests        = "execute_tests"
	StepReviewCode          = "review_code"
	StepPreSubmitHooks      = "pre_submit_hooks"
	StepCommitChanges       = "commit_changes"
	StepGenerateReport      = "generate_report"
)

// DefaultSteps is the canonical step order.
func DefaultSteps() []string {
	return []string{
		StepValidateInputs,
		StepEnsureEnvironment,
		StepInstallDependencies,
		StepAuditDependencies,
		StepApplyCode,
		StepFormatCode,
		StepLintCode,
		StepTypeCheck,
		StepExtractSignatures,
		StepGenerateTests,
		StepSaveTests,
		StepExecuteTests,
		StepReviewCode,
		StepPreSubmitHooks,
		StepCommitChanges,
		StepGenerateReport,
	}
}

const defaultTestPrompt = `You are writing pytest tests for the Python module "{{.ModuleName}}".

The module exposes these signatures:
{{.Signatures}}

Full source:
` + "```python\n{{.Code}}\n```" + `

Write a single pytest test file that imports from {{.ModuleName}} and exercises
the public behaviour above. Reply with exactly one fenced python code block.`

const defaultReviewPrompt = `Review the Python module "{{.ModuleName}}" for bugs, security problems and
maintainability issues.

` + "```python\n{{.Code}}\n```" + `

Reply with a JSON array only. Each element must be an object with the keys
"severity" (one of info, low, moderate, high, critical), "description" and
"location" (for example "line 12"). Reply with [] when there is nothing to report.`

// Defaults returns the built-in policy that policy files are merged over.
func Defaults() *Policy {
	return &Policy{
		AllowedRoots: []string{},
		Audit: AuditPolicy{
			FailThreshold:   finding.SeverityHigh,
			DefaultSeverity: finding.SeverityModerate,
		},
		Gates: Gates{
			FailOnLintCritical: false,
			FailOnTypeErrors:   false,
			FailOnTestFailure:  true,
		},
		Prompts: Prompts{
			TestGeneration: defaultTestPrompt,
			Review:         defaultReviewPrompt,
		},
		ToolTimeoutSeconds: 300,
		Completion: CompletionPolicy{
			Provider:          "ollama",
			Endpoint:          "http://localhost:11434",
			Model:             "codellama",
			APIKeyEnv:         "OPENAI_API_KEY",
			TimeoutSeconds:    120,
			MaxAttempts:       3,
			RetryDelaySeconds: 2,
		},
		Environment: EnvironmentPolicy{
			Dir:              ".venv",
			Python:           "python3",
			UpgradeToolchain: true,
		},
		Tools: map[string]ToolSpec{
			ToolFormat:    {Command: "ruff", Args: []string{"format"}},
			ToolLint:      {Command: "ruff", Args: []string{"check"}},
			ToolTypecheck: {Command: "mypy", Args: []string{}},
			ToolTest:      {Command: "pytest", Args: []string{"-q"}},
			ToolAudit:     {Command: "pip-audit", Args: []string{"--format", "json"}},
			ToolHooks:     {Command: "pre-commit", Args: []string{"run", "--files"}},
			ToolVCS:       {Command: "git", Args: []string{}},
		},
		ToolPaths:     map[string]string{},
		TestsDir:      "tests/generated",
		CommitMessage: "vetgate: validated update to {{.TargetFile}}",
		Report: ReportPolicy{
			Format:         "json",
			MaxFieldLength: 10000,
		},
		Steps: DefaultSteps(),
	}
}
