// SPDX-License-Identifier: AGPL-3.0-or-later

package steps

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/bartekus/vetgate/internal/config"
	"github.com/bartekus/vetgate/internal/gitrepo"
	"github.com/bartekus/vetgate/internal/runner"
	"github.com/bartekus/vetgate/internal/toolrunner"
	"github.com/bartekus/vetgate/internal/venv"
)

// Skip categories accepted by SkipSet.
const (
	SkipAudit     = "audit"
	SkipFormat    = "format"
	SkipLint      = "lint"
	SkipTypecheck = "typecheck"
	SkipTests     = "tests"
	SkipReview    = "review"
	SkipHooks     = "hooks"
)

// Info describes a registered step.
type Info struct {
	Name        string
	Gate        runner.Gate
	Category    string
	Description string
}

type entry struct {
	info  Info
	build func() runner.Step
}

// registry is the closed list of steps in canonical order.
var registry = []entry{
	{Info{Name: config.StepValidateInputs, Description: "check root, target and candidate paths"}, newValidateInputs},
	{Info{Name: config.StepEnsureEnvironment, Description: "create or verify the isolated environment"}, newEnsureEnvironment},
	{Info{Name: config.StepInstallDependencies, Description: "install the project's declared dependencies"}, newInstallDependencies},
	{Info{Name: config.StepAuditDependencies, Category: SkipAudit, Description: "scan dependencies for known vulnerabilities"}, newAuditDependencies},
	{Info{Name: config.StepApplyCode, Description: "write the candidate over the target file"}, newApplyCode},
	{Info{Name: config.StepFormatCode, Category: SkipFormat, Description: "run the formatter on the target"}, newFormatCode},
	{Info{Name: config.StepLintCode, Gate: runner.GateLint, Category: SkipLint, Description: "run the linter on the target"}, newLintCode},
	{Info{Name: config.StepTypeCheck, Gate: runner.GateTypecheck, Category: SkipTypecheck, Description: "run the type checker on the target"}, newTypeCheck},
	{Info{Name: config.StepExtractSignatures, Category: SkipTests, Description: "list public functions and classes of the target"}, newExtractSignatures},
	{Info{Name: config.StepGenerateTests, Category: SkipTests, Description: "ask the completion service for tests"}, newGenerateTests},
	{Info{Name: config.StepSaveTests, Category: SkipTests, Description: "write generated tests into the project"}, newSaveTests},
	{Info{Name: config.StepExecuteTests, Gate: runner.GateTest, Category: SkipTests, Description: "run the generated tests"}, newExecuteTests},
	{Info{Name: config.StepReviewCode, Category: SkipReview, Description: "ask the completion service for an advisory review"}, newReviewCode},
	{Info{Name: config.StepPreSubmitHooks, Category: SkipHooks, Description: "run pre-submit hooks on the changed files"}, newPreSubmitHooks},
	{Info{Name: config.StepCommitChanges, Description: "commit the validated change when requested"}, newCommitChanges},
	{Info{Name: config.StepGenerateReport, Description: "render the final report (always runs)"}, newGenerateReport},
}

// Registry returns a fresh name -> step table.
func Registry() map[string]runner.Step {
	out := make(map[string]runner.Step, len(registry))
	for _, e := range registry {
		out[e.info.Name] = e.build()
	}
	return out
}

// Infos lists registered steps in canonical order.
func Infos() []Info {
	out := make([]Info, len(registry))
	for i, e := range registry {
		out[i] = e.info
	}
	return out
}

// Build instantiates the named steps in order.
func Build(names []string) ([]runner.Step, error) {
	table := Registry()
	out := make([]runner.Step, 0, len(names))
	for _, name := range names {
		s, ok := table[name]
		if !ok {
			return nil, fmt.Errorf("unknown step %q", name)
		}
		out = append(out, s)
	}
	return out, nil
}

// Report returns the report step the orchestrator always runs last.
func Report() runner.Step {
	return newGenerateReport()
}

// Categories lists the accepted skip categories.
func Categories() []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range registry {
		if c := e.info.Category; c != "" && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

// SkipSet maps skip categories to the step names they cover.
func SkipSet(categories []string) (map[string]bool, error) {
	skip := map[string]bool{}
	for _, raw := range categories {
		c := strings.ToLower(strings.TrimSpace(raw))
		if c == "" {
			continue
		}
		matched := false
		for _, e := range registry {
			if e.info.Category == c {
				skip[e.info.Name] = true
				matched = true
			}
		}
		if !matched {
			return nil, fmt.Errorf("unknown skip category %q (valid: %s)", raw, strings.Join(Categories(), ", "))
		}
	}
	return skip, nil
}

// NewState wires the collaborators every step needs for one invocation.
func NewState(p *config.Policy, in runner.Inputs, completer runner.Completer, log *slog.Logger) *runner.State {
	tools := toolrunner.New(toolrunner.NewResolver(p.ToolPaths, log), p.ToolTimeout(), log)
	audit := p.Tool(config.ToolAudit)
	env := venv.New(venv.Options{
		Root:             in.Root,
		Dir:              p.Environment.Dir,
		Python:           p.Environment.Python,
		UpgradeToolchain: p.Environment.UpgradeToolchain,
		Audit:            audit,
		DefaultSeverity:  p.Audit.DefaultSeverity,
	}, tools, log)
	return &runner.State{
		Inputs:       in,
		Policy:       p,
		Log:          log,
		Tools:        tools,
		Env:          env,
		Completion:   completer,
		Git:          gitrepo.New(in.Root, p.Tool(config.ToolVCS), tools),
		ReportFormat: p.Report.Format,
	}
}
