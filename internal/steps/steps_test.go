//go:build !windows

package steps

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartekus/vetgate/internal/completion"
	"github.com/bartekus/vetgate/internal/config"
	"github.com/bartekus/vetgate/internal/finding"
	"github.com/bartekus/vetgate/internal/logging"
	"github.com/bartekus/vetgate/internal/report"
	"github.com/bartekus/vetgate/internal/runner"
)

const candidateSrc = `import math


def area(r: float) -> float:
    return math.pi * r * r


class Shape:
    def grow(self, n):
        return n
`

const target = "geometry/shapes.py"

type project struct {
	root      string
	bin       string
	candidate string
	policy    *config.Policy
}

func newProject(t *testing.T) *project {
	t.Helper()
	base := t.TempDir()
	p := &project{
		root:      filepath.Join(base, "project"),
		bin:       filepath.Join(base, "bin"),
		candidate: filepath.Join(base, "candidate.py"),
		policy:    config.Defaults(),
	}
	require.NoError(t, os.MkdirAll(filepath.Join(p.root, "geometry"), 0o755))
	require.NoError(t, os.MkdirAll(p.bin, 0o755))
	require.NoError(t, os.WriteFile(p.candidate, []byte(candidateSrc), 0o644))
	p.policy.ToolPaths = map[string]string{}
	t.Setenv("PATH", p.bin+":/usr/bin:/bin")
	return p
}

// tool installs a fake executable and routes the policy's lookups to it.
func (p *project) tool(t *testing.T, name, body string) {
	t.Helper()
	path := filepath.Join(p.bin, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	p.policy.ToolPaths[name] = path
}

func (p *project) state(c runner.Completer) *runner.State {
	st := NewState(p.policy, runner.Inputs{Root: p.root, CandidatePath: p.candidate, TargetFile: target}, c, logging.Discard())
	return st
}

func (p *project) run(t *testing.T, names []string, st *runner.State) *runner.RunRecord {
	t.Helper()
	built, err := Build(names)
	require.NoError(t, err)
	r := runner.NewRunner(built, Report(), runner.Options{Logger: logging.Discard(), Emergency: report.Emergency})
	return r.Run(context.Background(), st)
}

func stepStatus(t *testing.T, rec *runner.RunRecord, name string) runner.Status {
	t.Helper()
	res, ok := rec.Step(name)
	require.True(t, ok, "step %s not recorded", name)
	return res.Status
}

func reason(t *testing.T, rec *runner.RunRecord, name string) string {
	t.Helper()
	res, ok := rec.Step(name)
	require.True(t, ok)
	m, ok := res.Details.(map[string]any)
	require.True(t, ok, "details of %s: %#v", name, res.Details)
	s, _ := m["reason"].(string)
	return s
}

type fakeCompleter struct {
	tests     completion.TestGeneration
	testsErr  error
	review    completion.Review
	reviewErr error
	calls     int
}

func (f *fakeCompleter) GenerateTests(ctx context.Context, code, moduleName, signatures string) (completion.TestGeneration, error) {
	f.calls++
	return f.tests, f.testsErr
}

func (f *fakeCompleter) GenerateReview(ctx context.Context, code, moduleName string) (completion.Review, error) {
	f.calls++
	return f.review, f.reviewErr
}

func TestRegistry(t *testing.T) {
	var names []string
	for _, info := range Infos() {
		names = append(names, info.Name)
	}
	assert.Equal(t, config.DefaultSteps(), names)
	assert.Len(t, Registry(), len(names))

	_, err := Build([]string{"validate_inputs", "launch_rockets"})
	require.Error(t, err)

	skip, err := SkipSet([]string{"tests", "lint"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{
		"extract_signatures": true,
		"generate_tests":     true,
		"save_tests":         true,
		"execute_tests":      true,
		"lint_code":          true,
	}, skip)

	_, err = SkipSet([]string{"everything"})
	require.Error(t, err)
	assert.Equal(t, []string{"audit", "format", "hooks", "lint", "review", "tests", "typecheck"}, Categories())
}

func TestScenario_CleanRunSucceeds(t *testing.T) {
	p := newProject(t)
	argsLog := filepath.Join(p.bin, "ruff.args")
	p.tool(t, "ruff", `echo "$@" > `+argsLog+`; exit 0`)
	st := p.state(nil)

	rec := p.run(t, []string{"validate_inputs", "apply_code", "format_code", "generate_report"}, st)

	assert.Equal(t, []string{"validate_inputs", "apply_code", "format_code", "generate_report"}, rec.StepNames())
	for _, s := range rec.Steps {
		assert.Equal(t, runner.StatusSuccess, s.Status, s.Name)
	}
	assert.Equal(t, runner.StatusSuccess, rec.OverallStatus)

	written, err := os.ReadFile(filepath.Join(p.root, target))
	require.NoError(t, err)
	assert.Equal(t, candidateSrc, string(written))

	args, err := os.ReadFile(argsLog)
	require.NoError(t, err)
	assert.Equal(t, "format "+target, strings.TrimSpace(string(args)))

	parsed, err := report.Parse(st.Output)
	require.NoError(t, err)
	assert.Equal(t, rec.StepNames(), parsed.StepNames())
	assert.Equal(t, runner.StatusSuccess, parsed.OverallStatus)
}

func TestScenario_LintToolAbsentIsSkipped(t *testing.T) {
	p := newProject(t)
	p.policy.Tools[config.ToolLint] = config.ToolSpec{Command: "vetgate-missing-linter"}
	st := p.state(nil)

	rec := p.run(t, []string{"validate_inputs", "apply_code", "lint_code"}, st)

	assert.Equal(t, runner.StatusSkipped, stepStatus(t, rec, "lint_code"))
	assert.Equal(t, runner.StatusSuccess, rec.OverallStatus)
}

func TestScenario_CriticalAuditFindingHalts(t *testing.T) {
	p := newProject(t)
	p.tool(t, "pip-audit", `cat <<'JSON'
{"dependencies": [{"name": "django", "version": "1.0", "vulns": [{"id": "PYSEC-9", "severity": "critical"}]}]}
JSON
exit 1`)
	p.tool(t, "ruff", "exit 0")
	st := p.state(nil)

	rec := p.run(t, []string{"validate_inputs", "audit_dependencies", "apply_code", "format_code", "generate_report"}, st)

	assert.Equal(t, runner.StatusFailure, stepStatus(t, rec, "audit_dependencies"))
	assert.Equal(t, runner.StatusSkipped, stepStatus(t, rec, "apply_code"))
	assert.Equal(t, runner.StatusSkipped, stepStatus(t, rec, "format_code"))
	assert.Equal(t, "halted after audit_dependencies failed", reason(t, rec, "format_code"))
	assert.Equal(t, runner.StatusSuccess, stepStatus(t, rec, "generate_report"))
	assert.Equal(t, runner.StatusFailure, rec.OverallStatus)

	require.NotNil(t, rec.AuditSummary)
	assert.Equal(t, 1, rec.AuditSummary.Counts[finding.SeverityCritical])
	assert.NoFileExists(t, filepath.Join(p.root, target))
}

func TestScenario_AuditBelowThresholdWarns(t *testing.T) {
	p := newProject(t)
	p.tool(t, "pip-audit", `echo '{"dependencies": [{"name": "a", "version": "1", "vulns": [{"id": "X", "severity": "low"}]}]}'; exit 1`)
	rec := p.run(t, []string{"audit_dependencies"}, p.state(nil))
	assert.Equal(t, runner.StatusWarning, stepStatus(t, rec, "audit_dependencies"))
	assert.Equal(t, runner.StatusSuccess, rec.OverallStatus)
}

func TestScenario_InvalidInputsSkipEverything(t *testing.T) {
	p := newProject(t)
	st := NewState(p.policy, runner.Inputs{Root: p.root, CandidatePath: p.candidate, TargetFile: "../escape.py"}, nil, logging.Discard())

	rec := p.run(t, config.DefaultSteps(), st)

	assert.Equal(t, runner.StatusFailure, rec.Steps[0].Status)
	for _, s := range rec.Steps[1 : len(rec.Steps)-1] {
		assert.Equal(t, runner.StatusSkipped, s.Status, s.Name)
	}
	assert.Equal(t, "generate_report", rec.Steps[len(rec.Steps)-1].Name)
	assert.Equal(t, runner.StatusFailure, rec.OverallStatus)
	assert.NoFileExists(t, filepath.Join(p.root, "..", "escape.py"))
}

func TestValidateInputs(t *testing.T) {
	p := newProject(t)
	p.policy.AllowedRoots = []string{t.TempDir()}
	rec := p.run(t, []string{"validate_inputs"}, p.state(nil))
	assert.Equal(t, runner.StatusFailure, stepStatus(t, rec, "validate_inputs"))

	p.policy.AllowedRoots = []string{filepath.Dir(p.root)}
	rec = p.run(t, []string{"validate_inputs"}, p.state(nil))
	assert.Equal(t, runner.StatusSuccess, stepStatus(t, rec, "validate_inputs"))

	st := NewState(p.policy, runner.Inputs{Root: p.root, CandidatePath: filepath.Join(p.root, "missing.py"), TargetFile: target}, nil, logging.Discard())
	rec = p.run(t, []string{"validate_inputs"}, st)
	assert.Equal(t, runner.StatusFailure, stepStatus(t, rec, "validate_inputs"))
}

func TestQualityGates(t *testing.T) {
	for _, tc := range []struct {
		name  string
		exit  string
		gates config.Gates
		want  runner.Status
	}{
		{"clean", "0", config.Gates{}, runner.StatusSuccess},
		{"issues warn", "1", config.Gates{}, runner.StatusWarning},
		{"issues promoted", "1", config.Gates{FailOnTypeErrors: true}, runner.StatusFailure},
		{"crash", "2", config.Gates{}, runner.StatusFailure},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p := newProject(t)
			p.tool(t, "mypy", "echo 'shapes.py:1: error'; exit "+tc.exit)
			p.policy.Gates = tc.gates
			rec := p.run(t, []string{"apply_code", "type_check"}, p.state(nil))
			assert.Equal(t, tc.want, stepStatus(t, rec, "type_check"))
		})
	}
}

func TestTestChain(t *testing.T) {
	generated := "from geometry.shapes import area\n\n\ndef test_area():\n    assert area(1) > 3\n"
	for _, tc := range []struct {
		name   string
		script string
		gate   bool
		want   runner.Status
	}{
		{"pass", "echo '1 passed in 0.01s'; exit 0", true, runner.StatusSuccess},
		{"failures promoted", "echo '3 passed, 1 failed in 0.10s'; exit 1", true, runner.StatusFailure},
		{"failures tolerated", "echo '1 failed in 0.10s'; exit 1", false, runner.StatusWarning},
		{"nothing collected stays warning", "echo 'no tests ran in 0.01s'; exit 5", true, runner.StatusWarning},
		{"usage error", "echo 'error: bad args' >&2; exit 4", false, runner.StatusFailure},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p := newProject(t)
			p.tool(t, "pytest", tc.script)
			p.policy.Gates.FailOnTestFailure = tc.gate
			c := &fakeCompleter{tests: completion.TestGeneration{Code: generated}}
			st := p.state(c)

			rec := p.run(t, []string{"apply_code", "extract_signatures", "generate_tests", "save_tests", "execute_tests"}, st)

			assert.Equal(t, runner.StatusSuccess, stepStatus(t, rec, "extract_signatures"))
			assert.Equal(t, runner.StatusSuccess, stepStatus(t, rec, "save_tests"))
			assert.Equal(t, tc.want, stepStatus(t, rec, "execute_tests"))

			saved := filepath.Join(p.root, "tests", "generated", "test_geometry_shapes_generated.py")
			content, err := os.ReadFile(saved)
			require.NoError(t, err)
			assert.Equal(t, generated, string(content))
			assert.Equal(t, "tests/generated/test_geometry_shapes_generated.py", st.TestPath)
			require.NotNil(t, rec.TestSummary)
		})
	}
}

func TestTestChain_SummaryCounts(t *testing.T) {
	p := newProject(t)
	p.tool(t, "pytest", "echo 'collected 4 items'; echo '=== 3 passed, 1 failed in 0.10s ==='; exit 1")
	c := &fakeCompleter{tests: completion.TestGeneration{Code: "def test_a():\n    pass\n"}}
	rec := p.run(t, []string{"apply_code", "extract_signatures", "generate_tests", "save_tests", "execute_tests"}, p.state(c))

	require.NotNil(t, rec.TestSummary)
	assert.Equal(t, 3, rec.TestSummary.Passed)
	assert.Equal(t, 1, rec.TestSummary.Failed)
	assert.Equal(t, 1, rec.TestSummary.ExitCode)
}

func TestTestChain_EmptyGeneratedCodeSkipsDescendants(t *testing.T) {
	p := newProject(t)
	p.tool(t, "pytest", "exit 0")
	c := &fakeCompleter{tests: completion.TestGeneration{Code: ""}}
	st := p.state(c)

	rec := p.run(t, []string{"apply_code", "extract_signatures", "generate_tests", "save_tests", "execute_tests"}, st)

	assert.Equal(t, runner.StatusSuccess, stepStatus(t, rec, "generate_tests"))
	assert.Equal(t, runner.StatusSkipped, stepStatus(t, rec, "save_tests"))
	assert.Equal(t, runner.StatusSkipped, stepStatus(t, rec, "execute_tests"))
	assert.Empty(t, st.TestPath)
	assert.NoDirExists(t, filepath.Join(p.root, "tests"))
	assert.Nil(t, rec.TestSummary)
	assert.Equal(t, runner.StatusSuccess, rec.OverallStatus)
}

func TestToolTimeoutFailsAndHalts(t *testing.T) {
	p := newProject(t)
	p.policy.ToolTimeoutSeconds = 1
	p.tool(t, "ruff", "sleep 10")
	p.tool(t, "mypy", "exit 0")

	rec := p.run(t, []string{"apply_code", "lint_code", "type_check"}, p.state(nil))

	assert.Equal(t, runner.StatusFailure, stepStatus(t, rec, "lint_code"))
	res, _ := rec.Step("lint_code")
	details, ok := res.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, details["timed_out"])
	assert.Equal(t, runner.StatusSkipped, stepStatus(t, rec, "type_check"))
	assert.Equal(t, "halted after lint_code failed", reason(t, rec, "type_check"))
	assert.Equal(t, runner.StatusFailure, rec.OverallStatus)
}

func TestLintCommandRelativeToPolicyFile(t *testing.T) {
	p := newProject(t)
	policyDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(policyDir, "scripts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(policyDir, "scripts", "lint.sh"),
		[]byte("#!/bin/sh\necho 'E501 line too long'\nexit 1\n"), 0o755))
	policyPath := filepath.Join(policyDir, "vetgate.yaml")
	require.NoError(t, os.WriteFile(policyPath, []byte(`
gates:
  fail_on_lint_critical: true
tools:
  lint:
    command: scripts/lint.sh
`), 0o644))

	loaded, err := config.LoadFrom(t.TempDir(), policyPath)
	require.NoError(t, err)
	p.policy = loaded

	rec := p.run(t, []string{"validate_inputs", "apply_code", "lint_code"}, p.state(nil))

	assert.Equal(t, runner.StatusFailure, stepStatus(t, rec, "lint_code"))
	assert.Equal(t, runner.StatusFailure, rec.OverallStatus)
}

func TestTestChain_NoSignaturesSkipsDescendants(t *testing.T) {
	p := newProject(t)
	require.NoError(t, os.WriteFile(p.candidate, []byte("_private = 1\n"), 0o644))
	c := &fakeCompleter{}

	rec := p.run(t, []string{"apply_code", "extract_signatures", "generate_tests", "save_tests", "execute_tests"}, p.state(c))

	assert.Equal(t, runner.StatusSuccess, stepStatus(t, rec, "extract_signatures"))
	for _, name := range []string{"generate_tests", "save_tests", "execute_tests"} {
		assert.Equal(t, runner.StatusSkipped, stepStatus(t, rec, name), name)
	}
	assert.Equal(t, 0, c.calls)
	assert.Equal(t, runner.StatusSuccess, rec.OverallStatus)
}

func TestGenerateTests_ServiceErrorFails(t *testing.T) {
	p := newProject(t)
	c := &fakeCompleter{testsErr: &completion.ServiceError{Op: "generate tests", Attempts: 3, Transient: true, Err: errors.New("connection refused")}}

	rec := p.run(t, []string{"apply_code", "extract_signatures", "generate_tests", "save_tests"}, p.state(c))

	assert.Equal(t, runner.StatusFailure, stepStatus(t, rec, "generate_tests"))
	assert.Equal(t, runner.StatusSkipped, stepStatus(t, rec, "save_tests"))
}

func TestReviewCode(t *testing.T) {
	p := newProject(t)
	c := &fakeCompleter{review: completion.Review{Findings: []finding.Finding{
		finding.New(finding.SeverityLow, "magic number", "line 4"),
		finding.New(finding.SeverityHigh, "unchecked input", "line 2"),
	}}}
	rec := p.run(t, []string{"apply_code", "review_code"}, p.state(c))

	assert.Equal(t, runner.StatusAdvisory, stepStatus(t, rec, "review_code"))
	require.NotNil(t, rec.ReviewSummary)
	assert.Equal(t, finding.SeverityHigh, rec.ReviewSummary.Findings[0].Severity)
	assert.Equal(t, runner.StatusSuccess, rec.OverallStatus)

	c = &fakeCompleter{reviewErr: errors.New("status 500")}
	rec = p.run(t, []string{"apply_code", "review_code"}, p.state(c))
	assert.Equal(t, runner.StatusWarning, stepStatus(t, rec, "review_code"))
	assert.Equal(t, runner.StatusSuccess, rec.OverallStatus)
}

func TestPreSubmitHooks(t *testing.T) {
	p := newProject(t)
	p.tool(t, "pre-commit", "echo 'trailing whitespace....Failed'; exit 1")

	rec := p.run(t, []string{"apply_code", "pre_submit_hooks"}, p.state(nil))
	assert.Equal(t, runner.StatusSkipped, stepStatus(t, rec, "pre_submit_hooks"))

	require.NoError(t, os.WriteFile(filepath.Join(p.root, ".pre-commit-config.yaml"), []byte("repos: []\n"), 0o644))
	rec = p.run(t, []string{"apply_code", "pre_submit_hooks"}, p.state(nil))
	assert.Equal(t, runner.StatusFailure, stepStatus(t, rec, "pre_submit_hooks"))

	p.tool(t, "pre-commit", "exit 0")
	rec = p.run(t, []string{"apply_code", "pre_submit_hooks"}, p.state(nil))
	assert.Equal(t, runner.StatusSuccess, stepStatus(t, rec, "pre_submit_hooks"))
}

func gitCmd(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
}

func gitOutput(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	require.NoError(t, err, "git %v", args)
	return strings.TrimSpace(string(out))
}

func (p *project) initGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	gitCmd(t, p.root, "init")
	gitCmd(t, p.root, "config", "user.email", "test@example.com")
	gitCmd(t, p.root, "config", "user.name", "Test User")
	require.NoError(t, os.WriteFile(filepath.Join(p.root, "README.md"), []byte("demo\n"), 0o644))
	gitCmd(t, p.root, "add", ".")
	gitCmd(t, p.root, "commit", "-m", "init")
}

func TestCommitChanges_LeavesUserStagedFiles(t *testing.T) {
	p := newProject(t)
	p.initGit(t)
	require.NoError(t, os.WriteFile(filepath.Join(p.root, "notes.txt"), []byte("draft\n"), 0o644))
	gitCmd(t, p.root, "add", "notes.txt")

	st := p.state(nil)
	st.Inputs.Commit = true
	rec := p.run(t, []string{"validate_inputs", "apply_code", "commit_changes"}, st)

	assert.Equal(t, runner.StatusSuccess, stepStatus(t, rec, "commit_changes"))
	require.NotNil(t, rec.Commit.Revision)
	assert.Equal(t, target, gitOutput(t, p.root, "show", "--name-only", "--format=", "HEAD"))
	assert.Equal(t, "notes.txt", gitOutput(t, p.root, "diff", "--cached", "--name-only"))
}

func TestCommitChanges(t *testing.T) {
	p := newProject(t)
	p.initGit(t)

	names := []string{"validate_inputs", "apply_code", "commit_changes"}

	rec := p.run(t, names, p.state(nil))
	assert.Equal(t, runner.StatusSkipped, stepStatus(t, rec, "commit_changes"))
	assert.False(t, rec.Commit.Attempted)

	st := p.state(nil)
	st.Inputs.Commit = true
	rec = p.run(t, names, st)
	assert.Equal(t, runner.StatusSuccess, stepStatus(t, rec, "commit_changes"))
	assert.True(t, rec.Commit.Attempted)
	require.NotNil(t, rec.Commit.Revision)
	assert.Len(t, *rec.Commit.Revision, 40)

	st = p.state(nil)
	st.Inputs.Commit = true
	rec = p.run(t, names, st)
	assert.Equal(t, runner.StatusSuccess, stepStatus(t, rec, "commit_changes"))
	assert.True(t, rec.Commit.Attempted)
	assert.Nil(t, rec.Commit.Revision, "nothing staged the second time")
}

func TestGenerateReport_TextAndCopy(t *testing.T) {
	p := newProject(t)
	st := p.state(nil)
	st.ReportFormat = report.FormatText
	st.ReportFile = filepath.Join(t.TempDir(), "out", "report.txt")

	rec := p.run(t, []string{"validate_inputs"}, st)

	assert.Equal(t, runner.StatusSuccess, stepStatus(t, rec, "generate_report"))
	assert.Contains(t, string(st.Output), "validate_inputs")
	assert.Contains(t, string(st.Output), "generate_report")
	copied, err := os.ReadFile(st.ReportFile)
	require.NoError(t, err)
	assert.Equal(t, st.Output, copied)
}

func TestGenerateReport_CopyFailureMatchesDocument(t *testing.T) {
	p := newProject(t)
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	st := p.state(nil)
	st.ReportFile = filepath.Join(blocker, "report.json")

	rec := p.run(t, []string{"validate_inputs"}, st)

	assert.Equal(t, runner.StatusWarning, stepStatus(t, rec, "generate_report"))
	emitted, err := report.Parse(st.Output)
	require.NoError(t, err)
	res, ok := emitted.Step("generate_report")
	require.True(t, ok)
	assert.Equal(t, runner.StatusWarning, res.Status)
	assert.Equal(t, rec.OverallStatus, emitted.OverallStatus)
	assert.NoFileExists(t, st.ReportFile)
}

func TestEnsureEnvironment_PythonMissingIsSkipped(t *testing.T) {
	p := newProject(t)
	p.policy.Environment.Python = "vetgate-no-python"
	rec := p.run(t, []string{"ensure_environment", "install_dependencies"}, p.state(nil))

	assert.Equal(t, runner.StatusSkipped, stepStatus(t, rec, "ensure_environment"))
	assert.Equal(t, runner.StatusSuccess, stepStatus(t, rec, "install_dependencies"), "no manifest is a no-op")
}

func TestParsePytestSummary(t *testing.T) {
	for _, tc := range []struct {
		out  string
		want runner.TestSummary
	}{
		{"....\n4 passed in 0.02s\n", runner.TestSummary{Passed: 4}},
		{"== 2 failed, 5 passed, 1 skipped, 3 errors in 1.00s ==", runner.TestSummary{Passed: 5, Failed: 2, Skipped: 1, Errors: 3}},
		{"1 error in 0.1s", runner.TestSummary{Errors: 1}},
		{"no tests ran in 0.01s", runner.TestSummary{}},
	} {
		assert.Equal(t, tc.want, ParsePytestSummary(tc.out), tc.out)
	}
}
