// SPDX-License-Identifier: AGPL-3.0-or-later

package steps

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/bartekus/vetgate/internal/config"
	"github.com/bartekus/vetgate/internal/projection"
	"github.com/bartekus/vetgate/internal/pysource"
	"github.com/bartekus/vetgate/internal/runner"
)

// pytest exit codes.
const (
	pytestOK          = 0
	pytestTestsFailed = 1
	pytestNoTests     = 5
)

type extractSignatures struct{ base }

func newExtractSignatures() runner.Step {
	return &extractSignatures{base{name: config.StepExtractSignatures}}
}

func (s *extractSignatures) Run(ctx context.Context, st *runner.State) (runner.Outcome, error) {
	target := targetPath(st)
	src, err := os.ReadFile(target)
	if errors.Is(err, os.ErrNotExist) {
		return runner.Skipped("target file does not exist"), nil
	}
	if err != nil {
		return runner.Outcome{}, fmt.Errorf("reading target: %w", err)
	}
	if strings.TrimSpace(string(src)) == "" {
		return runner.Success(map[string]any{"count": 0, "signatures": []pysource.Signature{}}), nil
	}

	sigs, err := pysource.ExtractSignatures(ctx, src)
	var syntaxErr *pysource.SyntaxError
	if errors.As(err, &syntaxErr) {
		return failDetails(syntaxErr.Error()), nil
	}
	if err != nil {
		return runner.Outcome{}, err
	}
	if sigs == nil {
		sigs = []pysource.Signature{}
	}
	st.Signatures = sigs
	return runner.Success(map[string]any{
		"module":     st.ModuleName(),
		"count":      len(sigs),
		"signatures": sigs,
	}), nil
}

type generateTests struct{ base }

func newGenerateTests() runner.Step {
	return &generateTests{base{name: config.StepGenerateTests}}
}

func (s *generateTests) Run(ctx context.Context, st *runner.State) (runner.Outcome, error) {
	if len(st.Signatures) == 0 {
		return runner.Skipped("no signatures extracted"), nil
	}
	if st.Completion == nil {
		return runner.Outcome{}, errors.New("completion client not configured")
	}
	src, err := os.ReadFile(targetPath(st))
	if err != nil {
		return runner.Outcome{}, fmt.Errorf("reading target: %w", err)
	}

	module := st.ModuleName()
	gen, err := st.Completion.GenerateTests(ctx, string(src), module, pysource.FormatSignatures(st.Signatures))
	if err != nil {
		return runner.Outcome{Details: map[string]any{"module": module, "warnings": gen.Warnings}}, err
	}
	st.GeneratedTests = gen.Code
	return runner.Success(map[string]any{
		"module":   module,
		"bytes":    len(gen.Code),
		"lines":    strings.Count(gen.Code, "\n"),
		"warnings": gen.Warnings,
	}), nil
}

type saveTests struct{ base }

func newSaveTests() runner.Step {
	return &saveTests{base{name: config.StepSaveTests}}
}

func (s *saveTests) Run(ctx context.Context, st *runner.State) (runner.Outcome, error) {
	if strings.TrimSpace(st.GeneratedTests) == "" {
		return runner.Skipped("no generated tests"), nil
	}
	rel := filepath.Join(filepath.FromSlash(st.Policy.TestsDir), pysource.TestFileName(st.ModuleName()))
	path := filepath.Join(st.Inputs.Root, rel)
	if err := projection.AtomicWrite(path, []byte(st.GeneratedTests), 0o644); err != nil {
		return runner.Outcome{}, fmt.Errorf("saving generated tests: %w", err)
	}
	st.TestPath = filepath.ToSlash(rel)
	return runner.Success(map[string]any{
		"path":  st.TestPath,
		"bytes": len(st.GeneratedTests),
	}), nil
}

type executeTests struct{ base }

func newExecuteTests() runner.Step {
	return &executeTests{base{name: config.StepExecuteTests, gate: runner.GateTest}}
}

// Run executes the saved test file. Exit 1 (failing tests) is a WARNING that
// the test gate may promote; exit 5 (nothing collected) is a WARNING that is
// never promoted.
func (s *executeTests) Run(ctx context.Context, st *runner.State) (runner.Outcome, error) {
	if st.TestPath == "" {
		return runner.Skipped("no saved test file"), nil
	}
	res, err := runTool(ctx, st, config.ToolTest, st.TestPath)
	if isToolNotFound(err) {
		return runner.Skipped(err.Error()), nil
	}
	if err != nil {
		return runner.Outcome{}, err
	}

	summary := ParsePytestSummary(res.Stdout)
	summary.TestFile = st.TestPath
	summary.ExitCode = res.ExitCode
	summary.NoTestsCollected = res.ExitCode == pytestNoTests
	st.Record.TestSummary = &summary

	details := toolDetails(res)
	details["summary"] = summary
	switch {
	case res.TimedOut:
		details["error"] = "tests timed out"
		return runner.Failure(details), nil
	case res.ExitCode == pytestOK:
		return runner.Success(details), nil
	case res.ExitCode == pytestTestsFailed:
		return runner.Warning(details), nil
	case res.ExitCode == pytestNoTests:
		details["reason"] = "no tests collected"
		return runner.Outcome{Status: runner.StatusWarning, Details: details, Pinned: true}, nil
	default:
		return runner.Failure(details), nil
	}
}

var pytestCountRe = regexp.MustCompile(`(\d+) (passed|failed|errors?|skipped)\b`)

// ParsePytestSummary reads the counts from pytest's final summary line,
// e.g. "2 failed, 3 passed, 1 error in 0.12s".
func ParsePytestSummary(out string) runner.TestSummary {
	var sum runner.TestSummary
	lines := strings.Split(strings.TrimSpace(out), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		matches := pytestCountRe.FindAllStringSubmatch(lines[i], -1)
		if len(matches) == 0 {
			continue
		}
		for _, m := range matches {
			n, _ := strconv.Atoi(m[1])
			switch m[2] {
			case "passed":
				sum.Passed = n
			case "failed":
				sum.Failed = n
			case "error", "errors":
				sum.Errors = n
			case "skipped":
				sum.Skipped = n
			}
		}
		break
	}
	return sum
}
