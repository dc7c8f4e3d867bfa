// SPDX-License-Identifier: AGPL-3.0-or-later

package venv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bartekus/vetgate/internal/finding"
	"github.com/bartekus/vetgate/internal/toolrunner"
)

// AuditReport is the outcome of a dependency vulnerability scan.
type AuditReport struct {
	// Ran is false when the scanner is not installed; that is a skip, not a failure.
	Ran          bool               `json:"ran"`
	Dependencies int                `json:"dependencies"`
	Findings     []finding.Finding  `json:"findings"`
	Result       *toolrunner.Result `json:"result,omitempty"`
}

// AuditDependencies runs the configured scanner inside the environment and
// parses its pip-audit style JSON report.
func (m *Manager) AuditDependencies(ctx context.Context) (AuditReport, error) {
	var rep AuditReport
	argv := append([]string{m.opts.Audit.Command}, m.opts.Audit.Args...)

	envRoot := ""
	if m.Exists() {
		envRoot = m.dir
	}
	res, err := m.tools.Run(ctx, toolrunner.Invocation{Argv: argv, Dir: m.opts.Root, EnvRoot: envRoot})
	if errors.Is(err, toolrunner.ErrToolNotFound) {
		m.log.Info("audit tool not installed", "tool", m.opts.Audit.Command)
		return rep, nil
	}
	if err != nil {
		return rep, fmt.Errorf("running %s: %w", m.opts.Audit.Command, err)
	}
	rep.Result = &res
	if res.TimedOut {
		return rep, fmt.Errorf("%s timed out", m.opts.Audit.Command)
	}
	// pip-audit exits 1 when it found vulnerabilities; anything else is a tool failure.
	if res.ExitCode != 0 && res.ExitCode != 1 {
		return rep, fmt.Errorf("%s exited %d: %s", m.opts.Audit.Command, res.ExitCode, res.Tail(20))
	}

	deps, findings, err := ParseAudit([]byte(res.Stdout), m.opts.DefaultSeverity)
	if err != nil {
		return rep, err
	}
	rep.Ran = true
	rep.Dependencies = deps
	rep.Findings = findings
	return rep, nil
}

type auditVuln struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	FixVersions []string `json:"fix_versions"`
	Aliases     []string `json:"aliases"`
	Severity    string   `json:"severity"`
}

type auditDependency struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Vulns   []auditVuln `json:"vulns"`
}

// ParseAudit reads a pip-audit JSON report. Both the current object form
// ({"dependencies": [...]}) and the older bare list are accepted. Advisories
// without a severity get defaultSeverity.
func ParseAudit(data []byte, defaultSeverity finding.Severity) (int, []finding.Finding, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return 0, nil, errors.New("audit tool produced no output")
	}

	var deps []auditDependency
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal([]byte(trimmed), &deps); err != nil {
			return 0, nil, fmt.Errorf("parsing audit report: %w", err)
		}
	} else {
		var doc struct {
			Dependencies []auditDependency `json:"dependencies"`
		}
		if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
			return 0, nil, fmt.Errorf("parsing audit report: %w", err)
		}
		deps = doc.Dependencies
	}

	findings := []finding.Finding{}
	for _, dep := range deps {
		for _, v := range dep.Vulns {
			sev := defaultSeverity
			if v.Severity != "" {
				if parsed, err := finding.ParseSeverity(v.Severity); err == nil {
					sev = parsed
				}
			}
			findings = append(findings, finding.New(sev, describeVuln(v), dep.Name+"=="+dep.Version))
		}
	}
	return len(deps), findings, nil
}

func describeVuln(v auditVuln) string {
	var b strings.Builder
	b.WriteString(v.ID)
	if len(v.Aliases) > 0 {
		b.WriteString(" (" + strings.Join(v.Aliases, ", ") + ")")
	}
	if d := strings.TrimSpace(v.Description); d != "" {
		b.WriteString(": " + d)
	}
	if len(v.FixVersions) > 0 {
		b.WriteString("; fixed in " + strings.Join(v.FixVersions, ", "))
	}
	return b.String()
}
