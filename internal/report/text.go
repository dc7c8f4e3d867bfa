// SPDX-License-Identifier: AGPL-3.0-or-later

package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/bartekus/vetgate/internal/finding"
	"github.com/bartekus/vetgate/internal/projection"
	"github.com/bartekus/vetgate/internal/runner"
)

// Text renders rec for a terminal.
func (g *Generator) Text(rec *runner.RunRecord) ([]byte, error) {
	var b strings.Builder

	b.WriteString(projection.RenderHeader("vetgate " + rec.RunID))
	field := func(label, value string) {
		fmt.Fprintf(&b, "%-10s %s\n", label+":", Truncate(value, g.MaxFieldLength))
	}
	field("Overall", string(rec.OverallStatus))
	field("Target", filepath.Join(rec.TargetRoot, rec.TargetFile))
	field("Candidate", rec.CandidatePath)
	field("Started", formatTime(rec.StartTime))
	field("Finished", formatTime(rec.EndTime))
	field("Commit", commitLine(rec.Commit))
	b.WriteString("\n")

	b.WriteString(projection.RenderHeader("Steps"))
	rows := make([][]string, 0, len(rec.Steps))
	for _, s := range rec.Steps {
		rows = append(rows, []string{s.Name, string(s.Status), fmt.Sprintf("%dms", s.DurationMS), detailsNote(s)})
	}
	b.WriteString(projection.RenderTable([]string{"STEP", "STATUS", "DURATION", "NOTE"}, rows))

	if a := rec.AuditSummary; a != nil {
		b.WriteString("\n")
		b.WriteString(projection.RenderHeader("Dependency audit"))
		if !a.Ran {
			b.WriteString("audit tool not available\n")
		} else {
			fmt.Fprintf(&b, "%d dependencies scanned, threshold %s\n", a.Dependencies, a.Threshold)
			b.WriteString(countsLine(a.Counts) + "\n")
			b.WriteString(findingsList(a.Findings, g.MaxFieldLength))
		}
	}

	if r := rec.ReviewSummary; r != nil {
		b.WriteString("\n")
		b.WriteString(projection.RenderHeader("Review (advisory)"))
		b.WriteString(countsLine(r.Counts) + "\n")
		b.WriteString(findingsList(r.Findings, g.MaxFieldLength))
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "warning: %s\n", Truncate(w, g.MaxFieldLength))
		}
	}

	if t := rec.TestSummary; t != nil {
		b.WriteString("\n")
		b.WriteString(projection.RenderHeader("Generated tests"))
		fmt.Fprintf(&b, "file %s, exit %d\n", t.TestFile, t.ExitCode)
		if t.NoTestsCollected {
			b.WriteString("no tests collected\n")
		} else {
			fmt.Fprintf(&b, "passed=%d failed=%d errors=%d skipped=%d\n", t.Passed, t.Failed, t.Errors, t.Skipped)
		}
	}

	return []byte(b.String()), nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func commitLine(c runner.CommitOutcome) string {
	switch {
	case !c.Attempted:
		return "not attempted"
	case c.Revision == nil:
		return "attempted, nothing committed"
	default:
		return "committed " + *c.Revision
	}
}

func countsLine(counts map[finding.Severity]int) string {
	parts := make([]string, 0, len(finding.Severities()))
	sevs := finding.Severities()
	for i := len(sevs) - 1; i >= 0; i-- {
		parts = append(parts, fmt.Sprintf("%s=%d", sevs[i], counts[sevs[i]]))
	}
	return strings.Join(parts, " ")
}

func findingsList(fs []finding.Finding, limit int) string {
	if len(fs) == 0 {
		return "no findings\n"
	}
	items := make([]string, 0, len(fs))
	for _, f := range finding.SortBySeverity(fs) {
		items = append(items, Truncate(fmt.Sprintf("[%s] %s (%s)", f.Severity, f.Description, f.Location), limit))
	}
	return projection.RenderList(items)
}
