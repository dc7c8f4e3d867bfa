// SPDX-License-Identifier: AGPL-3.0-or-later

package steps

import (
	"context"

	"github.com/bartekus/vetgate/internal/config"
	"github.com/bartekus/vetgate/internal/report"
	"github.com/bartekus/vetgate/internal/runner"
)

type generateReport struct{ base }

func newGenerateReport() runner.Step {
	return &generateReport{base{name: config.StepGenerateReport}}
}

// Run renders the run record, including a provisional entry for itself, into
// st.Output. A rendering failure produces the emergency document and FAILURE.
// When the --report-file copy cannot be written the step is WARNING and the
// document on stdout is re-rendered to say so.
func (s *generateReport) Run(ctx context.Context, st *runner.State) (runner.Outcome, error) {
	format := st.ReportFormat
	if format == "" {
		format = st.Policy.Report.Format
	}
	details := map[string]any{"format": format}
	if st.ReportFile != "" {
		details["report_file"] = st.ReportFile
	}

	now := st.Now()
	snap := st.Record.Snapshot()
	snap.Steps = append(snap.Steps, runner.StepResult{
		Name:       s.name,
		Status:     runner.StatusSuccess,
		StartTime:  st.StepStart,
		EndTime:    now,
		DurationMS: now.Sub(st.StepStart).Milliseconds(),
		Details:    details,
	})
	snap.EndTime = now
	snap.OverallStatus = snap.Overall()
	self := &snap.Steps[len(snap.Steps)-1]

	gen := report.NewGenerator(st.Policy.Report.MaxFieldLength)
	doc, err := gen.Render(snap, format)
	if err != nil {
		st.Log.Error("report rendering failed, emitting emergency document", "error", err)
		details["error"] = err.Error()
		details["emergency"] = true
		self.Status = runner.StatusFailure
		st.Output = report.Emergency(snap, err)
		return runner.Failure(details), nil
	}

	if werr := report.NewWriter(st.ReportFile).Write(doc); werr != nil {
		// The copy is lost; stdout still carries the document, and it must
		// say what the record says.
		st.Log.Warn("writing report copy failed", "path", st.ReportFile, "error", werr)
		details["error"] = werr.Error()
		self.Status = runner.StatusWarning
		if doc, err = gen.Render(snap, format); err != nil {
			st.Output = report.Emergency(snap, err)
			return runner.Failure(details), nil
		}
		st.Output = doc
		details["bytes"] = len(doc)
		return runner.Warning(details), nil
	}
	st.Output = doc
	details["bytes"] = len(doc)
	return runner.Success(details), nil
}
