package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EmergencyFunc renders a minimal document when the report step could not.
type EmergencyFunc func(rec *RunRecord, cause error) []byte

// Options configure a Runner.
type Options struct {
	Logger    *slog.Logger
	Emergency EmergencyFunc
	Now       func() time.Time
}

// Runner drives the steps of one pipeline run.
type Runner struct {
	steps     []Step
	report    Step
	log       *slog.Logger
	emergency EmergencyFunc
	now       func() time.Time
}

// NewRunner creates a runner for the given ordered steps. The report step is
// always executed last, after a halt as well; if it also appears in steps
// that entry is ignored.
func NewRunner(steps []Step, report Step, opts Options) *Runner {
	ordered := make([]Step, 0, len(steps))
	for _, s := range steps {
		if report != nil && s.Name() == report.Name() {
			continue
		}
		ordered = append(ordered, s)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Emergency == nil {
		opts.Emergency = minimalDocument
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Runner{
		steps:     ordered,
		report:    report,
		log:       opts.Logger,
		emergency: opts.Emergency,
		now:       opts.Now,
	}
}

// NewRunID returns "run-<UTC yyyymmdd-hhmmss>-<8 hex>".
func NewRunID(now time.Time) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("run-%s-%s", now.UTC().Format("20060102-150405"), id[:8])
}

// Run executes every step in order. After the first FAILURE the remaining
// steps are recorded as SKIPPED. The report step always runs, and st.Output
// always holds a document when Run returns.
func (r *Runner) Run(ctx context.Context, st *State) *RunRecord {
	if st.RunID == "" {
		st.RunID = NewRunID(r.now())
	}
	if st.Record == nil {
		st.Record = NewRecord(st.RunID, st.Inputs, r.now())
	}
	if st.Log == nil {
		st.Log = r.log
	}
	if st.clock == nil {
		st.clock = r.now
	}
	rec := st.Record
	log := r.log.With("run_id", st.RunID)
	log.Info("run started", "root", st.Inputs.Root, "target", st.Inputs.TargetFile, "steps", len(r.steps))

	halted := ""
	for _, step := range r.steps {
		name := step.Name()
		switch {
		case halted != "":
			rec.append(r.skip(name, fmt.Sprintf("halted after %s failed", halted)))
			continue
		case st.SkipSteps[name]:
			rec.append(r.skip(name, "skipped by request"))
			log.Info("step skipped", "step", name)
			continue
		}

		res := r.execute(ctx, step, st, log)
		rec.append(res)
		if res.Status == StatusFailure {
			halted = name
			log.Warn("halting pipeline", "step", name)
		}
	}

	if r.report != nil {
		rec.append(r.execute(ctx, r.report, st, log))
	}
	rec.EndTime = r.now()
	rec.OverallStatus = rec.Overall()

	if len(st.Output) == 0 {
		st.Output = r.emergency(rec, errors.New("report step produced no document"))
	}
	log.Info("run finished", "overall_status", rec.OverallStatus, "duration_ms", rec.EndTime.Sub(rec.StartTime).Milliseconds())
	return rec
}

func (r *Runner) skip(name, reason string) StepResult {
	now := r.now()
	return StepResult{
		Name:      name,
		Status:    StatusSkipped,
		StartTime: now,
		EndTime:   now,
		Details:   map[string]any{"reason": reason},
	}
}

func (r *Runner) execute(ctx context.Context, step Step, st *State, log *slog.Logger) StepResult {
	name := step.Name()
	start := r.now()
	st.StepStart = start
	log.Info("step started", "step", name)

	out, err := safeRun(ctx, step, st)
	status := out.Status
	res := StepResult{Name: name, StartTime: start, Details: out.Details}
	switch {
	case err != nil:
		status = StatusFailure
		res.Error = err.Error()
	case !status.Valid():
		res.Error = fmt.Sprintf("step returned unknown status %q", status)
		status = StatusFailure
	case !out.Pinned && st.Policy != nil:
		status = Promote(status, step.Gate(), st.Policy.Gates)
	}
	res.Status = status
	res.EndTime = r.now()
	res.DurationMS = res.EndTime.Sub(start).Milliseconds()

	attrs := []any{"step", name, "status", status, "duration_ms", res.DurationMS}
	if res.Error != "" {
		log.Error("step finished", append(attrs, "error", res.Error)...)
	} else {
		log.Info("step finished", attrs...)
	}
	return res
}

// safeRun converts a panicking step into an error.
func safeRun(ctx context.Context, step Step, st *State) (out Outcome, err error) {
	defer func() {
		if p := recover(); p != nil {
			st.Log.Error("step panicked", "step", step.Name(), "panic", p, "stack", string(debug.Stack()))
			out = Outcome{}
			err = fmt.Errorf("panic in %s: %v", step.Name(), p)
		}
	}()
	return step.Run(ctx, st)
}

func minimalDocument(rec *RunRecord, cause error) []byte {
	doc := map[string]any{
		"run_id":         rec.RunID,
		"overall_status": StatusFailure,
		"error":          cause.Error(),
		"steps":          rec.StepNames(),
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return []byte(`{"overall_status":"FAILURE"}`)
	}
	return data
}
