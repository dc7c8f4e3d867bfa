package runner

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/bartekus/vetgate/internal/completion"
	"github.com/bartekus/vetgate/internal/config"
	"github.com/bartekus/vetgate/internal/gitrepo"
	"github.com/bartekus/vetgate/internal/pysource"
	"github.com/bartekus/vetgate/internal/toolrunner"
	"github.com/bartekus/vetgate/internal/venv"
)

// Inputs is one invocation's request.
type Inputs struct {
	// Root is the absolute project root.
	Root string
	// CandidatePath is the file holding the proposed content.
	CandidatePath string
	// TargetFile is the file to replace, relative to Root.
	TargetFile string
	// Commit requests a commit of the validated change.
	Commit bool
}

// InputError is an invocation that cannot start a run at all.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input %s: %s", e.Field, e.Reason)
}

// Check rejects inputs that are missing or malformed. Existence and
// containment are verified later by the validate_inputs step so that they
// appear in the report.
func (in Inputs) Check() error {
	switch {
	case strings.TrimSpace(in.Root) == "":
		return &InputError{Field: "root", Reason: "required"}
	case !filepath.IsAbs(in.Root):
		return &InputError{Field: "root", Reason: fmt.Sprintf("%q is not absolute", in.Root)}
	case strings.TrimSpace(in.CandidatePath) == "":
		return &InputError{Field: "candidate", Reason: "required"}
	case strings.TrimSpace(in.TargetFile) == "":
		return &InputError{Field: "target", Reason: "required"}
	case filepath.IsAbs(in.TargetFile):
		return &InputError{Field: "target", Reason: fmt.Sprintf("%q must be relative to the root", in.TargetFile)}
	}
	return nil
}

// Completer generates tests and reviews. *completion.Client satisfies it.
type Completer interface {
	GenerateTests(ctx context.Context, code, moduleName, signatures string) (completion.TestGeneration, error)
	GenerateReview(ctx context.Context, code, moduleName string) (completion.Review, error)
}

// State is everything one run owns. Steps read their collaborators from it
// and thread their outputs to later steps through it.
type State struct {
	RunID  string
	Inputs Inputs
	Policy *config.Policy
	Log    *slog.Logger

	Tools      *toolrunner.Runner
	Env        *venv.Manager
	Completion Completer
	Git        *gitrepo.Repo

	// SkipSteps holds step names the caller asked to skip.
	SkipSteps map[string]bool

	Record *RunRecord

	// Outputs threaded between steps.
	TargetPath     string
	Applied        bool
	Signatures     []pysource.Signature
	GeneratedTests string
	TestPath       string

	// ReportFormat selects the final document rendering.
	ReportFormat string
	// ReportFile, when set, receives a copy of the final document.
	ReportFile string
	// Output receives the final document.
	Output []byte

	// StepStart is the start time of the step currently running.
	StepStart time.Time

	clock func() time.Time
}

// Now reads the run's clock.
func (st *State) Now() time.Time {
	if st.clock != nil {
		return st.clock()
	}
	return time.Now()
}

// ModuleName is the dotted module name of the target file.
func (st *State) ModuleName() string {
	return pysource.ModuleName(filepath.ToSlash(st.Inputs.TargetFile))
}
