package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/bartekus/vetgate/cmd/vetgate/internal/clierr"
	"github.com/bartekus/vetgate/internal/completion"
	"github.com/bartekus/vetgate/internal/config"
	"github.com/bartekus/vetgate/internal/report"
	"github.com/bartekus/vetgate/internal/runner"
	"github.com/bartekus/vetgate/internal/steps"
)

type runOptions struct {
	root       string
	candidate  string
	target     string
	python     string
	configPath string
	commit     bool
	format     string
	skip       []string
	endpoint   string
	model      string
	reportFile string
}

func newRunCmd() *cobra.Command {
	var o runOptions
	cmd := &cobra.Command{
		Use:   "run --root DIR --candidate FILE --target PATH [flags]",
		Short: "Validate a candidate file against a project",
		Long: `Apply the candidate over the target file and run the validation pipeline.
The report is written to stdout. The exit code is 0 when the run did not fail,
1 when it failed, 2 for configuration errors and 3 for invalid invocations.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.root, "root", "", "absolute path of the project root")
	f.StringVar(&o.candidate, "candidate", "", "file holding the proposed content")
	f.StringVar(&o.target, "target", "", "file to replace, relative to the root")
	f.StringVar(&o.python, "python", "", "interpreter used to create the environment (e.g. python3.12)")
	f.StringVar(&o.configPath, "config", "", "policy file (default: vetgate.yaml or .vetgate.yaml in the working directory)")
	f.BoolVar(&o.commit, "commit", false, "commit the validated change")
	f.StringVar(&o.format, "format", "", "report format: json or text")
	f.StringSliceVar(&o.skip, "skip", nil, "skip step categories: audit, format, lint, typecheck, tests, review, hooks")
	f.StringVar(&o.endpoint, "endpoint", "", "completion service endpoint")
	f.StringVar(&o.model, "model", "", "completion model name")
	f.StringVar(&o.reportFile, "report-file", "", "also write the report to this file")
	return cmd
}

func (o *runOptions) run(cmd *cobra.Command) error {
	ctx := cmd.Context()
	log := loggerFor(cmd)

	policy, err := config.Load(o.configPath)
	if err != nil {
		return clierr.Wrap(clierr.ExitConfig, "loading policy", err)
	}
	policy, err = policy.WithOverrides(config.Overrides{
		Python:       o.python,
		Endpoint:     o.endpoint,
		Model:        o.model,
		ReportFormat: o.format,
	})
	if err != nil {
		return clierr.Wrap(clierr.ExitConfig, "applying overrides", err)
	}
	if src := policy.Source(); src != "" {
		log.Debug("policy loaded", "path", src)
	}

	in := runner.Inputs{
		Root:          o.root,
		CandidatePath: o.candidate,
		TargetFile:    o.target,
		Commit:        o.commit,
	}
	if err := in.Check(); err != nil {
		return clierr.Wrap(clierr.ExitInput, "invalid invocation", err)
	}
	skip, err := steps.SkipSet(o.skip)
	if err != nil {
		return clierr.Wrap(clierr.ExitInput, "invalid --skip", err)
	}
	pipeline, err := steps.Build(policy.Steps)
	if err != nil {
		return clierr.Wrap(clierr.ExitConfig, "building pipeline", err)
	}

	st := steps.NewState(policy, in, newCompleter(ctx, policy, log), log)
	st.SkipSteps = skip
	st.ReportFile = o.reportFile

	r := runner.NewRunner(pipeline, steps.Report(), runner.Options{
		Logger:    log,
		Emergency: report.Emergency,
	})
	rec := r.Run(ctx, st)

	if _, err := cmd.OutOrStdout().Write(st.Output); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	if rec.OverallStatus == runner.StatusFailure {
		return clierr.Silent(clierr.ExitFailure)
	}
	return nil
}

// newCompleter builds the completion client. A client that cannot be built
// does not stop the run: the steps that need it fail or warn on their own.
func newCompleter(ctx context.Context, p *config.Policy, log *slog.Logger) runner.Completer {
	m, err := completion.NewChatModel(ctx, p.Completion)
	if err != nil {
		log.Warn("completion service unavailable", "provider", p.Completion.Provider, "error", err)
		return unavailable{err: err}
	}
	c, err := completion.NewClient(m, completion.Options{
		TestPrompt:   p.Prompts.TestGeneration,
		ReviewPrompt: p.Prompts.Review,
		MaxAttempts:  p.Completion.MaxAttempts,
		RetryDelay:   p.Completion.RetryDelay(),
		Timeout:      p.Completion.Timeout(),
	}, log)
	if err != nil {
		log.Warn("completion client unavailable", "error", err)
		return unavailable{err: err}
	}
	return c
}

type unavailable struct{ err error }

func (u unavailable) GenerateTests(context.Context, string, string, string) (completion.TestGeneration, error) {
	return completion.TestGeneration{}, fmt.Errorf("completion service unavailable: %w", u.err)
}

func (u unavailable) GenerateReview(context.Context, string, string) (completion.Review, error) {
	return completion.Review{}, fmt.Errorf("completion service unavailable: %w", u.err)
}
