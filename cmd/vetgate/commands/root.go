// SPDX-License-Identifier: AGPL-3.0-or-later

/*
vetgate - validates a proposed replacement for one Python source file inside a
project before the change is accepted.

It applies the candidate, runs the project's formatter, linter, type checker,
dependency audit and generated tests in an isolated environment, and emits a
single report describing every step.

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.
*/

package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bartekus/vetgate/internal/logging"
)

// NewRootCmd constructs the vetgate root command.
func NewRootCmd() *cobra.Command {
	version := os.Getenv("VETGATE_VERSION")
	if version == "" {
		version = "0.0.0-dev"
	}

	cmd := &cobra.Command{
		Use:           "vetgate",
		Short:         "vetgate - validation gate for proposed Python changes",
		Long:          "vetgate applies a candidate file to a project, runs formatting, linting, type checking, auditing and generated tests, and reports every step.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env "+logging.EnvLevel+")")
	cmd.PersistentFlags().String("log-format", "", "log format: text or json (env "+logging.EnvFormat+")")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of vetgate",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "vetgate version %s\n", version)
		},
	})
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newStepsCmd())

	return cmd
}

// loggerFor builds the process logger from the global flags. Logs go to the
// command's stderr so stdout only ever carries the report.
func loggerFor(cmd *cobra.Command) *slog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	return logging.New(level, format, cmd.ErrOrStderr())
}
