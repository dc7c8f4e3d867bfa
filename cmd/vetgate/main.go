// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bartekus/vetgate/cmd/vetgate/commands"
	"github.com/bartekus/vetgate/cmd/vetgate/internal/clierr"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := commands.NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		if !clierr.IsSilent(err) {
			fmt.Fprintln(os.Stderr, "vetgate:", err)
		}
		os.Exit(clierr.ExitCodeOf(err))
	}
}
