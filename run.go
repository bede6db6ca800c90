package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abcdream-Lary/g-to-lan/internal/download"
	"github.com/abcdream-Lary/g-to-lan/internal/mirror"
	"github.com/abcdream-Lary/g-to-lan/internal/release"
	"github.com/abcdream-Lary/g-to-lan/internal/tasks"
)

// newRunCmd builds the run command: mirror every configured task now.
func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Mirror the latest release of every configured repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := buildLogger()
			printer := buildConsole()

			list, err := tasks.Load(tasksPath())
			if err != nil {
				return err
			}

			if len(list) == 0 {
				printer.Warnf("no tasks configured in %s", tasksPath())
				return nil
			}

			sess, err := newSession(logger, printer)
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			if err := ensureAuth(ctx, sess); err != nil {
				return fmt.Errorf("authenticating: %w", err)
			}

			runner := mirror.NewRunner(
				sess,
				release.NewResolver(defaultHTTPClient(), logger),
				download.New(defaultHTTPClient(), logger, printer),
				logger,
				printer,
			)

			return runner.Run(ctx, list)
		},
	}
}
