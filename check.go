package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abcdream-Lary/g-to-lan/internal/mirror"
	"github.com/abcdream-Lary/g-to-lan/internal/release"
	"github.com/abcdream-Lary/g-to-lan/internal/tasks"
)

// newCheckCmd builds the check command: compare the latest release of each
// task against the remote drive and start a mirror run when anything is
// behind.
func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check for new releases and mirror them when found",
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

			checker := mirror.NewChecker(
				sess,
				release.NewResolver(defaultHTTPClient(), logger),
				logger,
				printer,
			)

			return checker.Check(ctx, list)
		},
	}
}
