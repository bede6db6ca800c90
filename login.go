package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newLoginCmd builds the login command: a fresh credential login that
// persists session cookies for later runs, ignoring any existing session.
func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in with configured credentials and persist the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := buildLogger()
			printer := buildConsole()

			sess, err := newSession(logger, printer)
			if err != nil {
				return err
			}

			if err := sess.Login(cmd.Context()); err != nil {
				return fmt.Errorf("logging in: %w", err)
			}

			printer.Successf("logged in, session saved")

			return nil
		},
	}
}
