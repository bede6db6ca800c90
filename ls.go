package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/abcdream-Lary/g-to-lan/internal/lanzou"
)

// newLsCmd builds the ls command: list a remote folder's subfolders and
// files. With no argument it lists the drive root.
func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls [folder-path]",
		Short: "List a remote folder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := buildLogger()
			printer := buildConsole()

			sess, err := newSession(logger, printer)
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			if err := ensureAuth(ctx, sess); err != nil {
				return fmt.Errorf("authenticating: %w", err)
			}

			folderID := lanzou.RootFolderID

			if len(args) == 1 {
				for _, segment := range strings.Split(strings.Trim(args[0], "/"), "/") {
					if segment == "" {
						continue
					}

					id := sess.ResolveFolderID(ctx, segment, folderID)
					if id == "" {
						return fmt.Errorf("remote folder not found: %s", args[0])
					}

					folderID = id
				}
			}

			folders := sess.ListFolders(ctx, folderID)
			files := sess.ListFiles(ctx, folderID)

			if len(folders) == 0 && len(files) == 0 {
				printer.Infof("(empty)")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)

			for _, f := range folders {
				fmt.Fprintf(w, "%s/\t%s\t%s\n", f.Name, f.Size, f.CreatedAt)
			}

			for _, f := range files {
				fmt.Fprintf(w, "%s\t%s\t%s\n", f.DisplayName(), f.Size, f.UploadedAt)
			}

			return w.Flush()
		},
	}
}
