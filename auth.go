package main

import (
	"github.com/spf13/cobra"

	"github.com/harrisonrobin/todosync/pkg/auth"
	"github.com/harrisonrobin/todosync/pkg/config"
)

func newAuthCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize todosync to read your Google Tasks",
		Long: `Run the Google OAuth flow again and save a fresh token.

The client secrets file (credentials.json) must be in the todosync config
directory. Any saved token is removed first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.Dir()
			if err != nil {
				return err
			}
			if err := auth.RemoveToken(dir); err != nil {
				return err
			}
			if _, err := auth.GetTasksService(cmd.Context(), dir, root.logger); err != nil {
				return err
			}
			root.logger.Info("authentication successful", "dir", dir)
			return nil
		},
	}
}
