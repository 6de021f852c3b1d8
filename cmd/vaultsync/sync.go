package main

import (
	"context"

	"github.com/spf13/cobra"

	vsErrors "github.com/rizzk/vaultsync/internal/errors"
)

func newSyncCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Watch the vault and commit changes once they settle",
		Long: `Watch the vault and exports folders. Once the newest change is older than
the settle window, prune the exports folder, stage everything, commit and
push. Runs until interrupted, then prints a session summary.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := app.RunSync(cmd.Context())
			app.PrintSummary()
			if vsErrors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	app.Config.SetupSyncFlags(cmd.Flags())
	return cmd
}
