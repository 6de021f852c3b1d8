package main

import (
	"github.com/spf13/cobra"
)

// newRootCommand builds the command tree around app. Flags write straight
// into app.Config, so the environment must already be loaded.
func newRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "vaultsync",
		Short: "Keep a notes vault committed and pushed",
		Long: `vaultsync watches a notes vault inside a git working tree and commits it
once edits settle, trimming the exports folder along the way.

It also carries the small tools around the vault: a SQLite trade journal
with markdown exports, template rendering, a daily ops note and backups.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.Prepare(func(flag string) bool {
				f := cmd.Flags().Lookup(flag)
				return f != nil && f.Changed
			})
		},
	}

	app.Config.SetupFlags(root.PersistentFlags())

	root.AddCommand(
		newSyncCommand(app),
		newTradeCommand(app),
		newDBCommand(app),
		newNoteCommand(app),
		newBackupCommand(app),
		newVersionCommand(app),
	)
	return root
}

func newVersionCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// skip config resolution
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			app.ShowVersion()
		},
	}
}
