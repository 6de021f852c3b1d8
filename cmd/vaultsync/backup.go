package main

import (
	"github.com/spf13/cobra"
)

func newBackupCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Archive the vault and journal into a timestamped zip",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := app.Backup()
			return err
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&app.Config.BackupDir, "backup-dir", app.Config.BackupDir, "Directory receiving archives, relative to the repository")
	fs.StringSliceVar(&app.Config.BackupSources, "source", app.Config.BackupSources, "Directory to include (repeatable; default: vault and database directory)")
	return cmd
}
