package main

import (
	"github.com/spf13/cobra"
)

func newNoteCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Generate notes inside the vault",
	}
	cmd.AddCommand(newNoteRenderCommand(app), newNoteDailyCommand(app))
	return cmd
}

func newNoteRenderCommand(app *App) *cobra.Command {
	var (
		req                         RenderRequest
		name, summary, ticker, date string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a {{key}} template and commit the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Values = map[string]string{
				"name":    name,
				"summary": summary,
				"ticker":  ticker,
				"date":    date,
			}
			_, err := app.RenderNote(cmd.Context(), req)
			return err
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&req.Template, "tpl", "", "Template file name inside the templates directory")
	fs.StringVar(&req.Out, "out", "", "Output path relative to the repository root")
	fs.StringVar(&name, "name", "Untitled", "Value for {{name}}")
	fs.StringVar(&summary, "summary", "", "Value for {{summary}}")
	fs.StringVar(&ticker, "ticker", "", "Value for {{ticker}}")
	fs.StringVar(&date, "date", "", "Value for {{date}} (default today)")
	fs.StringVar(&app.Config.TemplatesDir, "templates", app.Config.TemplatesDir, "Templates directory, relative to the repository")
	fs.BoolVar(&app.Config.NoPush, "no-push", app.Config.NoPush, "Commit without pushing")

	_ = cmd.MarkFlagRequired("tpl")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func newNoteDailyCommand(app *App) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Write the daily ops note into the vault inbox",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := app.WriteDailyNote(cmd.Context(), date)
			return err
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Note date (YYYY-MM-DD, default today)")
	return cmd
}
