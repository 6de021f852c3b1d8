package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rizzk/vaultsync/internal/journal"
	"github.com/rizzk/vaultsync/internal/risk"
)

func newTradeCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Record and list trades in the journal",
	}
	cmd.AddCommand(newTradeAddCommand(app), newTradeListCommand(app))
	return cmd
}

func newTradeAddCommand(app *App) *cobra.Command {
	var req TradeRequest

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Log a trade and write its markdown export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, err := app.AddTrade(cmd.Context(), req)
			return err
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&req.Trade.Ticker, "ticker", "", "Ticker symbol")
	fs.StringVar(&req.Trade.Side, "side", "", "Trade side: long or short")
	fs.Float64Var(&req.Trade.Entry, "entry", 0, "Entry price")
	fs.Float64Var(&req.Trade.Stop, "stop", 0, "Stop price")
	fs.Float64Var(&req.Trade.Exit, "exit", 0, "Target / exit price")
	fs.Float64Var(&req.Trade.Qty, "qty", 1, "Quantity")
	fs.Float64Var(&req.Trade.Risk, "risk", 0, "Risk override in dollars (skips the limit check)")
	fs.Float64Var(&req.Trade.Reward, "reward", 0, "Reward override in dollars")
	fs.Float64Var(&req.MaxRisk, "max-risk", risk.DefaultMaxRisk, "Risk limit in dollars")
	fs.StringVar(&req.Trade.Date, "date", "", "Trade date (YYYY-MM-DD, default today UTC)")
	fs.StringVar(&req.Trade.Thesis, "thesis", "", "Trade thesis summary")
	fs.StringVar(&req.Trade.Notes, "notes", "", "Additional notes")
	fs.StringVar(&req.Trade.Tags, "tags", "", "Comma separated tags")

	for _, name := range []string{"ticker", "side", "entry", "stop"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newTradeListCommand(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the most recent trades",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.ListTrades(cmd.Context(), limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of trades to show (0 for all)")
	return cmd
}

func newDBCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the trade journal database",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the journal database and schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.InitDB(cmd.Context())
		},
	})
	return cmd
}

// writeTradeTable prints trades as aligned columns
func writeTradeTable(w io.Writer, trades []journal.Trade) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "DATE\tTICKER\tSIDE\tENTRY\tSTOP\tEXIT\tQTY\tRISK\tREWARD\tR:R\tID")
	for _, t := range trades {
		rr := "-"
		if t.RR != nil {
			rr = strconv.FormatFloat(*t.RR, 'f', 2, 64)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%g\t%g\t%g\t%g\t%.2f\t%.2f\t%s\t%s\n",
			t.Date, t.Ticker, t.Side, t.Entry, t.Stop, t.Exit, t.Qty, t.Risk, t.Reward, rr, shortID(t.ID))
	}
	return tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
