package notes

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rizzk/vaultsync/internal/journal"
)

// InboxDir is the vault folder receiving generated notes
const InboxDir = "00_inbox"

// DailyPath returns where the daily ops note for date lives
func DailyPath(vaultDir, date string) string {
	return filepath.Join(vaultDir, InboxDir, date+"-daily-ops.md")
}

// Daily renders the daily ops note
func Daily(date string, tickers []journal.TickerStat, exports []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Daily Ops · %s\n\n", date)

	b.WriteString("## Top tickers by R:R\n")
	if len(tickers) == 0 {
		b.WriteString("- _No trades logged yet._\n")
	}
	for _, t := range tickers {
		fmt.Fprintf(&b, "- **%s** · R:R %.2f over %d trades\n", t.Ticker, t.AvgRR, t.Trades)
	}
	b.WriteString("\n")

	b.WriteString("## Latest exports\n")
	if len(exports) == 0 {
		b.WriteString("- _No exports found yet._\n")
	}
	for _, name := range exports {
		fmt.Fprintf(&b, "- %s\n", name)
	}
	b.WriteString("\n")

	b.WriteString("---\n")
	b.WriteString("Synced automatically by vaultsync\n")
	return b.String()
}
