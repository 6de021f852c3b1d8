package journal

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	vsErrors "github.com/rizzk/vaultsync/internal/errors"
)

// ExportName returns the markdown file name for t
func ExportName(t Trade) string {
	id := t.ID
	if len(id) > 6 {
		id = id[:6]
	}
	name := fmt.Sprintf("trade_%s_%s_%s", t.Date, t.Ticker, id)
	return strings.ReplaceAll(name, " ", "_") + ".md"
}

// Markdown renders the export body for t
func Markdown(t Trade) string {
	rr := ""
	if t.RR != nil {
		rr = money(*t.RR)
	}

	lines := []string{
		"# Trade " + t.ID,
		"- Date: " + t.Date,
		"- Ticker: " + t.Ticker,
		"- Side: " + t.Side,
		"- Entry: " + number(t.Entry),
		"- Exit: " + number(t.Exit),
		"- Stop: " + number(t.Stop),
		"- Quantity: " + number(t.Qty),
		"- Risk ($): " + money(t.Risk),
		"- Reward ($): " + money(t.Reward),
		"- R:R: " + rr,
		"- Thesis: " + t.Thesis,
		"- Notes: " + t.Notes,
		"- Tags: " + t.Tags,
	}
	return strings.Join(lines, "\n") + "\n"
}

// Export writes t's markdown into dir, creating it if needed, and returns
// the file path.
func Export(fs afero.Fs, dir string, t Trade) (string, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return "", vsErrors.NewFSError("mkdir", dir, err)
	}

	path := filepath.Join(dir, ExportName(t))
	if err := afero.WriteFile(fs, path, []byte(Markdown(t)), 0o644); err != nil {
		return "", vsErrors.NewFSError("write", path, err)
	}
	return path, nil
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
