package journal

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	vsErrors "github.com/rizzk/vaultsync/internal/errors"
)

// DateLayout is the stored trade date format
const DateLayout = "2006-01-02"

// Trade sides
const (
	SideLong  = "long"
	SideShort = "short"
)

// Trade is one journal row
type Trade struct {
	ID     string
	Date   string
	Ticker string
	Side   string
	Entry  float64
	Exit   float64
	Stop   float64
	Qty    float64
	Risk   float64
	Reward float64

	// RR is reward divided by risk, nil when risk is not positive
	RR *float64

	Thesis string
	Notes  string
	Tags   string
}

// Normalize fills defaults and derived values. Risk and Reward are only
// derived when not already positive.
func (t Trade) Normalize(now time.Time) (Trade, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Date == "" {
		t.Date = now.UTC().Format(DateLayout)
	} else if _, err := time.Parse(DateLayout, t.Date); err != nil {
		return t, vsErrors.Wrapf(vsErrors.ErrInvalidTrade, "date %q is not YYYY-MM-DD", t.Date)
	}

	t.Ticker = strings.ToUpper(strings.TrimSpace(t.Ticker))
	if t.Ticker == "" {
		return t, vsErrors.Wrap(vsErrors.ErrInvalidTrade, "ticker is required")
	}

	t.Side = strings.ToLower(strings.TrimSpace(t.Side))
	switch t.Side {
	case "":
		t.Side = SideLong
	case SideLong, SideShort:
	default:
		return t, vsErrors.Wrapf(vsErrors.ErrInvalidTrade, "side must be %q or %q, got %q", SideLong, SideShort, t.Side)
	}

	if t.Risk <= 0 && t.Qty > 0 {
		t.Risk = math.Abs(t.Entry-t.Stop) * t.Qty
	}
	if t.Reward <= 0 && t.Qty > 0 && t.Exit > 0 {
		t.Reward = math.Abs(t.Exit-t.Entry) * t.Qty
	}

	t.RR = nil
	if t.Risk > 0 {
		rr := t.Reward / t.Risk
		t.RR = &rr
	}
	return t, nil
}

// TagList splits the comma separated tags
func (t Trade) TagList() []string {
	var tags []string
	for _, tag := range strings.Split(t.Tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// TickerStat aggregates trades for one ticker
type TickerStat struct {
	Ticker string
	AvgRR  float64
	Trades int
}
