package journal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vsErrors "github.com/rizzk/vaultsync/internal/errors"
)

var fixedNow = time.Date(2026, 4, 2, 23, 30, 0, 0, time.FixedZone("EST", -5*3600))

func ptr(v float64) *float64 { return &v }

func TestNormalize(t *testing.T) {
	tests := map[string]struct {
		in         Trade
		wantRisk   float64
		wantReward float64
		wantRR     *float64
		wantSide   string
		wantDate   string
	}{
		"derives risk reward and ratio": {
			in:         Trade{Ticker: "aapl", Entry: 100, Stop: 95, Exit: 115, Qty: 10},
			wantRisk:   50,
			wantReward: 150,
			wantRR:     ptr(3),
			wantSide:   SideLong,
			wantDate:   "2026-04-03",
		},
		"overrides are kept": {
			in:         Trade{Ticker: "msft", Side: "short", Date: "2026-01-05", Entry: 100, Stop: 105, Exit: 90, Qty: 1, Risk: 20, Reward: 40},
			wantRisk:   20,
			wantReward: 40,
			wantRR:     ptr(2),
			wantSide:   SideShort,
			wantDate:   "2026-01-05",
		},
		"no exit means zero reward": {
			in:         Trade{Ticker: "tsla", Entry: 200, Stop: 190, Qty: 2},
			wantRisk:   20,
			wantReward: 0,
			wantRR:     ptr(0),
			wantSide:   SideLong,
			wantDate:   "2026-04-03",
		},
		"zero risk leaves ratio empty": {
			in:         Trade{Ticker: "spy", Entry: 400, Stop: 400, Exit: 410, Qty: 1},
			wantRisk:   0,
			wantReward: 10,
			wantRR:     nil,
			wantSide:   SideLong,
			wantDate:   "2026-04-03",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := tc.in.Normalize(fixedNow)
			require.NoError(t, err)

			assert.NotEmpty(t, got.ID)
			assert.Equal(t, tc.wantDate, got.Date)
			assert.Equal(t, tc.wantSide, got.Side)
			assert.InDelta(t, tc.wantRisk, got.Risk, 1e-9)
			assert.InDelta(t, tc.wantReward, got.Reward, 1e-9)
			if tc.wantRR == nil {
				assert.Nil(t, got.RR)
			} else {
				require.NotNil(t, got.RR)
				assert.InDelta(t, *tc.wantRR, *got.RR, 1e-9)
			}
		})
	}
}

func TestNormalizeRejects(t *testing.T) {
	tests := map[string]Trade{
		"missing ticker": {Entry: 1, Stop: 2, Qty: 1},
		"unknown side":   {Ticker: "X", Side: "sideways"},
		"bad date":       {Ticker: "X", Date: "04/02/2026"},
	}

	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := in.Normalize(fixedNow)
			require.Error(t, err)
			assert.True(t, vsErrors.Is(err, vsErrors.ErrInvalidTrade))
		})
	}
}

func TestTagList(t *testing.T) {
	assert.Equal(t, []string{"breakout", "earnings"}, Trade{Tags: " breakout, ,earnings"}.TagList())
	assert.Nil(t, Trade{}.TagList())
}
