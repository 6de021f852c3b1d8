// Package risk checks a planned trade's dollar exposure against a limit.
package risk

import (
	"math"

	vsErrors "github.com/rizzk/vaultsync/internal/errors"
)

// DefaultMaxRisk is the dollar limit applied when none is given
const DefaultMaxRisk = 10000.0

// Exposure is the dollar amount lost if the stop is hit
func Exposure(entry, stop, qty float64) float64 {
	return math.Abs(entry-stop) * math.Max(qty, 0)
}

// Validate returns the trade's exposure, or an error wrapping
// ErrInvalidTrade when entry equals stop, qty is not positive, or the
// exposure exceeds maxRisk. The exposure is returned alongside the limit
// error so callers can report it.
func Validate(entry, stop, qty, maxRisk float64) (float64, error) {
	if math.IsNaN(entry) || math.IsNaN(stop) || math.IsNaN(qty) || math.IsNaN(maxRisk) {
		return 0, vsErrors.Wrap(vsErrors.ErrInvalidTrade, "entry, stop, quantity and risk limit must be numeric")
	}

	if math.Abs(entry-stop) <= 0 {
		return 0, vsErrors.Wrap(vsErrors.ErrInvalidTrade, "entry and stop must differ to compute risk")
	}

	exposure := Exposure(entry, stop, qty)
	if exposure <= 0 {
		return 0, vsErrors.Wrap(vsErrors.ErrInvalidTrade, "quantity must be positive")
	}

	if exposure > maxRisk {
		return exposure, vsErrors.Wrapf(vsErrors.ErrInvalidTrade, "risk $%.2f exceeds limit $%.2f", exposure, maxRisk)
	}
	return exposure, nil
}
