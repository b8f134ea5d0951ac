package market

import (
	"math"
	"strings"
)

// LotSize is the number of base-currency units in one standard lot.
const LotSize = 100_000.0

// PipSize returns the standard price increment for a symbol: 0.01 for
// JPY-quoted pairs, 0.0001 for everything else.
func PipSize(symbol string) float64 {
	if IsJPY(symbol) {
		return 0.01
	}
	return 0.0001
}

func IsJPY(symbol string) bool {
	return strings.Contains(strings.ToUpper(symbol), "JPY")
}

// Pips converts an absolute price distance into pips for the symbol.
func Pips(symbol string, dist float64) float64 {
	return math.Abs(dist) / PipSize(symbol)
}

// PipValuer converts one pip on one lot into account (USD) currency.
// It is pluggable so callers can substitute real cross-rate conversion.
type PipValuer func(symbol string) float64

// DefaultPipValue is a fixed approximation: $10 per pip per lot for
// USD-quoted pairs, scaled by 0.91 for JPY pairs in place of a live
// JPY/USD cross rate.
func DefaultPipValue(symbol string) float64 {
	if IsJPY(symbol) {
		return 0.91 * 10
	}
	return 10
}
