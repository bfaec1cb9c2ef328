package calculator

import (
	"math"

	"StockSense/internal/model"
)

// DefaultLevelLookback is the number of recent bars scanned for support and resistance.
const DefaultLevelLookback = 20

// KeyLevels scans the most recent lookback bars and returns the lowest low as support
// and the highest high as resistance, with the last close's position in that range.
// Shorter series use every bar.
func KeyLevels(series model.Series, lookback int) model.Optional[model.KeyLevels] {
	if series.Len() == 0 {
		return model.None[model.KeyLevels]()
	}
	if lookback <= 0 {
		lookback = DefaultLevelLookback
	}
	bars := series.Tail(lookback)

	high := math.Inf(-1)
	low := math.Inf(1)
	for _, b := range bars {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	levels := model.KeyLevels{
		Support:    low,
		Resistance: high,
		Lookback:   len(bars),
	}
	levels.Position = RangePosition(bars[len(bars)-1].Close, levels)
	return model.Some(levels)
}

// RangePosition returns where price sits within [support, resistance] (0.0~1.0).
func RangePosition(price float64, levels model.KeyLevels) float64 {
	if levels.Resistance == levels.Support {
		return 0.5
	}
	pos := (price - levels.Support) / (levels.Resistance - levels.Support)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos
}
