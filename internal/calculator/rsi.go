package calculator

import "StockSense/internal/model"

// DefaultRSIPeriod is the look-back used when no period is configured.
const DefaultRSIPeriod = 14

// RSI computes the relative strength index over the most recent period transitions
// using a simple average of gains and losses.
// Requires at least period+1 bars; returns absent otherwise.
func RSI(series model.Series, period int) model.Optional[float64] {
	if period <= 0 {
		return model.None[float64]()
	}
	closes := series.Closes()
	if len(closes) < period+1 {
		return model.None[float64]()
	}

	var gains, losses float64
	for i := len(closes) - period; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		return model.Some(100.0)
	}
	rs := avgGain / avgLoss
	return model.Some(100.0 - 100.0/(1.0+rs))
}
