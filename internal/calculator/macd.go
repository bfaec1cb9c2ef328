package calculator

import "StockSense/internal/model"

const (
	macdFast   = 12
	macdSlow   = 26
	macdSignal = 9
)

// MACD computes EMA12 - EMA26 with a 9-period EMA of closes as the signal line.
// Absent when fewer than 26 bars are available.
func MACD(series model.Series) model.Optional[model.MACD] {
	closes := series.Closes()
	if len(closes) < macdSlow {
		return model.None[model.MACD]()
	}
	fast, _ := emaOf(closes, macdFast).Get()
	slow, _ := emaOf(closes, macdSlow).Get()
	signal, _ := emaOf(closes, macdSignal).Get()

	line := fast - slow
	return model.Some(model.MACD{
		MACD:      line,
		Signal:    signal,
		Histogram: line - signal,
	})
}
