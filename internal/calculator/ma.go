package calculator

import "StockSense/internal/model"

// SMA returns the simple moving average of the last period closes.
// Absent when the series is shorter than period.
func SMA(series model.Series, period int) model.Optional[float64] {
	return smaOf(series.Closes(), period)
}

// EMA returns the exponential moving average over the whole series, seeded from the first close.
// Absent when the series is shorter than period.
func EMA(series model.Series, period int) model.Optional[float64] {
	return emaOf(series.Closes(), period)
}

func smaOf(closes []float64, period int) model.Optional[float64] {
	if period <= 0 || len(closes) < period {
		return model.None[float64]()
	}
	sum := 0.0
	for i := len(closes) - period; i < len(closes); i++ {
		sum += closes[i]
	}
	return model.Some(sum / float64(period))
}

func emaOf(closes []float64, period int) model.Optional[float64] {
	if period <= 0 || len(closes) < period {
		return model.None[float64]()
	}
	k := 2.0 / float64(period+1)
	ema := closes[0]
	for i := 1; i < len(closes); i++ {
		ema = closes[i]*k + ema*(1-k)
	}
	return model.Some(ema)
}
