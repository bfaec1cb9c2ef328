package calculator

import "StockSense/internal/model"

// DefaultSMAPeriods are the moving-average windows computed when none are configured.
var DefaultSMAPeriods = []int{20, 50, 200}

// Config selects which indicators Compute produces.
type Config struct {
	RSIPeriod  int
	SMAPeriods []int
}

func (c Config) withDefaults() Config {
	if c.RSIPeriod <= 0 {
		c.RSIPeriod = DefaultRSIPeriod
	}
	if len(c.SMAPeriods) == 0 {
		c.SMAPeriods = DefaultSMAPeriods
	}
	return c
}

// Compute builds the full indicator snapshot for a series. It never fails:
// indicators without enough data are reported as absent.
func Compute(series model.Series, cfg Config) model.IndicatorSnapshot {
	cfg = cfg.withDefaults()
	snap := model.IndicatorSnapshot{
		RSI:  RSI(series, cfg.RSIPeriod),
		MACD: MACD(series),
		SMA:  make(map[int]model.Optional[float64], len(cfg.SMAPeriods)),
	}
	for _, p := range cfg.SMAPeriods {
		snap.SMA[p] = SMA(series, p)
	}
	return snap
}
