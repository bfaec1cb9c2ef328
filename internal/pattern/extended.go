package pattern

import (
	talibcdl "github.com/iwat/talib-cdl-go"

	"StockSense/internal/model"
)

const (
	NameThreeWhiteSoldiers = "Three White Soldiers"
	NameThreeBlackCrows    = "Three Black Crows"
	NamePiercing           = "Piercing"
	NameThreeInside        = "Three Inside"
	NameThreeOutside       = "Three Outside"
)

const (
	// extendedMinBars covers the longest candle-average look-back used by the library.
	extendedMinBars    = 16
	extendedConfidence = 0.7
)

// ExtendedDetectors returns the library-backed detectors in the order they run after the core set.
func ExtendedDetectors() []Detector {
	return []Detector{
		talibDetector{
			name:    NameThreeWhiteSoldiers,
			fn:      talibcdl.ThreeWhiteSoldiers,
			bullish: "Three consecutive strong bullish candles. Sustained buying pressure.",
		},
		talibDetector{
			name:    NameThreeBlackCrows,
			fn:      talibcdl.ThreeBlackCrows,
			bearish: "Three consecutive strong bearish candles. Sustained selling pressure.",
		},
		talibDetector{
			name:    NamePiercing,
			fn:      talibcdl.Piercing,
			bullish: "Bullish candle recovering past the midpoint of a prior bearish candle.",
		},
		talibDetector{
			name:    NameThreeInside,
			fn:      talibcdl.ThreeInside,
			bullish: "Harami followed by confirmation to the upside.",
			bearish: "Harami followed by confirmation to the downside.",
		},
		talibDetector{
			name:    NameThreeOutside,
			fn:      talibcdl.ThreeOutside,
			bullish: "Engulfing pattern followed by a higher close.",
			bearish: "Engulfing pattern followed by a lower close.",
		},
	}
}

// talibDetector adapts a talib-cdl-go function. The library reports a signed
// score per bar; only the last bar is inspected and the sign gives direction.
// An empty description means that direction is not reported.
type talibDetector struct {
	name    string
	fn      func(talibcdl.Series) []int
	bullish string
	bearish string
}

func (d talibDetector) Name() string { return d.name }

func (d talibDetector) Detect(series model.Series) (model.Finding, bool) {
	n := series.Len()
	if n < extendedMinBars {
		return model.Finding{}, false
	}
	results := d.fn(toSeries(series))
	last := n - 1
	if len(results) <= last || results[last] == 0 {
		return model.Finding{}, false
	}

	f := model.Finding{
		Name:       d.name,
		Confidence: extendedConfidence,
	}
	switch {
	case results[last] > 0 && d.bullish != "":
		f.Sentiment = model.SentimentBullish
		f.Action = model.ActionBuy
		f.Description = d.bullish
	case results[last] < 0 && d.bearish != "":
		f.Sentiment = model.SentimentBearish
		f.Action = model.ActionSell
		f.Description = d.bearish
	default:
		return model.Finding{}, false
	}
	return f, true
}

// toSeries converts bars to talib-cdl-go SimpleSeries format, oldest first.
func toSeries(series model.Series) talibcdl.SimpleSeries {
	bars := series.Bars()
	n := len(bars)
	out := talibcdl.SimpleSeries{
		Opens:  make([]float64, n),
		Highs:  make([]float64, n),
		Lows:   make([]float64, n),
		Closes: make([]float64, n),
	}
	for i, b := range bars {
		out.Opens[i] = b.Open
		out.Highs[i] = b.High
		out.Lows[i] = b.Low
		out.Closes[i] = b.Close
	}
	return out
}
