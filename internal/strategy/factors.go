package strategy

import (
	"fmt"
	"math"

	"StockSense/internal/calculator"
	"StockSense/internal/model"
)

const (
	weightPatterns = 0.4
	weightRSI      = 0.3
	weightMACD     = 0.2
	weightTrend    = 0.1

	trendPeriod = 20
)

// Score thresholds for BUY and SELL; anything in between is HOLD.
const (
	BuyThreshold  = 0.3
	SellThreshold = -0.3
)

func mapAction(totalScore float64) model.Action {
	switch {
	case totalScore >= BuyThreshold:
		return model.ActionBuy
	case totalScore <= SellThreshold:
		return model.ActionSell
	default:
		return model.ActionHold
	}
}

// Recommend scores the findings and indicators of one series into a verdict.
// A series where no factor can be computed yields WAIT.
func Recommend(series model.Series, findings []model.Finding, snap model.IndicatorSnapshot) model.Recommendation {
	trendSMA := snap.SMAFor(trendPeriod)
	if !trendSMA.IsPresent() {
		trendSMA = calculator.SMA(series, trendPeriod)
	}
	var lastClose model.Optional[float64]
	if last, ok := series.Last(); ok {
		lastClose = model.Some(last.Close)
	}

	f1, ok1 := scorePatterns(findings)
	f2, ok2 := scoreRSI(snap.RSI)
	f3, ok3 := scoreMACD(snap.MACD)
	f4, ok4 := scoreTrend(lastClose, trendSMA)

	factors := []model.FactorScore{f1, f2, f3, f4}
	totalScore := f1.Weighted + f2.Weighted + f3.Weighted + f4.Weighted

	rec := model.Recommendation{
		Factors:    factors,
		TotalScore: totalScore,
		RiskLevel:  riskLevel(findings, snap.RSI),
	}
	if !ok1 && !ok2 && !ok3 && !ok4 {
		rec.Action = model.ActionWait
		return rec
	}
	rec.Action = mapAction(totalScore)
	return rec
}

func unavailable(name string, weight float64) model.FactorScore {
	return model.FactorScore{Name: name, Weight: weight, Commentary: "n/a"}
}

// scorePatterns nets bullish against bearish confidence, clamped to [-1, 1].
// Weight: 0.4
func scorePatterns(findings []model.Finding) (model.FactorScore, bool) {
	if len(findings) == 0 {
		return unavailable("patterns", weightPatterns), false
	}
	var score float64
	var bull, bear int
	for _, f := range findings {
		switch f.Sentiment {
		case model.SentimentBullish:
			score += f.Confidence
			bull++
		case model.SentimentBearish:
			score -= f.Confidence
			bear++
		}
	}
	score = math.Max(-1, math.Min(1, score))
	return model.FactorScore{
		Name:       "patterns",
		RawScore:   score,
		Weight:     weightPatterns,
		Weighted:   score * weightPatterns,
		Commentary: fmt.Sprintf("%d bullish, %d bearish", bull, bear),
	}, true
}

// scoreRSI rewards oversold and penalizes overbought readings.
// Weight: 0.3
func scoreRSI(rsi model.Optional[float64]) (model.FactorScore, bool) {
	v, ok := rsi.Get()
	if !ok {
		return unavailable("rsi", weightRSI), false
	}
	var score float64
	var commentary string
	switch {
	case v <= 30:
		score = 1
		commentary = fmt.Sprintf("RSI=%.0f oversold", v)
	case v >= 70:
		score = -1
		commentary = fmt.Sprintf("RSI=%.0f overbought", v)
	default:
		commentary = fmt.Sprintf("RSI=%.0f", v)
	}
	return model.FactorScore{
		Name:       "rsi",
		RawScore:   score,
		Weight:     weightRSI,
		Weighted:   score * weightRSI,
		Commentary: commentary,
	}, true
}

// scoreMACD follows the sign of the histogram.
// Weight: 0.2
func scoreMACD(macd model.Optional[model.MACD]) (model.FactorScore, bool) {
	m, ok := macd.Get()
	if !ok {
		return unavailable("macd", weightMACD), false
	}
	var score float64
	switch {
	case m.Histogram > 0:
		score = 1
	case m.Histogram < 0:
		score = -1
	}
	return model.FactorScore{
		Name:       "macd",
		RawScore:   score,
		Weight:     weightMACD,
		Weighted:   score * weightMACD,
		Commentary: fmt.Sprintf("histogram %+.2f", m.Histogram),
	}, true
}

// scoreTrend compares the last close with the 20-bar SMA.
// Weight: 0.1
func scoreTrend(last, sma model.Optional[float64]) (model.FactorScore, bool) {
	price, ok1 := last.Get()
	avg, ok2 := sma.Get()
	if !ok1 || !ok2 {
		return unavailable("trend", weightTrend), false
	}
	var score float64
	commentary := "at SMA20"
	switch {
	case price > avg:
		score = 1
		commentary = "above SMA20"
	case price < avg:
		score = -1
		commentary = "below SMA20"
	}
	return model.FactorScore{
		Name:       "trend",
		RawScore:   score,
		Weight:     weightTrend,
		Weighted:   score * weightTrend,
		Commentary: commentary,
	}, true
}

func riskLevel(findings []model.Finding, rsi model.Optional[float64]) model.RiskLevel {
	if v, ok := rsi.Get(); ok && (v >= 70 || v <= 30) {
		return model.RiskHigh
	}
	for _, f := range findings {
		if f.Sentiment == model.SentimentBearish {
			return model.RiskMedium
		}
	}
	return model.RiskLow
}
