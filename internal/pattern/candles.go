package pattern

import "StockSense/internal/model"

const (
	NameDoji             = "Doji"
	NameHammer           = "Hammer"
	NameBullishEngulfing = "Bullish Engulfing"
	NameBearishEngulfing = "Bearish Engulfing"
	NameShootingStar     = "Shooting Star"
	NameMorningStar      = "Morning Star"
	NameEveningStar      = "Evening Star"
)

// hammerTrendBars is the number of trailing bars inspected for a prior uptrend.
const hammerTrendBars = 5

// CoreDetectors returns the seven built-in detectors in canonical order.
func CoreDetectors() []Detector {
	return []Detector{
		doji{},
		hammer{},
		bullishEngulfing{},
		bearishEngulfing{},
		shootingStar{},
		morningStar{},
		eveningStar{},
	}
}

type doji struct{}

func (doji) Name() string { return NameDoji }

func (doji) Detect(series model.Series) (model.Finding, bool) {
	cur, ok := series.Last()
	if !ok {
		return model.Finding{}, false
	}
	r := cur.Range()
	if r <= 0 || cur.Body()/r >= 0.1 {
		return model.Finding{}, false
	}
	return model.Finding{
		Name:        NameDoji,
		Sentiment:   model.SentimentNeutral,
		Confidence:  0.8,
		Description: "Indecision pattern suggesting potential reversal. Market showing uncertainty.",
		Action:      model.ActionWait,
	}, true
}

type hammer struct{}

func (hammer) Name() string { return NameHammer }

func (hammer) Detect(series model.Series) (model.Finding, bool) {
	cur, ok := series.Last()
	if !ok {
		return model.Finding{}, false
	}
	body := cur.Body()
	r := cur.Range()
	if r <= 0 || body/r >= 0.3 || cur.LowerShadow() <= body*2 || cur.UpperShadow() >= body*0.5 {
		return model.Finding{}, false
	}

	if inUptrend(series) {
		return model.Finding{
			Name:        NameHammer,
			Sentiment:   model.SentimentNeutral,
			Confidence:  0.75,
			Description: "Hammer shape inside an existing uptrend. Treat as continuation rather than reversal.",
			Action:      model.ActionWait,
		}, true
	}
	return model.Finding{
		Name:        NameHammer,
		Sentiment:   model.SentimentBullish,
		Confidence:  0.75,
		Description: "Potential reversal signal. Buyers stepping in at lower levels.",
		Action:      model.ActionBuy,
	}, true
}

// inUptrend reports whether the last five closes, current bar included, rise strictly.
// Only series longer than five bars can be in an uptrend.
func inUptrend(series model.Series) bool {
	if series.Len() <= hammerTrendBars {
		return false
	}
	bars := series.Tail(hammerTrendBars)
	for i := 1; i < len(bars); i++ {
		if bars[i].Close <= bars[i-1].Close {
			return false
		}
	}
	return true
}

type bullishEngulfing struct{}

func (bullishEngulfing) Name() string { return NameBullishEngulfing }

func (bullishEngulfing) Detect(series model.Series) (model.Finding, bool) {
	if series.Len() < 2 {
		return model.Finding{}, false
	}
	bars := series.Tail(2)
	prev, cur := bars[0], bars[1]
	if !prev.IsBearish() || !cur.IsBullish() ||
		cur.Open >= prev.Close || cur.Close <= prev.Open ||
		cur.Body() <= prev.Body()*1.2 {
		return model.Finding{}, false
	}
	return model.Finding{
		Name:        NameBullishEngulfing,
		Sentiment:   model.SentimentBullish,
		Confidence:  0.85,
		Description: "Strong reversal signal. Bulls taking control after bearish move.",
		Action:      model.ActionBuy,
	}, true
}

type bearishEngulfing struct{}

func (bearishEngulfing) Name() string { return NameBearishEngulfing }

func (bearishEngulfing) Detect(series model.Series) (model.Finding, bool) {
	if series.Len() < 2 {
		return model.Finding{}, false
	}
	bars := series.Tail(2)
	prev, cur := bars[0], bars[1]
	if !prev.IsBullish() || !cur.IsBearish() ||
		cur.Open <= prev.Close || cur.Close >= prev.Open ||
		cur.Body() <= prev.Body()*1.2 {
		return model.Finding{}, false
	}
	return model.Finding{
		Name:        NameBearishEngulfing,
		Sentiment:   model.SentimentBearish,
		Confidence:  0.85,
		Description: "Strong reversal signal. Bears taking control after bullish move.",
		Action:      model.ActionSell,
	}, true
}

type shootingStar struct{}

func (shootingStar) Name() string { return NameShootingStar }

func (shootingStar) Detect(series model.Series) (model.Finding, bool) {
	cur, ok := series.Last()
	if !ok {
		return model.Finding{}, false
	}
	body := cur.Body()
	if body >= cur.Range()*0.3 || cur.UpperShadow() <= body*2 || cur.LowerShadow() >= body*0.5 {
		return model.Finding{}, false
	}
	return model.Finding{
		Name:        NameShootingStar,
		Sentiment:   model.SentimentBearish,
		Confidence:  0.7,
		Description: "Potential top reversal. Selling pressure at higher levels.",
		Action:      model.ActionSell,
	}, true
}

type morningStar struct{}

func (morningStar) Name() string { return NameMorningStar }

func (morningStar) Detect(series model.Series) (model.Finding, bool) {
	if series.Len() < 3 {
		return model.Finding{}, false
	}
	bars := series.Tail(3)
	first, second, third := bars[0], bars[1], bars[2]
	if !first.IsBearish() || !isSmallBody(second) || !third.IsBullish() ||
		third.Close <= first.BodyMidpoint() {
		return model.Finding{}, false
	}
	return model.Finding{
		Name:        NameMorningStar,
		Sentiment:   model.SentimentBullish,
		Confidence:  0.8,
		Description: "Three-candle reversal pattern. Strong bullish signal.",
		Action:      model.ActionBuy,
	}, true
}

type eveningStar struct{}

func (eveningStar) Name() string { return NameEveningStar }

func (eveningStar) Detect(series model.Series) (model.Finding, bool) {
	if series.Len() < 3 {
		return model.Finding{}, false
	}
	bars := series.Tail(3)
	first, second, third := bars[0], bars[1], bars[2]
	if !first.IsBullish() || !isSmallBody(second) || !third.IsBearish() ||
		third.Close >= first.BodyMidpoint() {
		return model.Finding{}, false
	}
	return model.Finding{
		Name:        NameEveningStar,
		Sentiment:   model.SentimentBearish,
		Confidence:  0.8,
		Description: "Three-candle reversal pattern. Strong bearish signal.",
		Action:      model.ActionSell,
	}, true
}

func isSmallBody(b model.Bar) bool {
	return b.Body() < b.Range()*0.3
}
