package model

// Sentiment is the directional bias of a pattern finding.
type Sentiment string

const (
	SentimentBullish Sentiment = "bullish"
	SentimentBearish Sentiment = "bearish"
	SentimentNeutral Sentiment = "neutral"
)

// Action is the suggested trading action.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
	ActionWait Action = "WAIT"
)

// Finding is one detected candlestick pattern.
type Finding struct {
	Name        string    `json:"name"`
	Sentiment   Sentiment `json:"type"`
	Confidence  float64   `json:"confidence"`
	Description string    `json:"description"`
	Action      Action    `json:"action"`
	Timeframe   string    `json:"timeframe,omitempty"`
}

// FactorScore represents a single factor's scoring result.
type FactorScore struct {
	Name       string  `json:"name"`
	RawScore   float64 `json:"raw_score"`
	Weight     float64 `json:"weight"`
	Weighted   float64 `json:"weighted"`
	Commentary string  `json:"commentary"`
}

// RiskLevel classifies how volatile the current setup looks.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Recommendation is the deterministic verdict derived from findings and indicators.
type Recommendation struct {
	Action     Action        `json:"action"`
	TotalScore float64       `json:"total_score"`
	RiskLevel  RiskLevel     `json:"risk_level"`
	Factors    []FactorScore `json:"factors"`
}
