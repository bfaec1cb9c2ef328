package model

import "time"

// InsightStatus reports how the narrative text of an analysis was obtained.
type InsightStatus string

const (
	InsightGenerated   InsightStatus = "generated"
	InsightUnavailable InsightStatus = "unavailable"
	InsightFailed      InsightStatus = "failed"
)

// Fundamentals holds optional company fundamentals supplied by the caller.
type Fundamentals struct {
	PE         *float64 `json:"pe,omitempty"`
	EPS        *float64 `json:"eps,omitempty"`
	MarketCap  *float64 `json:"marketCap,omitempty"`
	BookValue  *float64 `json:"bookValue,omitempty"`
	DebtEquity *float64 `json:"debtEquity,omitempty"`
	ROE        *float64 `json:"roe,omitempty"`
	Revenue    *float64 `json:"revenue,omitempty"`
	Profit     *float64 `json:"profit,omitempty"`
}

// IsEmpty reports whether no fundamental is set.
func (f *Fundamentals) IsEmpty() bool {
	if f == nil {
		return true
	}
	return f.PE == nil && f.EPS == nil && f.MarketCap == nil && f.BookValue == nil &&
		f.DebtEquity == nil && f.ROE == nil && f.Revenue == nil && f.Profit == nil
}

// AnalysisResult is the unit returned to a caller for one instrument at one point in time.
type AnalysisResult struct {
	ID             string              `json:"id,omitempty"`
	Symbol         string              `json:"symbol"`
	Timeframe      string              `json:"timeframe,omitempty"`
	GeneratedAt    time.Time           `json:"generated_at"`
	BarCount       int                 `json:"bar_count"`
	LastPrice      Optional[float64]   `json:"last_price"`
	Patterns       []Finding           `json:"patterns"`
	Indicators     IndicatorSnapshot   `json:"indicators"`
	Levels         Optional[KeyLevels] `json:"key_levels"`
	Recommendation Recommendation      `json:"recommendation"`
	Fundamentals   *Fundamentals       `json:"fundamentals,omitempty"`
	Insight        string              `json:"insight"`
	InsightStatus  InsightStatus       `json:"insight_status"`
}
