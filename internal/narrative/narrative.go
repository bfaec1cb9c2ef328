package narrative

import (
	"context"
	"errors"

	"StockSense/internal/model"
)

// Fallback texts placed in AnalysisResult.Insight when no narrative is produced.
const (
	FallbackUnavailable = "AI insights unavailable. Please configure a narrative provider."
	FallbackFailed      = "Unable to generate insights at this time."
)

// ErrEmptyResponse is returned when the provider answers without any text.
var ErrEmptyResponse = errors.New("empty narrative response")

// Generator turns a structured analysis into free text.
type Generator interface {
	Generate(ctx context.Context, in Context) (string, error)
}

// Func adapts a plain function to the Generator interface.
type Func func(ctx context.Context, in Context) (string, error)

func (f Func) Generate(ctx context.Context, in Context) (string, error) {
	return f(ctx, in)
}

// Context is the structured input handed to a Generator.
type Context struct {
	Symbol         string                          `json:"symbol"`
	Timeframe      string                          `json:"timeframe,omitempty"`
	LastPrice      model.Optional[float64]         `json:"price"`
	Patterns       []model.Finding                 `json:"patterns"`
	Indicators     model.IndicatorSnapshot         `json:"technicals"`
	Levels         model.Optional[model.KeyLevels] `json:"key_levels"`
	Recommendation model.Recommendation            `json:"recommendation"`
	Fundamentals   *model.Fundamentals             `json:"fundamentals,omitempty"`
}

// ContextFrom copies the structured part of a completed analysis.
func ContextFrom(r model.AnalysisResult) Context {
	return Context{
		Symbol:         r.Symbol,
		Timeframe:      r.Timeframe,
		LastPrice:      r.LastPrice,
		Patterns:       r.Patterns,
		Indicators:     r.Indicators,
		Levels:         r.Levels,
		Recommendation: r.Recommendation,
		Fundamentals:   r.Fundamentals,
	}
}
