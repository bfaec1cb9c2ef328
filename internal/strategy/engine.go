package strategy

import (
	"context"
	"time"

	"StockSense/internal/calculator"
	"StockSense/internal/model"
	"StockSense/internal/narrative"
	"StockSense/internal/pattern"
)

// DefaultThreshold is the confidence a finding must exceed to be reported.
const DefaultThreshold = 0.6

// Options configures one analysis run.
type Options struct {
	// Threshold drops findings whose confidence is not strictly greater. Zero means DefaultThreshold.
	Threshold float64
	Timeframe string

	DisabledPatterns []string
	ExtendedPatterns bool

	RSIPeriod     int
	SMAPeriods    []int
	LevelLookback int

	// Narrative is optional; nil yields the unavailable fallback text.
	Narrative    narrative.Generator
	Fundamentals *model.Fundamentals
}

func (o Options) withDefaults() Options {
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	if o.LevelLookback <= 0 {
		o.LevelLookback = calculator.DefaultLevelLookback
	}
	return o
}

// Analyze runs the indicator calculator and pattern matcher over a series and
// assembles the result. It never fails: missing data shows up as absent values
// and narrative problems as fallback text.
func Analyze(ctx context.Context, series model.Series, opts Options) model.AnalysisResult {
	opts = opts.withDefaults()

	snap := calculator.Compute(series, calculator.Config{
		RSIPeriod:  opts.RSIPeriod,
		SMAPeriods: opts.SMAPeriods,
	})
	matcher := pattern.NewMatcher(pattern.Options{
		Disabled: opts.DisabledPatterns,
		Extended: opts.ExtendedPatterns,
	})
	findings := filterFindings(matcher.Detect(series), opts.Threshold, opts.Timeframe)

	result := model.AnalysisResult{
		Symbol:         series.Symbol,
		Timeframe:      opts.Timeframe,
		GeneratedAt:    time.Now().UTC(),
		BarCount:       series.Len(),
		Patterns:       findings,
		Indicators:     snap,
		Levels:         calculator.KeyLevels(series, opts.LevelLookback),
		Recommendation: Recommend(series, findings, snap),
	}
	if last, ok := series.Last(); ok {
		result.LastPrice = model.Some(last.Close)
	}
	if !opts.Fundamentals.IsEmpty() {
		result.Fundamentals = opts.Fundamentals
	}

	result.Insight, result.InsightStatus = generateInsight(ctx, opts.Narrative, result)
	return result
}

// filterFindings keeps findings above threshold and stamps the timeframe onto those without one.
func filterFindings(findings []model.Finding, threshold float64, timeframe string) []model.Finding {
	out := make([]model.Finding, 0, len(findings))
	for _, f := range findings {
		if f.Confidence <= threshold {
			continue
		}
		if f.Timeframe == "" {
			f.Timeframe = timeframe
		}
		out = append(out, f)
	}
	return out
}

// generateInsight calls the generator once. Errors and cancellation become the failure fallback.
func generateInsight(ctx context.Context, gen narrative.Generator, result model.AnalysisResult) (string, model.InsightStatus) {
	if gen == nil {
		return narrative.FallbackUnavailable, model.InsightUnavailable
	}
	if ctx.Err() != nil {
		return narrative.FallbackFailed, model.InsightFailed
	}
	text, err := gen.Generate(ctx, narrative.ContextFrom(result))
	if err != nil {
		return narrative.FallbackFailed, model.InsightFailed
	}
	return text, model.InsightGenerated
}
