package narrative

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SystemPrompt frames the provider as an analyst summarizing deterministic findings.
const SystemPrompt = "You are an expert equity analyst. Generate a brief, actionable insight " +
	"combining the technical and fundamental data you are given. Do not invent numbers " +
	"that are not present in the data."

// BuildPrompt renders the user prompt for one analysis.
func BuildPrompt(in Context) (string, error) {
	technicals, err := json.Marshal(in.Indicators)
	if err != nil {
		return "", fmt.Errorf("marshal technicals: %w", err)
	}
	patterns, err := json.Marshal(in.Patterns)
	if err != nil {
		return "", fmt.Errorf("marshal patterns: %w", err)
	}
	levels, err := json.Marshal(in.Levels)
	if err != nil {
		return "", fmt.Errorf("marshal key levels: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Symbol: %s\n", in.Symbol)
	if in.Timeframe != "" {
		fmt.Fprintf(&b, "Timeframe: %s\n", in.Timeframe)
	}
	if p, ok := in.LastPrice.Get(); ok {
		fmt.Fprintf(&b, "Current price: %.2f\n", p)
	}
	fmt.Fprintf(&b, "Technical indicators: %s\n", technicals)
	fmt.Fprintf(&b, "Recent patterns: %s\n", patterns)
	fmt.Fprintf(&b, "Key levels: %s\n", levels)
	fmt.Fprintf(&b, "Rule-based verdict: %s (score %.2f, risk %s)\n",
		in.Recommendation.Action, in.Recommendation.TotalScore, in.Recommendation.RiskLevel)
	if !in.Fundamentals.IsEmpty() {
		fundamentals, err := json.Marshal(in.Fundamentals)
		if err != nil {
			return "", fmt.Errorf("marshal fundamentals: %w", err)
		}
		fmt.Fprintf(&b, "Fundamentals: %s\n", fundamentals)
	}
	b.WriteString("Reply in plain text, at most five sentences.")
	return b.String(), nil
}
