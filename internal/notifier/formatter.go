package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"StockSense/internal/model"
	"StockSense/internal/usage"
)

// maxMessageLen is Telegram's limit for one message.
const maxMessageLen = 4096

var actionIcons = map[model.Action]string{
	model.ActionBuy:  "🟢",
	model.ActionSell: "🔴",
	model.ActionHold: "🟡",
	model.ActionWait: "⚪",
}

// FormatAnalysisReport formats an analysis result into a Telegram message.
func FormatAnalysisReport(r *model.AnalysisResult) string {
	var b strings.Builder

	header := r.Symbol
	if r.Timeframe != "" {
		header += " · " + r.Timeframe
	}
	b.WriteString(fmt.Sprintf("📊 <b>StockSense</b> | %s | %s\n\n", html.EscapeString(header), r.GeneratedAt.Format("2006-01-02 15:04")))

	// Price and indicators
	if p, ok := r.LastPrice.Get(); ok {
		b.WriteString(fmt.Sprintf("Last price: %.2f (%d bars)\n", p, r.BarCount))
	}
	b.WriteString(fmt.Sprintf("RSI: %s\n", formatOptional(r.Indicators.RSI)))
	if m, ok := r.Indicators.MACD.Get(); ok {
		b.WriteString(fmt.Sprintf("MACD: %.3f | signal %.3f | hist %+.3f\n", m.MACD, m.Signal, m.Histogram))
	} else {
		b.WriteString("MACD: n/a\n")
	}
	periods := make([]int, 0, len(r.Indicators.SMA))
	for p := range r.Indicators.SMA {
		periods = append(periods, p)
	}
	sort.Ints(periods)
	for _, p := range periods {
		b.WriteString(fmt.Sprintf("SMA%d: %s\n", p, formatOptional(r.Indicators.SMA[p])))
	}
	if lv, ok := r.Levels.Get(); ok {
		b.WriteString(fmt.Sprintf("Support %.2f | Resistance %.2f (%d bars, at %.0f%% of range)\n",
			lv.Support, lv.Resistance, lv.Lookback, lv.Position*100))
	}

	// Patterns
	b.WriteString("\n🕯 <b>Patterns:</b>\n")
	if len(r.Patterns) == 0 {
		b.WriteString("  none above threshold\n")
	}
	for _, p := range r.Patterns {
		b.WriteString(fmt.Sprintf("  %s %s (%s, %.0f%%)\n",
			actionIcons[p.Action], html.EscapeString(p.Name), p.Sentiment, p.Confidence*100))
	}

	// Recommendation
	rec := r.Recommendation
	b.WriteString("\n📈 <b>Factors:</b>\n")
	for _, f := range rec.Factors {
		b.WriteString(fmt.Sprintf("  %s(%s): %+.2f (×%.2f) = %+.3f\n",
			f.Name, html.EscapeString(f.Commentary), f.RawScore, f.Weight, f.Weighted))
	}
	b.WriteString("  ─────────────────\n")
	b.WriteString(fmt.Sprintf("  Total: %+.3f\n\n", rec.TotalScore))
	b.WriteString(fmt.Sprintf("%s <b>%s</b> | risk %s\n", actionIcons[rec.Action], rec.Action, rec.RiskLevel))

	if r.Insight != "" {
		b.WriteString(fmt.Sprintf("\n💡 %s\n", html.EscapeString(r.Insight)))
	}

	return truncate(b.String())
}

// FormatUsage formats today's narrative usage.
func FormatUsage(s usage.Snapshot) string {
	if s.Limit <= 0 {
		return fmt.Sprintf("🧮 <b>Narrative usage</b> | %s\n\nUsed: %d (no daily limit)", s.Date, s.Used)
	}
	return fmt.Sprintf("🧮 <b>Narrative usage</b> | %s\n\nUsed: %d / %d\nRemaining: %d", s.Date, s.Used, s.Limit, s.Remaining)
}

// FormatError formats a failed analysis for the chat.
func FormatError(symbol string, err error) string {
	return fmt.Sprintf("❌ %s analysis failed: %s", html.EscapeString(symbol), html.EscapeString(err.Error()))
}

// HelpText lists the supported bot commands.
const HelpText = "Available commands:\n• /analyze SYMBOL\n• /usage"

func formatOptional(o model.Optional[float64]) string {
	if v, ok := o.Get(); ok {
		return fmt.Sprintf("%.2f", v)
	}
	return "n/a"
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxMessageLen {
		return s
	}
	return string(r[:maxMessageLen-1]) + "…"
}
