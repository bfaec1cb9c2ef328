package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"StockSense/internal/model"
	"StockSense/internal/usage"
)

func sampleResult() *model.AnalysisResult {
	return &model.AnalysisResult{
		Symbol:      "INFY",
		Timeframe:   "1d",
		GeneratedAt: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
		BarCount:    60,
		LastPrice:   model.Some(1432.5),
		Patterns: []model.Finding{
			{Name: "Bullish Engulfing", Sentiment: model.SentimentBullish, Confidence: 0.85, Action: model.ActionBuy},
		},
		Indicators: model.IndicatorSnapshot{
			RSI: model.Some(28.4),
			SMA: map[int]model.Optional[float64]{50: model.Some(1400.0), 20: model.Some(1420.0), 200: model.None[float64]()},
		},
		Levels: model.Some(model.KeyLevels{Support: 1380, Resistance: 1480, Lookback: 20, Position: 0.6}),
		Recommendation: model.Recommendation{
			Action:     model.ActionBuy,
			TotalScore: 0.74,
			RiskLevel:  model.RiskHigh,
			Factors: []model.FactorScore{
				{Name: "patterns", RawScore: 0.85, Weight: 0.4, Weighted: 0.34, Commentary: "1 bullish"},
			},
		},
		Insight:       "Momentum <improving>",
		InsightStatus: model.InsightGenerated,
	}
}

func TestFormatAnalysisReport(t *testing.T) {
	out := FormatAnalysisReport(sampleResult())
	for _, want := range []string{
		"INFY · 1d",
		"Last price: 1432.50 (60 bars)",
		"RSI: 28.40",
		"MACD: n/a",
		"SMA200: n/a",
		"Support 1380.00 | Resistance 1480.00 (20 bars, at 60% of range)",
		"Bullish Engulfing (bullish, 85%)",
		"<b>BUY</b> | risk high",
		"Momentum &lt;improving&gt;",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "SMA20:") > strings.Index(out, "SMA50:") {
		t.Error("SMA periods should be listed in ascending order")
	}
}

func TestFormatUsage(t *testing.T) {
	if got := FormatUsage(usage.Snapshot{Date: "2024-05-01", Used: 3, Limit: 10, Remaining: 7}); !strings.Contains(got, "Used: 3 / 10") {
		t.Errorf("FormatUsage = %q", got)
	}
	if got := FormatUsage(usage.Snapshot{Date: "2024-05-01", Used: 3, Limit: 0, Remaining: -1}); !strings.Contains(got, "no daily limit") {
		t.Errorf("FormatUsage = %q", got)
	}
	if got := FormatError("TCS", errors.New("bad <data>")); !strings.Contains(got, "bad &lt;data&gt;") {
		t.Errorf("FormatError = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("é", maxMessageLen+10)
	if got := []rune(truncate(long)); len(got) != maxMessageLen {
		t.Errorf("truncated length = %d, want %d", len(got), maxMessageLen)
	}
}

type fakeBot struct {
	mu       sync.Mutex
	sent     []map[string]string
	updates  string
	polls    int
	sendCode int
}

func (b *fakeBot) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		switch {
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var payload map[string]string
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Errorf("decode sendMessage: %v", err)
			}
			b.sent = append(b.sent, payload)
			if b.sendCode != 0 {
				w.WriteHeader(b.sendCode)
				return
			}
			w.Write([]byte(`{"ok":true}`))
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			b.polls++
			if b.polls == 1 {
				w.Write([]byte(b.updates))
				return
			}
			w.Write([]byte(`{"ok":true,"result":[]}`))
		default:
			http.NotFound(w, r)
		}
	})
}

func newTestNotifier(t *testing.T, bot *fakeBot) *TelegramNotifier {
	srv := httptest.NewServer(bot.handler(t))
	t.Cleanup(srv.Close)
	tn := NewTelegramNotifier("token", "42", "")
	tn.APIBase = srv.URL
	return tn
}

func TestSend(t *testing.T) {
	bot := &fakeBot{}
	tn := newTestNotifier(t, bot)
	if err := tn.Send("hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(bot.sent) != 1 || bot.sent[0]["chat_id"] != "42" || bot.sent[0]["parse_mode"] != "HTML" {
		t.Errorf("sent = %+v", bot.sent)
	}

	bot.sendCode = http.StatusBadRequest
	if err := tn.Send("boom"); err == nil {
		t.Error("expected error on non-200 response")
	}
	if !tn.Enabled() {
		t.Error("notifier with token and chat should be enabled")
	}
	if NewTelegramNotifier("", "", "").Enabled() {
		t.Error("notifier without token should be disabled")
	}
}

func TestStartPolling_RepliesToConfiguredChat(t *testing.T) {
	bot := &fakeBot{updates: `{"ok":true,"result":[
		{"update_id":7,"message":{"text":" /usage ","chat":{"id":42}}},
		{"update_id":8,"message":{"text":"/usage","chat":{"id":99}}}
	]}`}
	tn := newTestNotifier(t, bot)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var got []string
	done := make(chan struct{})
	go func() {
		tn.StartPolling(ctx, func(_ context.Context, cmd string) string {
			got = append(got, cmd)
			cancel()
			return "ack"
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop")
	}
	if len(got) != 1 || got[0] != "/usage" {
		t.Errorf("handled commands = %v", got)
	}
	bot.mu.Lock()
	defer bot.mu.Unlock()
	if len(bot.sent) != 1 || bot.sent[0]["text"] != "ack" {
		t.Errorf("replies = %+v", bot.sent)
	}
}
