package recorder

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"StockSense/internal/model"
)

func newTestRecorder(t *testing.T, keep int) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "test.db"), keep)
	if err != nil {
		t.Fatalf("NewSQLiteRecorder: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func sampleResult(id, symbol string, at time.Time) *model.AnalysisResult {
	return &model.AnalysisResult{
		ID:          id,
		Symbol:      symbol,
		Timeframe:   "1d",
		GeneratedAt: at,
		BarCount:    30,
		LastPrice:   model.Some(101.5),
		Patterns: []model.Finding{
			{Name: "Doji", Sentiment: model.SentimentNeutral, Confidence: 0.8, Action: model.ActionWait},
			{Name: "Hammer", Sentiment: model.SentimentBullish, Confidence: 0.75, Action: model.ActionBuy},
		},
		Indicators: model.IndicatorSnapshot{
			RSI: model.Some(45.0),
			SMA: map[int]model.Optional[float64]{20: model.Some(100.0), 50: model.None[float64]()},
		},
		Levels:         model.Some(model.KeyLevels{Support: 95, Resistance: 105, Lookback: 20}),
		Recommendation: model.Recommendation{Action: model.ActionHold, RiskLevel: model.RiskLow},
		Insight:        "text",
		InsightStatus:  model.InsightGenerated,
	}
}

func TestSQLiteRecorder_RoundTrip(t *testing.T) {
	r := newTestRecorder(t, 0)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	if err := r.RecordAnalysis(ctx, sampleResult("a1", "TCS", base)); err != nil {
		t.Fatalf("RecordAnalysis: %v", err)
	}
	if err := r.RecordAnalysis(ctx, sampleResult("a2", "TCS", base.Add(time.Minute))); err != nil {
		t.Fatalf("RecordAnalysis: %v", err)
	}
	if err := r.RecordAnalysis(ctx, sampleResult("b1", "INFY", base)); err != nil {
		t.Fatalf("RecordAnalysis: %v", err)
	}

	got, err := r.RecentAnalyses(ctx, "TCS", 0)
	if err != nil {
		t.Fatalf("RecentAnalyses: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a2" || got[1].ID != "a1" {
		t.Fatalf("expected [a2 a1], got %d results", len(got))
	}
	if v, ok := got[0].Indicators.RSI.Get(); !ok || v != 45 {
		t.Errorf("RSI = %v, %v", v, ok)
	}
	if got[0].Indicators.SMAFor(50).IsPresent() {
		t.Error("absent SMA50 should survive the round trip as absent")
	}
	if len(got[0].Patterns) != 2 {
		t.Errorf("patterns = %+v", got[0].Patterns)
	}

	counts, err := r.PatternCounts(ctx, "TCS")
	if err != nil {
		t.Fatalf("PatternCounts: %v", err)
	}
	if counts["Doji"] != 2 || counts["Hammer"] != 2 {
		t.Errorf("counts = %v", counts)
	}
}

func TestSQLiteRecorder_Retention(t *testing.T) {
	r := newTestRecorder(t, 3)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		res := sampleResult(fmt.Sprintf("id-%d", i), "TCS", base.Add(time.Duration(i)*time.Minute))
		if err := r.RecordAnalysis(ctx, res); err != nil {
			t.Fatalf("RecordAnalysis %d: %v", i, err)
		}
	}

	got, err := r.RecentAnalyses(ctx, "TCS", 10)
	if err != nil {
		t.Fatalf("RecentAnalyses: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 retained analyses, got %d", len(got))
	}
	if got[0].ID != "id-4" || got[2].ID != "id-2" {
		t.Errorf("retained ids = %s..%s", got[0].ID, got[2].ID)
	}

	counts, _ := r.PatternCounts(ctx, "TCS")
	if counts["Doji"] != 3 {
		t.Errorf("pruned analyses should drop their patterns, Doji count = %d", counts["Doji"])
	}
}

func TestSQLiteRecorder_MissingID(t *testing.T) {
	r := newTestRecorder(t, 0)
	res := sampleResult("", "TCS", time.Now())
	if err := r.RecordAnalysis(context.Background(), res); !errors.Is(err, ErrMissingID) {
		t.Errorf("err = %v, want ErrMissingID", err)
	}
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	if err := r.RecordAnalysis(context.Background(), sampleResult("x", "TCS", time.Now())); err != nil {
		t.Errorf("RecordAnalysis: %v", err)
	}
	got, err := r.RecentAnalyses(context.Background(), "TCS", 5)
	if err != nil || len(got) != 0 {
		t.Errorf("RecentAnalyses = %v, %v", got, err)
	}
}
