package recorder

import (
	"context"

	"StockSense/internal/model"
)

// DefaultKeepPerSymbol is how many analyses are retained per symbol.
const DefaultKeepPerSymbol = 100

// DefaultRecentLimit is the number of analyses returned when no limit is given.
const DefaultRecentLimit = 10

// Recorder persists analysis history.
type Recorder interface {
	// RecordAnalysis stores a result and its pattern detections. The result must carry an ID.
	RecordAnalysis(ctx context.Context, r *model.AnalysisResult) error
	// RecentAnalyses returns the newest analyses for symbol, newest first.
	RecentAnalyses(ctx context.Context, symbol string, limit int) ([]model.AnalysisResult, error)
	// PatternCounts tallies retained pattern detections for symbol by pattern name.
	PatternCounts(ctx context.Context, symbol string) (map[string]int, error)
	Close() error
}
