package recorder

import (
	"context"

	"StockSense/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordAnalysis(_ context.Context, _ *model.AnalysisResult) error { return nil }
func (n *NoopRecorder) RecentAnalyses(_ context.Context, _ string, _ int) ([]model.AnalysisResult, error) {
	return nil, nil
}
func (n *NoopRecorder) PatternCounts(_ context.Context, _ string) (map[string]int, error) {
	return map[string]int{}, nil
}
func (n *NoopRecorder) Close() error { return nil }
