package cache

import (
	"context"
	"strings"

	"StockSense/internal/model"
)

const keyPrefix = "stocksense:analysis:"

// Cache stores recent analysis results keyed by symbol and timeframe.
type Cache interface {
	// Get returns the cached result, or false on a miss.
	Get(ctx context.Context, key string) (*model.AnalysisResult, bool, error)
	Set(ctx context.Context, key string, r *model.AnalysisResult) error
	Close() error
}

// Key derives the cache key for a symbol and timeframe.
func Key(symbol, timeframe string) string {
	return keyPrefix + strings.ToUpper(symbol) + ":" + timeframe
}

// NoopCache is used when Redis is not configured. Every lookup misses.
type NoopCache struct{}

func NewNoopCache() *NoopCache { return &NoopCache{} }

func (NoopCache) Get(_ context.Context, _ string) (*model.AnalysisResult, bool, error) {
	return nil, false, nil
}
func (NoopCache) Set(_ context.Context, _ string, _ *model.AnalysisResult) error { return nil }
func (NoopCache) Close() error                                                   { return nil }
