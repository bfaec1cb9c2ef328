package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"StockSense/internal/cache"
	"StockSense/internal/collector"
	"StockSense/internal/metrics"
	"StockSense/internal/model"
	"StockSense/internal/recorder"
	"StockSense/internal/strategy"
	"StockSense/internal/usage"
)

// Request sources, used as metric labels.
const (
	SourceAPI       = "api"
	SourceIngest    = "ingest"
	SourceScheduler = "scheduler"
	SourceTelegram  = "telegram"
	SourceCLI       = "cli"
)

var (
	// ErrEmptySymbol is returned when no symbol is given.
	ErrEmptySymbol = errors.New("symbol is required")
	// ErrFetch marks failures of the upstream market data source.
	ErrFetch = errors.New("market data unavailable")
)

// Deps wires the service to its adapters. Only Collector is required for
// symbol lookups; every other field may be nil.
type Deps struct {
	Collector *collector.Collector
	Recorder  recorder.Recorder
	Cache     cache.Cache
	Usage     *usage.Manager
	Metrics   *metrics.Metrics
	// Options is the base engine configuration. Its Narrative generator is
	// wrapped by the usage quota when Usage is set.
	Options strategy.Options
}

// Service runs analyses on behalf of the HTTP API, the scheduler and the CLI.
type Service struct {
	collector *collector.Collector
	recorder  recorder.Recorder
	cache     cache.Cache
	usage     *usage.Manager
	metrics   *metrics.Metrics
	opts      strategy.Options
	now       func() time.Time
}

// New creates a Service, substituting no-op adapters for missing ones.
func New(d Deps) *Service {
	s := &Service{
		collector: d.Collector,
		recorder:  d.Recorder,
		cache:     d.Cache,
		usage:     d.Usage,
		metrics:   d.Metrics,
		opts:      d.Options,
		now:       time.Now,
	}
	if s.recorder == nil {
		s.recorder = recorder.NewNoopRecorder()
	}
	if s.cache == nil {
		s.cache = cache.NewNoopCache()
	}
	if s.usage != nil {
		s.opts.Narrative = s.usage.Guard(s.opts.Narrative)
	}
	return s
}

// AnalyzeSymbol fetches bars for symbol and analyzes them. A cached result for
// the same symbol and timeframe is returned without refetching.
func (s *Service) AnalyzeSymbol(ctx context.Context, symbol, source string) (*model.AnalysisResult, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return nil, ErrEmptySymbol
	}
	if s.collector == nil {
		return nil, fmt.Errorf("%w: no data source configured", ErrFetch)
	}

	key := cache.Key(symbol, s.opts.Timeframe)
	if cached, ok, err := s.cache.Get(ctx, key); err != nil {
		log.Printf("[WARN] cache get %s: %v", key, err)
	} else if ok {
		s.observeCache(true)
		return cached, nil
	}
	s.observeCache(false)

	start := s.now()
	series, err := s.collector.Collect(ctx, symbol)
	if err != nil {
		if s.metrics != nil {
			s.metrics.FetchErrors.Inc()
		}
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	res := s.run(ctx, series, s.opts, source, start)
	if err := s.cache.Set(ctx, key, res); err != nil {
		log.Printf("[WARN] cache set %s: %v", key, err)
	}
	return res, nil
}

// AnalyzeSeries analyzes caller-supplied bars. It never consults the cache.
func (s *Service) AnalyzeSeries(ctx context.Context, series model.Series, timeframe string, fundamentals *model.Fundamentals, source string) (*model.AnalysisResult, error) {
	if normalizeSymbol(series.Symbol) == "" {
		return nil, ErrEmptySymbol
	}
	opts := s.opts
	if timeframe != "" {
		opts.Timeframe = timeframe
	}
	opts.Fundamentals = fundamentals
	return s.run(ctx, series, opts, source, s.now()), nil
}

func (s *Service) run(ctx context.Context, series model.Series, opts strategy.Options, source string, start time.Time) *model.AnalysisResult {
	res := strategy.Analyze(ctx, series, opts)
	res.ID = uuid.NewString()

	if err := s.recorder.RecordAnalysis(ctx, &res); err != nil {
		log.Printf("[ERROR] record analysis %s: %v", res.Symbol, err)
		if s.metrics != nil {
			s.metrics.RecordErrors.Inc()
		}
	}
	if s.metrics != nil {
		s.metrics.ObserveAnalysis(source, &res, s.now().Sub(start))
	}
	log.Printf("[INFO] analyzed %s (%d bars): %d patterns, %s, insight %s",
		res.Symbol, res.BarCount, len(res.Patterns), res.Recommendation.Action, res.InsightStatus)
	return &res
}

// RecentAnalyses returns recorded analyses for symbol, newest first.
func (s *Service) RecentAnalyses(ctx context.Context, symbol string, limit int) ([]model.AnalysisResult, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return nil, ErrEmptySymbol
	}
	if limit <= 0 {
		limit = recorder.DefaultRecentLimit
	}
	return s.recorder.RecentAnalyses(ctx, symbol, limit)
}

// PatternCounts returns how often each pattern was recorded for symbol.
func (s *Service) PatternCounts(ctx context.Context, symbol string) (map[string]int, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return nil, ErrEmptySymbol
	}
	return s.recorder.PatternCounts(ctx, symbol)
}

// Usage reports today's narrative usage. Without a quota the limit is -1.
func (s *Service) Usage() usage.Snapshot {
	if s.usage == nil {
		return usage.Snapshot{Date: s.now().Format("2006-01-02"), Limit: -1, Remaining: -1}
	}
	return s.usage.Today()
}

func (s *Service) observeCache(hit bool) {
	if s.metrics == nil {
		return
	}
	if hit {
		s.metrics.CacheHits.Inc()
	} else {
		s.metrics.CacheMisses.Inc()
	}
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
