package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"StockSense/internal/cache"
	"StockSense/internal/collector"
	"StockSense/internal/config"
	"StockSense/internal/metrics"
	"StockSense/internal/narrative"
	"StockSense/internal/recorder"
	"StockSense/internal/service"
	"StockSense/internal/usage"
)

// app holds the adapters built from config.
type app struct {
	cfg      *config.Config
	service  *service.Service
	metrics  *metrics.Metrics
	recorder recorder.Recorder
	cache    cache.Cache
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// newApp wires the service. Optional infrastructure that fails to start is
// replaced by its no-op variant.
func newApp(cfg *config.Config) *app {
	a := &app{cfg: cfg, metrics: metrics.New(prometheus.NewRegistry())}

	// Init fetcher
	fetcher := newFetcher(cfg)
	log.Printf("[INFO] data source: %s (%s, %d bars)", fetcher.Name(), cfg.DataSource.Interval, cfg.DataSource.Bars)
	col := collector.NewCollector(fetcher, collector.ParseInterval(cfg.DataSource.Interval), cfg.DataSource.Bars)

	// Init recorder
	a.recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		ensureDir(cfg.Database.SQLitePath)
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, cfg.Database.KeepPerSymbol)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		} else {
			a.recorder = sr
		}
	}

	// Init cache
	a.cache = cache.NewNoopCache()
	if cfg.Cache.RedisAddr != "" {
		rc, err := cache.NewRedisCache(cfg.RedisConfig())
		if err != nil {
			log.Printf("[WARN] init redis cache failed, caching disabled: %v", err)
		} else {
			a.cache = rc
		}
	}

	// Init narrative and usage quota
	opts := cfg.AnalysisOptions()
	var quota *usage.Manager
	if cfg.NarrativeEnabled() {
		opts.Narrative = narrative.NewOpenAIGenerator(cfg.OpenAIConfig())
		ensureDir(cfg.Usage.StateFile)
		um, err := usage.NewManager(cfg.Usage.StateFile, cfg.Narrative.DailyLimit)
		if err != nil {
			log.Printf("[WARN] init usage manager failed, quota disabled: %v", err)
		} else {
			quota = um
		}
		log.Printf("[INFO] narrative provider: %s", cfg.Narrative.Model)
	} else {
		log.Println("[INFO] no narrative provider configured, insights will use the fallback text")
	}

	a.service = service.New(service.Deps{
		Collector: col,
		Recorder:  a.recorder,
		Cache:     a.cache,
		Usage:     quota,
		Metrics:   a.metrics,
		Options:   opts,
	})
	return a
}

func newFetcher(cfg *config.Config) collector.Fetcher {
	switch cfg.DataSource.Provider {
	case config.ProviderHTTP:
		return collector.NewHTTPFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	case config.ProviderMock:
		return &collector.MockFetcher{}
	default:
		return collector.NewYahooFetcher(cfg.Proxy)
	}
}

func (a *app) Close() {
	if err := a.cache.Close(); err != nil {
		log.Printf("[WARN] close cache: %v", err)
	}
	if err := a.recorder.Close(); err != nil {
		log.Printf("[WARN] close recorder: %v", err)
	}
}

func ensureDir(path string) {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("[WARN] create directory %s: %v", dir, err)
	}
}
