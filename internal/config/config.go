package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"StockSense/internal/cache"
	"StockSense/internal/calculator"
	"StockSense/internal/collector"
	"StockSense/internal/narrative"
	"StockSense/internal/pattern"
	"StockSense/internal/recorder"
	"StockSense/internal/strategy"
	"StockSense/internal/usage"
)

// Data source providers.
const (
	ProviderYahoo = "yahoo"
	ProviderHTTP  = "http"
	ProviderMock  = "mock"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr           string   `yaml:"addr"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Analysis struct {
		Threshold        float64  `yaml:"threshold"`
		Timeframe        string   `yaml:"timeframe"`
		RSIPeriod        int      `yaml:"rsi_period"`
		SMAPeriods       []int    `yaml:"sma_periods"`
		LevelLookback    int      `yaml:"level_lookback"`
		DisabledPatterns []string `yaml:"disabled_patterns"`
		ExtendedPatterns bool     `yaml:"extended_patterns"`
	} `yaml:"analysis"`
	Narrative struct {
		BaseURL    string        `yaml:"base_url"`
		APIKey     string        `yaml:"api_key"`
		Model      string        `yaml:"model"`
		Timeout    time.Duration `yaml:"timeout"`
		MaxTokens  int           `yaml:"max_tokens"`
		DailyLimit int           `yaml:"daily_limit"`
	} `yaml:"narrative"`
	DataSource struct {
		Provider string `yaml:"provider"`
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`
		Interval string `yaml:"interval"`
		Bars     int    `yaml:"bars"`
	} `yaml:"data_source"`
	Watchlist struct {
		Symbols []string `yaml:"symbols"`
		Cron    string   `yaml:"cron"`
	} `yaml:"watchlist"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath    string `yaml:"sqlite_path"`
		KeepPerSymbol int    `yaml:"keep_per_symbol"`
	} `yaml:"database"`
	Cache struct {
		RedisAddr     string        `yaml:"redis_addr"`
		RedisPassword string        `yaml:"redis_password"`
		RedisDB       int           `yaml:"redis_db"`
		TTL           time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
	Usage struct {
		StateFile string `yaml:"state_file"`
	} `yaml:"usage"`
	Proxy string `yaml:"proxy"`
}

// Load reads .env, then a YAML file, then applies environment variable overrides and defaults.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// applyEnv applies environment variable overrides.
func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"SERVER_ADDR":        &c.Server.Addr,
		"ANALYSIS_TIMEFRAME": &c.Analysis.Timeframe,
		"NARRATIVE_BASE_URL": &c.Narrative.BaseURL,
		"NARRATIVE_API_KEY":  &c.Narrative.APIKey,
		"NARRATIVE_MODEL":    &c.Narrative.Model,
		"DATA_PROVIDER":      &c.DataSource.Provider,
		"DATA_BASE_URL":      &c.DataSource.BaseURL,
		"DATA_API_KEY":       &c.DataSource.APIKey,
		"DATA_INTERVAL":      &c.DataSource.Interval,
		"WATCHLIST_CRON":     &c.Watchlist.Cron,
		"TELEGRAM_BOT_TOKEN": &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":   &c.Telegram.ChatID,
		"SQLITE_PATH":        &c.Database.SQLitePath,
		"REDIS_ADDR":         &c.Cache.RedisAddr,
		"REDIS_PASSWORD":     &c.Cache.RedisPassword,
		"USAGE_STATE_FILE":   &c.Usage.StateFile,
		"HTTPS_PROXY":        &c.Proxy,
	}
	for key, target := range strs {
		if v := os.Getenv(key); v != "" {
			*target = v
		}
	}
	// OPENAI_API_KEY is honored when no narrative key is set.
	if c.Narrative.APIKey == "" {
		c.Narrative.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	ints := map[string]*int{
		"NARRATIVE_DAILY_LIMIT": &c.Narrative.DailyLimit,
		"DATA_BARS":             &c.DataSource.Bars,
		"REDIS_DB":              &c.Cache.RedisDB,
	}
	for key, target := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("parse %s: %w", key, err)
			}
			*target = n
		}
	}
	if v := os.Getenv("ANALYSIS_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parse ANALYSIS_THRESHOLD: %w", err)
		}
		c.Analysis.Threshold = f
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse CACHE_TTL: %w", err)
		}
		c.Cache.TTL = d
	}
	if v := os.Getenv("WATCHLIST"); v != "" {
		c.Watchlist.Symbols = splitList(v)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Analysis.Threshold == 0 {
		c.Analysis.Threshold = strategy.DefaultThreshold
	}
	if c.Analysis.RSIPeriod == 0 {
		c.Analysis.RSIPeriod = calculator.DefaultRSIPeriod
	}
	if len(c.Analysis.SMAPeriods) == 0 {
		c.Analysis.SMAPeriods = append([]int(nil), calculator.DefaultSMAPeriods...)
	}
	if c.Analysis.LevelLookback == 0 {
		c.Analysis.LevelLookback = calculator.DefaultLevelLookback
	}
	if c.Narrative.Model == "" {
		c.Narrative.Model = narrative.DefaultModel
	}
	if c.Narrative.Timeout == 0 {
		c.Narrative.Timeout = 30 * time.Second
	}
	if c.Narrative.DailyLimit == 0 {
		c.Narrative.DailyLimit = usage.DefaultDailyLimit
	}
	if c.DataSource.Provider == "" {
		if c.DataSource.BaseURL != "" {
			c.DataSource.Provider = ProviderHTTP
		} else {
			c.DataSource.Provider = ProviderYahoo
		}
	}
	if c.DataSource.Interval == "" {
		c.DataSource.Interval = string(collector.Daily)
	}
	if c.Analysis.Timeframe == "" {
		c.Analysis.Timeframe = c.DataSource.Interval
	}
	if c.DataSource.Bars == 0 {
		c.DataSource.Bars = collector.DefaultBars
	}
	if c.Watchlist.Cron == "" {
		c.Watchlist.Cron = "0 30 16 * * 1-5"
	}
	for i, s := range c.Watchlist.Symbols {
		c.Watchlist.Symbols[i] = strings.ToUpper(strings.TrimSpace(s))
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/stocksense.db"
	}
	if c.Database.KeepPerSymbol == 0 {
		c.Database.KeepPerSymbol = recorder.DefaultKeepPerSymbol
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = cache.DefaultTTL
	}
	if c.Usage.StateFile == "" {
		c.Usage.StateFile = "data/usage_state.json"
	}
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	if c.Analysis.Threshold < 0 || c.Analysis.Threshold >= 1 {
		return fmt.Errorf("analysis.threshold must be in [0, 1)")
	}
	if c.Analysis.RSIPeriod < 1 {
		return fmt.Errorf("analysis.rsi_period must be positive")
	}
	for _, p := range c.Analysis.SMAPeriods {
		if p < 1 {
			return fmt.Errorf("analysis.sma_periods: period %d must be positive", p)
		}
	}
	if c.Analysis.LevelLookback < 1 {
		return fmt.Errorf("analysis.level_lookback must be positive")
	}
	for _, name := range c.Analysis.DisabledPatterns {
		if !pattern.KnownName(name) {
			return fmt.Errorf("analysis.disabled_patterns: unknown pattern %q", name)
		}
	}
	switch c.DataSource.Provider {
	case ProviderYahoo, ProviderMock:
	case ProviderHTTP:
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the http provider")
		}
	default:
		return fmt.Errorf("data_source.provider %q is not one of yahoo, http, mock", c.DataSource.Provider)
	}
	if c.DataSource.Interval != string(collector.Daily) && c.DataSource.Interval != string(collector.Weekly) {
		return fmt.Errorf("data_source.interval must be %s or %s", collector.Daily, collector.Weekly)
	}
	if c.DataSource.Bars < 1 {
		return fmt.Errorf("data_source.bars must be positive")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether Telegram delivery is configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// NarrativeEnabled reports whether a narrative provider is configured.
func (c *Config) NarrativeEnabled() bool {
	return c.Narrative.APIKey != ""
}

// AnalysisOptions converts the analysis section to engine options. The
// narrative generator is left for the caller to attach.
func (c *Config) AnalysisOptions() strategy.Options {
	return strategy.Options{
		Threshold:        c.Analysis.Threshold,
		Timeframe:        c.Analysis.Timeframe,
		DisabledPatterns: c.Analysis.DisabledPatterns,
		ExtendedPatterns: c.Analysis.ExtendedPatterns,
		RSIPeriod:        c.Analysis.RSIPeriod,
		SMAPeriods:       c.Analysis.SMAPeriods,
		LevelLookback:    c.Analysis.LevelLookback,
	}
}

// PatternOptions returns the matcher options implied by the analysis section.
func (c *Config) PatternOptions() pattern.Options {
	return pattern.Options{Disabled: c.Analysis.DisabledPatterns, Extended: c.Analysis.ExtendedPatterns}
}

// OpenAIConfig returns the narrative provider settings.
func (c *Config) OpenAIConfig() narrative.OpenAIConfig {
	return narrative.OpenAIConfig{
		APIKey:    c.Narrative.APIKey,
		BaseURL:   c.Narrative.BaseURL,
		Model:     c.Narrative.Model,
		Timeout:   c.Narrative.Timeout,
		MaxTokens: c.Narrative.MaxTokens,
	}
}

// RedisConfig returns the cache settings.
func (c *Config) RedisConfig() cache.RedisConfig {
	return cache.RedisConfig{
		Addr:     c.Cache.RedisAddr,
		Password: c.Cache.RedisPassword,
		DB:       c.Cache.RedisDB,
		TTL:      c.Cache.TTL,
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
