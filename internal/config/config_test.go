package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"OPENAI_API_KEY", "NARRATIVE_API_KEY", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "DATA_PROVIDER", "DATA_BASE_URL", "DATA_BARS", "WATCHLIST"} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" || cfg.DataSource.Provider != ProviderYahoo {
		t.Errorf("server/provider defaults = %q/%q", cfg.Server.Addr, cfg.DataSource.Provider)
	}
	if cfg.Analysis.Threshold != 0.6 || cfg.Analysis.RSIPeriod != 14 || cfg.Analysis.LevelLookback != 20 {
		t.Errorf("analysis defaults = %+v", cfg.Analysis)
	}
	if len(cfg.Analysis.SMAPeriods) != 3 || cfg.Analysis.Timeframe != "1d" {
		t.Errorf("sma/timeframe defaults = %v/%q", cfg.Analysis.SMAPeriods, cfg.Analysis.Timeframe)
	}
	if cfg.Narrative.DailyLimit != 10 || cfg.Cache.TTL != 5*time.Minute || cfg.Database.KeepPerSymbol != 100 {
		t.Errorf("limits = %d/%v/%d", cfg.Narrative.DailyLimit, cfg.Cache.TTL, cfg.Database.KeepPerSymbol)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	if cfg.TelegramEnabled() || cfg.NarrativeEnabled() {
		t.Error("telegram and narrative should be off by default")
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
analysis:
  threshold: 0.7
  timeframe: 1wk
  sma_periods: [10, 30]
  disabled_patterns: ["Doji"]
  extended_patterns: true
data_source:
  provider: http
  base_url: http://bars.local
  interval: 1wk
watchlist:
  symbols: [infy, " tcs "]
cache:
  ttl: 2m
`)
	t.Setenv("NARRATIVE_API_KEY", "sk-test")
	t.Setenv("DATA_BARS", "120")
	t.Setenv("SQLITE_PATH", "/tmp/x.db")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := strings.Join(cfg.Watchlist.Symbols, ","); got != "INFY,TCS" {
		t.Errorf("watchlist = %q", got)
	}
	if cfg.DataSource.Bars != 120 || cfg.Database.SQLitePath != "/tmp/x.db" || cfg.Cache.TTL != 2*time.Minute {
		t.Errorf("overrides not applied: bars=%d sqlite=%q ttl=%v", cfg.DataSource.Bars, cfg.Database.SQLitePath, cfg.Cache.TTL)
	}
	if !cfg.NarrativeEnabled() || cfg.OpenAIConfig().APIKey != "sk-test" {
		t.Error("narrative key from env not applied")
	}

	opts := cfg.AnalysisOptions()
	if opts.Threshold != 0.7 || opts.Timeframe != "1wk" || !opts.ExtendedPatterns || len(opts.SMAPeriods) != 2 {
		t.Errorf("AnalysisOptions = %+v", opts)
	}
	if po := cfg.PatternOptions(); len(po.Disabled) != 1 || !po.Extended {
		t.Errorf("PatternOptions = %+v", po)
	}
	if rc := cfg.RedisConfig(); rc.TTL != 2*time.Minute {
		t.Errorf("RedisConfig = %+v", rc)
	}
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("DATA_BARS", "lots")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for non-numeric DATA_BARS")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"threshold", func(c *Config) { c.Analysis.Threshold = 1.5 }, "threshold"},
		{"unknown pattern", func(c *Config) { c.Analysis.DisabledPatterns = []string{"Bogus"} }, "unknown pattern"},
		{"sma period", func(c *Config) { c.Analysis.SMAPeriods = []int{20, 0} }, "sma_periods"},
		{"http without url", func(c *Config) { c.DataSource.Provider = ProviderHTTP }, "base_url"},
		{"provider", func(c *Config) { c.DataSource.Provider = "bloomberg" }, "provider"},
		{"interval", func(c *Config) { c.DataSource.Interval = "1h" }, "interval"},
		{"telegram half set", func(c *Config) { c.Telegram.BotToken = "abc" }, "telegram"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			tt.mutate(cfg)
			err = cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error mentioning %q", err, tt.want)
			}
		})
	}
}
