package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/pj950/ffftttt/internal/fundamentals"
	"github.com/pj950/ffftttt/internal/indicator"
	"github.com/pj950/ffftttt/internal/rules"
)

func TestLoad(t *testing.T) {
	t.Setenv("SERVERCHAN_KEY", "SCT-test")
	t.Setenv("APCA_API_KEY_ID", "key")
	t.Setenv("APCA_API_SECRET_KEY", "secret")

	path := filepath.Join("testdata", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.App.Name != "fusion-test" || cfg.App.LogLevel != "debug" {
		t.Fatalf("unexpected App: %+v", cfg.App)
	}
	if got := NormalizeSymbols(cfg.Watchlist); len(got) != 2 || got[1] != "MSFT" {
		t.Fatalf("unexpected watchlist: %v", got)
	}
	specs := cfg.Indicators.Specs()
	if len(specs) != 6 || specs[0].Name != "supertrend" || specs[5].Name != "atr_percentile" {
		t.Fatalf("indicator order not preserved: %+v", specs)
	}
	if cfg.Strategy.EntryRules["long_entry"].Template != "supertrend_hma" {
		t.Fatalf("unexpected long entry: %+v", cfg.Strategy.EntryRules)
	}
	if !cfg.Strategy.Filters.UseATRFilter || cfg.Strategy.Filters.MinVolume != 1000 {
		t.Fatalf("unexpected filters: %+v", cfg.Strategy.Filters)
	}
	if cfg.Fundamentals.OnMissing != fundamentals.PolicyBlock {
		t.Fatalf("unexpected policy %q", cfg.Fundamentals.OnMissing)
	}
	us := cfg.Fundamentals.Thresholds.Resolve("US")
	if us.PEMax != 80 || us.PBMax != 12 || us.CapPercentileMin != 0.3 {
		t.Fatalf("unexpected US thresholds: %+v", us)
	}
	// Omitted keys keep their defaults.
	if cfg.Fundamentals.CacheDir != "cache" || cfg.Realtime.MinBars != 50 || cfg.Realtime.LogFile != "signals.log" {
		t.Fatalf("defaults not applied: %+v %+v", cfg.Fundamentals, cfg.Realtime)
	}
	if cfg.Realtime.Cooldown.PeriodHours != 2 || cfg.Realtime.Workers != 8 {
		t.Fatalf("unexpected realtime: %+v", cfg.Realtime)
	}
	if len(cfg.Realtime.MarketHours.ExcludeRanges) != 1 {
		t.Fatalf("expected lunch break range")
	}
	if cfg.Notifications.ServerChan.SendKey != "SCT-test" || cfg.Feed.Alpaca.APIKey != "key" || cfg.Feed.Alpaca.APISecret != "secret" {
		t.Fatalf("secrets not read from env")
	}
	if err := cfg.Validate(indicator.Default); err != nil {
		t.Fatalf("fixture should validate: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Watchlist = []string{"AAPL"}
	cfg.Strategy.MinConfidence = 0.7
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := Save(path, &cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if back.Strategy.MinConfidence != 0.7 || len(back.Watchlist) != 1 {
		t.Fatalf("round trip lost fields: %+v", back.Strategy)
	}
	if err := Save(path, nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}

func TestLegacyIndicators(t *testing.T) {
	ind := Indicators{TSI: indicator.Params{"long": 20}}
	specs := ind.Specs()
	if len(specs) != 2 || specs[0].Name != "tsi" || specs[1].Name != "ewo" {
		t.Fatalf("unexpected legacy expansion %+v", specs)
	}
	if specs[0].Params["long"] != 20 {
		t.Fatalf("legacy params dropped")
	}
}

func TestValidateFailsFast(t *testing.T) {
	base := func() Config {
		c := Default()
		c.Watchlist = []string{"AAPL"}
		return c
	}

	c := base()
	c.Indicators.List = []indicator.Spec{{Name: "macd"}}
	if err := c.Validate(indicator.Default); !errors.Is(err, indicator.ErrUnknownIndicator) {
		t.Fatalf("expected unknown indicator, got %v", err)
	}

	c = base()
	c.Strategy.Type = "fusion"
	c.Strategy.EntryRules = map[string]SideRule{"long_entry": {Template: "macd_cross"}}
	if err := c.Validate(indicator.Default); !errors.Is(err, rules.ErrUnknownTemplate) {
		t.Fatalf("expected unknown template, got %v", err)
	}

	c = base()
	c.Strategy.Type = "fusion"
	c.Strategy.EntryRules = map[string]SideRule{"long_entry": {Rule: map[string]any{"type": "xor"}}}
	if err := c.Validate(indicator.Default); !errors.Is(err, rules.ErrInvalidRule) {
		t.Fatalf("expected invalid rule, got %v", err)
	}

	c = base()
	c.Timeframes = []string{"7x"}
	c.Realtime.MarketHours.Start = "9am"
	if err := c.Validate(indicator.Default); err == nil {
		t.Fatalf("expected timeframe and clock errors")
	}
}
