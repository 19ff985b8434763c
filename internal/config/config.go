// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pj950/ffftttt/internal/fundamentals"
	"github.com/pj950/ffftttt/internal/indicator"
	"github.com/pj950/ffftttt/internal/rules"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Market describes the exchange session the watchlist trades in.
type Market struct {
	Region   string `yaml:"region"`
	Timezone string `yaml:"timezone"`
}

// TimeRange is a wall-clock window such as 12:00-13:00.
type TimeRange struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// MarketHours bounds when the runner evaluates signals.
type MarketHours struct {
	Start         string      `yaml:"start"`
	End           string      `yaml:"end"`
	ExcludeRanges []TimeRange `yaml:"exclude_ranges"`
}

// Indicators lists the registry entries to compute, in order.
// The legacy tsi/ewo maps are expanded when list is empty.
type Indicators struct {
	List []indicator.Spec `yaml:"list"`
	TSI  indicator.Params `yaml:"tsi,omitempty"`
	EWO  indicator.Params `yaml:"ewo,omitempty"`
}

// Specs returns the effective ordered indicator list.
func (i Indicators) Specs() []indicator.Spec {
	if len(i.List) > 0 {
		return i.List
	}
	tsi, ewo := i.TSI, i.EWO
	if tsi == nil {
		tsi = indicator.Params{}
	}
	if ewo == nil {
		ewo = indicator.Params{}
	}
	return []indicator.Spec{{Name: "tsi", Params: tsi}, {Name: "ewo", Params: ewo}}
}

// SideRule selects either a named template or a rule tree for one side.
type SideRule struct {
	Template string         `yaml:"template,omitempty"`
	Rule     map[string]any `yaml:"rule,omitempty"`
}

// Filters gate entries after the decision is made.
type Filters struct {
	UseATRFilter bool    `yaml:"use_atr_filter"`
	UseADXFilter bool    `yaml:"use_adx_filter"`
	UseMATrend   bool    `yaml:"use_ma_trend"`
	MinVolume    float64 `yaml:"min_volume"`
}

// Strategy selects the decision mode and its parameters.
type Strategy struct {
	Type          string              `yaml:"type"`
	FusionMode    string              `yaml:"fusion_mode"`
	MinConfidence float64             `yaml:"min_confidence"`
	EntryRules    map[string]SideRule `yaml:"entry_rules"`
	ExitRules     map[string]SideRule `yaml:"exit_rules"`
	Weights       map[string]float64  `yaml:"weights"`
	Threshold     float64             `yaml:"threshold"`
	Filters       Filters             `yaml:"filters"`
	Confidence    *rules.Confidence   `yaml:"confidence,omitempty"`
}

// Cooldown configures duplicate suppression.
type Cooldown struct {
	Enabled     bool    `yaml:"enabled"`
	PeriodHours float64 `yaml:"period_hours"`
}

// Realtime configures the polling runner.
type Realtime struct {
	CheckInterval int         `yaml:"check_interval"`
	MarketHours   MarketHours `yaml:"market_hours"`
	Cooldown      Cooldown    `yaml:"cooldown"`
	LogToFile     bool        `yaml:"log_to_file"`
	LogFile       string      `yaml:"log_file"`
	Workers       int         `yaml:"workers"`
	MinBars       int         `yaml:"min_bars"`
	LookbackDays  int         `yaml:"lookback_days"`
	IgnoreHours   bool        `yaml:"ignore_market_hours"`
}

// Alpaca configures the historical bar client. Keys come from the environment.
type Alpaca struct {
	APIKey    string `yaml:"-"`
	APISecret string `yaml:"-"`
	BaseURL   string `yaml:"base_url"`
	Feed      string `yaml:"feed"`
}

// Binance configures the kline websocket stream.
type Binance struct {
	URL string `yaml:"url"`
}

// Feed selects the market data source.
type Feed struct {
	Provider      string  `yaml:"provider"`
	BaseTimeframe string  `yaml:"base_timeframe"`
	Alpaca        Alpaca  `yaml:"alpaca"`
	Binance       Binance `yaml:"binance"`
	Seed          int64   `yaml:"seed"`
}

// ServerChan configures the push notifier. The send key comes from SERVERCHAN_KEY.
type ServerChan struct {
	Enabled         bool   `yaml:"enabled"`
	SendKey         string `yaml:"-"`
	BaseURL         string `yaml:"base_url"`
	TitleTemplate   string `yaml:"title_template"`
	MessageTemplate string `yaml:"message_template"`
	TimeoutSecs     int    `yaml:"timeout_secs"`
}

// Notifications groups outbound notifiers.
type Notifications struct {
	ServerChan ServerChan `yaml:"serverchan"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App           App                 `yaml:"app"`
	Market        Market              `yaml:"market"`
	Watchlist     []string            `yaml:"watchlist"`
	Timeframes    []string            `yaml:"timeframes"`
	Indicators    Indicators          `yaml:"indicators"`
	Strategy      Strategy            `yaml:"strategy"`
	Fundamentals  fundamentals.Config `yaml:"fundamentals"`
	Realtime      Realtime            `yaml:"realtime"`
	Feed          Feed                `yaml:"feed"`
	Notifications Notifications       `yaml:"notifications"`
}

// Default returns the configuration used for any key the YAML file omits.
func Default() Config {
	return Config{
		App:        App{Name: "fusion-signals", Env: "dev", MetricsAddr: ":9102", LogLevel: "info"},
		Market:     Market{Region: "HK", Timezone: "Asia/Hong_Kong"},
		Timeframes: []string{"60min"},
		Strategy: Strategy{
			Type:          "tsi_ewo",
			FusionMode:    "rule_based",
			MinConfidence: 0.5,
		},
		Fundamentals: fundamentals.DefaultConfig(),
		Realtime: Realtime{
			CheckInterval: 60,
			MarketHours:   MarketHours{Start: "09:30", End: "16:00"},
			Cooldown:      Cooldown{Enabled: true, PeriodHours: 4},
			LogToFile:     true,
			LogFile:       "signals.log",
			Workers:       4,
			MinBars:       50,
			LookbackDays:  30,
		},
		Feed: Feed{Provider: "stub", BaseTimeframe: "1min", Alpaca: Alpaca{Feed: "iex"}},
		Notifications: Notifications{ServerChan: ServerChan{
			Enabled:     true,
			BaseURL:     "https://sctapi.ftqq.com",
			TimeoutSecs: 10,
		}},
	}
}

// Load reads a YAML file from disk and hydrates a Config struct over the defaults.
// Secrets are read from the environment after a best-effort .env load.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	config := Default()
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	config.ApplyEnv()
	return &config, nil
}

// ApplyEnv fills secrets from the process environment and an optional .env file.
func (c *Config) ApplyEnv() {
	_ = godotenv.Load() // best-effort
	if v := os.Getenv("SERVERCHAN_KEY"); v != "" && v != "your_serverchan_key_here" {
		c.Notifications.ServerChan.SendKey = v
	}
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		c.Feed.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		c.Feed.Alpaca.APISecret = v
	}
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// NormalizeSymbols trims and upper-cases the watchlist, dropping blanks and duplicates.
func NormalizeSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
