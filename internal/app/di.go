// Package app provides the constructors the binaries compose, one per component.
package app

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pj950/ffftttt/internal/config"
	"github.com/pj950/ffftttt/internal/cooldown"
	"github.com/pj950/ffftttt/internal/fundamentals"
	"github.com/pj950/ffftttt/internal/indicator"
	"github.com/pj950/ffftttt/internal/marketdata"
	"github.com/pj950/ffftttt/internal/notify"
	"github.com/pj950/ffftttt/internal/pipeline"
	"github.com/pj950/ffftttt/internal/strategy"
	"github.com/pj950/ffftttt/internal/util"
)

// ConfigPath is the YAML file the binaries load.
type ConfigPath string

// Runtime is everything a binary needs after wiring.
type Runtime struct {
	Config       *config.Config
	Log          zerolog.Logger
	Runner       *pipeline.Runner
	Fundamentals *fundamentals.Manager
}

// ProvideConfig loads, normalizes and validates the configuration.
// Unknown indicators, templates or malformed rules abort here.
func ProvideConfig(path ConfigPath) (*config.Config, error) {
	cfg, err := config.Load(string(path))
	if err != nil {
		return nil, err
	}
	cfg.Watchlist = config.NormalizeSymbols(cfg.Watchlist)
	if err := cfg.Validate(indicator.Default); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ProvideLogger builds the process logger at the configured level.
func ProvideLogger(cfg *config.Config) zerolog.Logger {
	return util.NewLogger(cfg.App.LogLevel).With().Str("app", cfg.App.Name).Logger()
}

// ProvideRegistry returns the built-in registry reporting failures through log.
func ProvideRegistry(log zerolog.Logger) *indicator.Registry {
	indicator.Default.SetLogger(log)
	return indicator.Default
}

// ProvideStrategy assembles the configured strategy.
func ProvideStrategy(cfg *config.Config, reg *indicator.Registry) (*strategy.Strategy, error) {
	return strategy.Build(cfg.Strategy, reg, cfg.Indicators.Specs())
}

// ProvideCooldown creates the process-wide cooldown tracker.
func ProvideCooldown(cfg *config.Config) *cooldown.Tracker {
	window := time.Duration(cfg.Realtime.Cooldown.PeriodHours * float64(time.Hour))
	return cooldown.New(cfg.Realtime.Cooldown.Enabled, window)
}

// ProvideSource builds the configured bar source.
func ProvideSource(cfg *config.Config, log zerolog.Logger) (marketdata.Source, error) {
	return marketdata.New(cfg.Feed, cfg.Watchlist, log)
}

// ProvideFundamentals wires the cache and providers: the static file first, then
// turnover from daily bars when the source can serve them.
func ProvideFundamentals(cfg *config.Config, src marketdata.Source, log zerolog.Logger) (*fundamentals.Manager, error) {
	var providers []fundamentals.Provider
	if cfg.Fundamentals.Source != "" {
		fp, err := fundamentals.NewFileProvider(cfg.Fundamentals.Source)
		if err != nil {
			return nil, err
		}
		providers = append(providers, fp)
	}
	if daily, ok := src.(fundamentals.DailyBars); ok {
		providers = append(providers, &fundamentals.TurnoverProvider{Bars: daily, Days: 20})
	}
	var cache *fundamentals.Cache
	if cfg.Fundamentals.CacheDir != "" {
		c, err := fundamentals.NewCache(cfg.Fundamentals.CacheDir)
		if err != nil {
			return nil, err
		}
		cache = c
	}
	return fundamentals.NewManager(cfg.Fundamentals, cache, log, providers...)
}

// ProvideSink composes the log sink with the JSONL signal log and ServerChan when configured.
// The cleanup closes the signal log.
func ProvideSink(cfg *config.Config, log zerolog.Logger) (notify.Sink, func(), error) {
	sinks := notify.Multi{notify.NewLogSink(log)}
	cleanup := func() {}
	if cfg.Realtime.LogToFile && cfg.Realtime.LogFile != "" {
		rec, err := notify.NewJSONLRecorder(cfg.Realtime.LogFile)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, rec)
		cleanup = func() { _ = rec.Close() }
	}
	sc := cfg.Notifications.ServerChan
	switch {
	case sc.Enabled && sc.SendKey != "":
		push, err := notify.NewServerChan(sc)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		sinks = append(sinks, push)
	case sc.Enabled:
		log.Warn().Msg("serverchan enabled but SERVERCHAN_KEY is not set, push disabled")
	}
	return sinks, cleanup, nil
}

// ProvideSession resolves market hours in the market timezone.
func ProvideSession(cfg *config.Config) (*pipeline.Session, error) {
	return pipeline.NewSession(cfg.Market, cfg.Realtime.MarketHours)
}

// ProvideAssembler joins strategy and cooldown; the gate is set per cycle by the runner.
func ProvideAssembler(strat *strategy.Strategy, tracker *cooldown.Tracker, log zerolog.Logger) *pipeline.Assembler {
	return &pipeline.Assembler{
		Strategy: strat,
		Cooldown: tracker,
		Log:      log.With().Str("component", "assembler").Logger(),
	}
}

// ProvideRunner builds the polling runner.
func ProvideRunner(
	cfg *config.Config,
	reg *indicator.Registry,
	src marketdata.Source,
	asm *pipeline.Assembler,
	mgr *fundamentals.Manager,
	sink notify.Sink,
	session *pipeline.Session,
	log zerolog.Logger,
) *pipeline.Runner {
	return &pipeline.Runner{
		Registry:     reg,
		Specs:        cfg.Indicators.Specs(),
		Source:       src,
		Assembler:    asm,
		Fundamentals: mgr,
		Sink:         sink,
		Session:      session,
		IgnoreHours:  cfg.Realtime.IgnoreHours,
		Watchlist:    cfg.Watchlist,
		Timeframes:   cfg.Timeframes,
		Workers:      cfg.Realtime.Workers,
		MinBars:      cfg.Realtime.MinBars,
		LookbackDays: cfg.Realtime.LookbackDays,
		Interval:     time.Duration(cfg.Realtime.CheckInterval) * time.Second,
		Log:          log.With().Str("component", "runner").Logger(),
	}
}
